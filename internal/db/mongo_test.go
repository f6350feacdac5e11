package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// testDatabase connects to MONGO_URI and returns a clean test database.
// Integration tests are skipped when no server is configured or reachable.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	database := client.Database("test_fleet")
	_ = database.Drop(context.Background())
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return database
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestNilCollection(t *testing.T) {
	coll := &MongoCollection{Collection: nil}
	ctx := context.Background()

	_, err := coll.InsertVehicle(ctx, models.Vehicle{})
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = coll.InsertRecord(ctx, models.CheckRecord{})
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = coll.FindFuel(ctx, "v1", Order{})
	assert.ErrorIs(t, err, ErrNilCollection)
	_, err = coll.FindUnitRecords(ctx, "1BPM", Order{})
	assert.ErrorIs(t, err, ErrNilCollection)
	err = coll.InsertMaintenance(ctx, models.MaintenanceRecord{})
	assert.ErrorIs(t, err, ErrNilCollection)
}

func TestVehicleLifecycle_Integration(t *testing.T) {
	database := testDatabase(t)
	coll := &MongoCollection{Collection: database.Collection("vehicles")}
	ctx := context.Background()

	v, err := coll.InsertVehicle(ctx, models.Vehicle{Plate: " abc1d23 ", Category: models.CategoryVTR, Unit: "1BPM", Status: models.StatusAvailable})
	require.NoError(t, err)
	assert.Equal(t, "ABC1D23", v.Plate)

	found, err := coll.FindVehicleByID(ctx, v.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.CategoryVTR, found.Category)

	found.OdometerKm = 1200
	require.NoError(t, coll.UpdateVehicle(ctx, v.ID.Hex(), *found))

	list, err := coll.FindVehicles(ctx, "1BPM")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1200, list[0].OdometerKm)

	require.NoError(t, coll.DeleteVehicle(ctx, v.ID.Hex()))
	_, err = coll.FindVehicleByID(ctx, v.ID.Hex())
	assert.ErrorIs(t, err, ErrVehicleNotFound)

	_, err = coll.FindVehicleByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestFindRecords_CoercesLegacyDocuments_Integration(t *testing.T) {
	database := testDatabase(t)
	collection := database.Collection("check_records")
	coll := &MongoCollection{Collection: collection}
	ctx := context.Background()

	t0 := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)
	_, err := collection.InsertMany(ctx, []interface{}{
		bson.M{"vehicle_id": "v1", "driver_name": "A", "km_reading": "1500", "type": "check_out", "timestamp": t0, "unit": "1BPM"},
		bson.M{"vehicle_id": "v1", "driver_name": "A", "km_reading": nil, "type": "check_in", "timestamp": t0.Add(time.Hour), "notes": "flat tire", "unit": "1BPM"},
		bson.M{"vehicle_id": "v2", "driver_name": "B", "km_reading": 10, "type": "check_out", "timestamp": t0, "unit": "2BPM"},
	})
	require.NoError(t, err)

	records, err := coll.FindRecords(ctx, "v1", Order{Field: "timestamp"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1500, records[0].KmReading)
	assert.Equal(t, 0, records[1].KmReading)

	unit, err := coll.FindUnitRecords(ctx, "2BPM", Order{Field: "timestamp"})
	require.NoError(t, err)
	require.Len(t, unit, 1)
	assert.Equal(t, "v2", unit[0].VehicleID)

	fleet, err := coll.FindUnitRecords(ctx, "", Order{Field: "timestamp"})
	require.NoError(t, err)
	assert.Len(t, fleet, 3)

	pending, err := coll.FindPendingObservations(ctx, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	n, err := coll.ResolveRecords(ctx, []string{pending[0].ID.Hex()}, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLatestFuel_Integration(t *testing.T) {
	database := testDatabase(t)
	coll := &MongoCollection{Collection: database.Collection("fuel_records")}
	ctx := context.Background()

	none, err := coll.LatestFuel(ctx, "v1")
	require.NoError(t, err)
	assert.Nil(t, none)

	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = coll.InsertFuel(ctx, models.FuelRecord{VehicleID: "v1", Date: d, KmAtRefueling: 100})
	require.NoError(t, err)
	_, err = coll.InsertFuel(ctx, models.FuelRecord{VehicleID: "v1", Date: d.Add(48 * time.Hour), KmAtRefueling: 400})
	require.NoError(t, err)

	latest, err := coll.LatestFuel(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 400, latest.KmAtRefueling)
}
