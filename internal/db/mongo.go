package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/fleet-checkpoint/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collections used by the API.
type Store struct {
	Vehicles    *MongoCollection
	Records     *MongoCollection
	Fuel        *MongoCollection
	Maintenance *MongoCollection
	Units       *MongoCollection
	Users       *MongoUserCollection
}

// NewStore binds every collection of the named database.
func NewStore(client *mongo.Client, dbName string) *Store {
	database := client.Database(dbName)
	return &Store{
		Vehicles:    &MongoCollection{Collection: database.Collection("vehicles")},
		Records:     &MongoCollection{Collection: database.Collection("check_records")},
		Fuel:        &MongoCollection{Collection: database.Collection("fuel_records")},
		Maintenance: &MongoCollection{Collection: database.Collection("maintenance")},
		Units:       &MongoCollection{Collection: database.Collection("units")},
		Users:       &MongoUserCollection{Collection: database.Collection("users")},
	}
}

// EnsureIndexes creates the indexes the queries below rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	byVehicleTime := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: field, Value: -1}}}
	}
	if _, err := s.Records.Collection.Indexes().CreateOne(ctx, byVehicleTime("timestamp")); err != nil {
		return fmt.Errorf("check_records index: %w", err)
	}
	if _, err := s.Fuel.Collection.Indexes().CreateOne(ctx, byVehicleTime("date")); err != nil {
		return fmt.Errorf("fuel_records index: %w", err)
	}
	if _, err := s.Maintenance.Collection.Indexes().CreateOne(ctx, byVehicleTime("serviced_at")); err != nil {
		return fmt.Errorf("maintenance index: %w", err)
	}
	unique := mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := s.Users.Collection.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	return nil
}

// MongoCollection wraps one MongoDB collection of fleet data.
type MongoCollection struct {
	Collection *mongo.Collection
}

func findOptions(order Order) *options.FindOptions {
	opts := options.Find()
	if order.Field != "" {
		dir := 1
		if order.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: order.Field, Value: dir}})
	}
	return opts
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error) {
	if c.Collection == nil {
		return vehicle, ErrNilCollection
	}
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = vehicle.CreatedAt
	vehicle.Plate = strings.ToUpper(strings.TrimSpace(vehicle.Plate))
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return vehicle, err
}

// FindVehicles lists vehicles of a unit, or of every unit when unit is empty.
func (c *MongoCollection) FindVehicles(ctx context.Context, unit string) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{}
	if unit != "" {
		filter["unit"] = unit
	}
	cursor, err := c.Collection.Find(ctx, filter, findOptions(Order{Field: "plate"}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	return &vehicle, nil
}

// UpdateVehicle replaces the mutable fields of a vehicle.
func (c *MongoCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	vehicle.ID = objectID
	vehicle.UpdatedAt = time.Now()
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": objectID}, vehicle)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrVehicleNotFound
	}

	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoCollection) DeleteVehicle(ctx context.Context, id string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrVehicleNotFound
	}

	return nil
}

// InsertRecord inserts a check record into the collection.
func (c *MongoCollection) InsertRecord(ctx context.Context, record models.CheckRecord) (models.CheckRecord, error) {
	if c.Collection == nil {
		return record, ErrNilCollection
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	_, err := c.Collection.InsertOne(ctx, record)
	return record, err
}

// FindRecords returns every check record of a vehicle in the requested order.
func (c *MongoCollection) FindRecords(ctx context.Context, vehicleID string, order Order) ([]models.CheckRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, findOptions(order))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]models.CheckRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDoc(doc))
	}
	return records, nil
}

// FindUnitRecords returns the check records of every vehicle of a unit, or of
// the whole fleet when unit is empty.
func (c *MongoCollection) FindUnitRecords(ctx context.Context, unit string, order Order) ([]models.CheckRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{}
	if unit != "" {
		filter["unit"] = unit
	}
	cursor, err := c.Collection.Find(ctx, filter, findOptions(order))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]models.CheckRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDoc(doc))
	}
	return records, nil
}

// FindPendingObservations returns unresolved records with notes, newest first.
func (c *MongoCollection) FindPendingObservations(ctx context.Context, unit string) ([]models.CheckRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	filter := bson.M{
		"is_resolved": bson.M{"$ne": true},
		"notes":       bson.M{"$nin": bson.A{"", nil}},
	}
	if unit != "" {
		filter["unit"] = unit
	}
	cursor, err := c.Collection.Find(ctx, filter, findOptions(Order{Field: "timestamp", Descending: true}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]models.CheckRecord, 0, len(docs))
	for _, doc := range docs {
		if r := recordFromDoc(doc); r.HasPendingObservation() {
			records = append(records, r)
		}
	}
	return records, nil
}

// ResolveRecords marks records as resolved and returns how many were changed.
func (c *MongoCollection) ResolveRecords(ctx context.Context, ids []string, resolvedBy string) (int64, error) {
	if c.Collection == nil {
		return 0, ErrNilCollection
	}
	oids, err := objectIDs(ids)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	result, err := c.Collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		bson.M{"$set": bson.M{"is_resolved": true, "resolved_at": now, "resolved_by": resolvedBy}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// InsertFuel inserts a fuel record into the collection.
func (c *MongoCollection) InsertFuel(ctx context.Context, fuel models.FuelRecord) (models.FuelRecord, error) {
	if c.Collection == nil {
		return fuel, ErrNilCollection
	}
	if fuel.ID.IsZero() {
		fuel.ID = primitive.NewObjectID()
	}
	fuel.CreatedAt = time.Now()
	if fuel.Date.IsZero() {
		fuel.Date = fuel.CreatedAt
	}
	_, err := c.Collection.InsertOne(ctx, fuel)
	return fuel, err
}

// FindFuel returns every fuel record of a vehicle in the requested order.
func (c *MongoCollection) FindFuel(ctx context.Context, vehicleID string, order Order) ([]models.FuelRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, findOptions(order))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	fuel := make([]models.FuelRecord, 0, len(docs))
	for _, doc := range docs {
		fuel = append(fuel, fuelFromDoc(doc))
	}
	return fuel, nil
}

// LatestFuel returns the most recent fuel record by date.
func (c *MongoCollection) LatestFuel(ctx context.Context, vehicleID string) (*models.FuelRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	var doc bson.M
	err := c.Collection.FindOne(ctx, bson.M{"vehicle_id": vehicleID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	fuel := fuelFromDoc(doc)
	return &fuel, nil
}

// InsertMaintenance inserts a maintenance record into the collection.
func (c *MongoCollection) InsertMaintenance(ctx context.Context, maintenance models.MaintenanceRecord) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	maintenance.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, maintenance)
	return err
}

// FindMaintenance returns the service log of a vehicle, newest first.
func (c *MongoCollection) FindMaintenance(ctx context.Context, vehicleID string) ([]models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, findOptions(Order{Field: "serviced_at", Descending: true}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.MaintenanceRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertUnit inserts a unit into the collection.
func (c *MongoCollection) InsertUnit(ctx context.Context, unit models.Unit) (models.Unit, error) {
	if c.Collection == nil {
		return unit, ErrNilCollection
	}
	if unit.ID.IsZero() {
		unit.ID = primitive.NewObjectID()
	}
	if unit.Status == "" {
		unit.Status = "active"
	}
	unit.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, unit)
	return unit, err
}

// FindUnits lists every unit by name.
func (c *MongoCollection) FindUnits(ctx context.Context) ([]models.Unit, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, findOptions(Order{Field: "name"}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	units := []models.Unit{}
	if err := cursor.All(ctx, &units); err != nil {
		return nil, err
	}
	return units, nil
}
