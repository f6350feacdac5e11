package db

import (
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Check and fuel records may come from older imports where numbers were stored
// as strings or left empty, so they are read as bson.M and mapped here.

func recordFromDoc(doc bson.M) models.CheckRecord {
	r := models.CheckRecord{
		VehicleID:      models.StringValue(doc["vehicle_id"]),
		DriverName:     models.StringValue(doc["driver_name"]),
		RecordedByName: models.StringValue(doc["recorded_by_name"]),
		KmReading:      models.IntValue(doc["km_reading"]),
		Type:           models.RecordType(models.StringValue(doc["type"])),
		Timestamp:      models.TimeValue(doc["timestamp"]),
		Photos:         stringSlice(doc["photos"]),
		Notes:          models.StringValue(doc["notes"]),
		Reason:         models.StringValue(doc["reason"]),
		Unit:           models.StringValue(doc["unit"]),
		ResolvedBy:     models.StringValue(doc["resolved_by"]),
	}
	if id, ok := doc["_id"].(primitive.ObjectID); ok {
		r.ID = id
	}
	if resolved, ok := doc["is_resolved"].(bool); ok {
		r.IsResolved = resolved
	}
	if at := models.TimeValue(doc["resolved_at"]); !at.IsZero() {
		r.ResolvedAt = &at
	}
	return r
}

func fuelFromDoc(doc bson.M) models.FuelRecord {
	f := models.FuelRecord{
		VehicleID:        models.StringValue(doc["vehicle_id"]),
		DriverName:       models.StringValue(doc["driver_name"]),
		Date:             models.TimeValue(doc["date"]),
		Liters:           models.FloatValue(doc["liters"]),
		TotalValue:       models.FloatValue(doc["total_value"]),
		RemainingBalance: models.FloatValue(doc["remaining_balance"]),
		KmAtRefueling:    models.IntValue(doc["km_at_refueling"]),
		Unit:             models.StringValue(doc["unit"]),
		CreatedAt:        models.TimeValue(doc["created_at"]),
	}
	if id, ok := doc["_id"].(primitive.ObjectID); ok {
		f.ID = id
	}
	return f
}

func stringSlice(v interface{}) []string {
	var items []interface{}
	switch a := v.(type) {
	case bson.A:
		items = a
	case []interface{}:
		items = a
	case []string:
		return a
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, ErrInvalidID
		}
		out = append(out, oid)
	}
	return out, nil
}
