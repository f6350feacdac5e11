package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordType tags a check record as the start or the end of a vehicle hand-off.
type RecordType string

const (
	RecordCheckOut RecordType = "check_out"
	RecordCheckIn  RecordType = "check_in"
)

// CheckRecord is one odometer reading taken when a vehicle changes hands.
type CheckRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID      string             `bson:"vehicle_id" json:"vehicle_id"`
	DriverName     string             `bson:"driver_name" json:"driver_name"`
	RecordedByName string             `bson:"recorded_by_name,omitempty" json:"recorded_by_name,omitempty"`
	KmReading      int                `bson:"km_reading" json:"km_reading"`
	Type           RecordType         `bson:"type" json:"type"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	Photos         []string           `bson:"photos,omitempty" json:"photos,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Reason         string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Unit           string             `bson:"unit" json:"unit"`
	IsResolved     bool               `bson:"is_resolved" json:"is_resolved"`
	ResolvedAt     *time.Time         `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	ResolvedBy     string             `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
}

// HasPendingObservation reports whether the record carries notes nobody has resolved yet.
func (r *CheckRecord) HasPendingObservation() bool {
	return !r.IsResolved && len(strings.TrimSpace(r.Notes)) > 0
}

// CheckRecordRequest is the body of a check-out or check-in submission.
type CheckRecordRequest struct {
	DriverName string   `json:"driver_name" validate:"max=120"`
	KmReading  int      `json:"km_reading" validate:"gte=0"`
	Notes      string   `json:"notes" validate:"max=2000"`
	Reason     string   `json:"reason" validate:"max=200"`
	Photos     []string `json:"photos" validate:"max=10,dive,required"`
}
