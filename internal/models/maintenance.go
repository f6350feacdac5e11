package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// MaintenanceRecord is the log entry written each time a component is serviced.
type MaintenanceRecord struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID  string             `json:"vehicle_id" bson:"vehicle_id"`
	Component  string             `json:"component" bson:"component"` // "oil", "revision", "front_tire", ...
	Km         int                `json:"km" bson:"km"`
	IntervalKm int                `json:"interval_km" bson:"interval_km"`
	AlertKm    int                `json:"alert_km" bson:"alert_km"`
	ServicedAt time.Time          `json:"serviced_at" bson:"serviced_at"`
	RecordedBy string             `json:"recorded_by" bson:"recorded_by"`
	Unit       string             `json:"unit" bson:"unit"`
	Notes      string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// ServiceRequest is the body of a component service registration.
type ServiceRequest struct {
	Km         int       `json:"km" validate:"gte=0"`
	IntervalKm int       `json:"interval_km" validate:"gte=0"`
	AlertKm    *int      `json:"alert_km" validate:"omitempty,gte=0"`
	ServicedAt time.Time `json:"serviced_at"`
	Notes      string    `json:"notes" validate:"max=2000"`
}
