package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Category is the vehicle class. It drives the default service intervals.
type Category string

const (
	CategoryVTR Category = "VTR" // patrol car
	CategoryMR  Category = "MR"  // motorcycle
)

// VehicleStatus is the operational state of a vehicle.
type VehicleStatus string

const (
	StatusAvailable   VehicleStatus = "available"
	StatusInUse       VehicleStatus = "in_use"
	StatusMaintenance VehicleStatus = "maintenance"
	StatusDefective   VehicleStatus = "defective"
	StatusRetired     VehicleStatus = "retired"
)

// IsValidCategory checks if a category is known
func IsValidCategory(c Category) bool {
	return c == CategoryVTR || c == CategoryMR
}

// IsValidVehicleStatus checks if a vehicle status is known
func IsValidVehicleStatus(s VehicleStatus) bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusDefective, StatusRetired:
		return true
	default:
		return false
	}
}

// ServicePoint is the last known service of one vehicle component.
type ServicePoint struct {
	LastKm     int       `bson:"last_km" json:"last_km"`
	IntervalKm int       `bson:"interval_km,omitempty" json:"interval_km,omitempty"`
	AlertKm    *int      `bson:"alert_km,omitempty" json:"alert_km,omitempty"`
	ServicedAt time.Time `bson:"serviced_at,omitempty" json:"serviced_at,omitempty"`
}

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID            primitive.ObjectID      `bson:"_id,omitempty" json:"id"`
	Plate         string                  `bson:"plate" json:"plate"`
	Model         string                  `bson:"model" json:"model"`
	Year          int                     `bson:"year" json:"year"`
	Category      Category                `bson:"category" json:"category"`
	Image         string                  `bson:"image,omitempty" json:"image,omitempty"`
	Unit          string                  `bson:"unit" json:"unit"`
	Status        VehicleStatus           `bson:"status" json:"status"`
	CurrentDriver string                  `bson:"current_driver,omitempty" json:"current_driver,omitempty"`
	OdometerKm    int                     `bson:"odometer_km" json:"odometer_km"` // highest reading ever observed
	Services      map[string]ServicePoint `bson:"services,omitempty" json:"services,omitempty"`
	CreatedAt     time.Time               `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time               `bson:"updated_at" json:"updated_at"`
}

// ObserveOdometer folds a new reading into the current odometer.
// Lower readings never move it backwards.
func (v *Vehicle) ObserveOdometer(km int) {
	if km > v.OdometerKm {
		v.OdometerKm = km
	}
}

// Service returns the service point for a component key, zero if never serviced.
func (v *Vehicle) Service(key string) ServicePoint {
	if v.Services == nil {
		return ServicePoint{}
	}
	return v.Services[key]
}

// VehicleRequest is the body of a vehicle registration.
type VehicleRequest struct {
	Plate      string   `json:"plate" validate:"required,max=10"`
	Model      string   `json:"model" validate:"required,max=80"`
	Year       int      `json:"year" validate:"omitempty,gte=1950,lte=2100"`
	Category   Category `json:"category" validate:"required"`
	Image      string   `json:"image"`
	Unit       string   `json:"unit"`
	OdometerKm int      `json:"odometer_km" validate:"gte=0"`
}

// StatusRequest is the body of a manual status change.
type StatusRequest struct {
	Status VehicleStatus `json:"status" validate:"required"`
}
