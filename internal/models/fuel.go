package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelRecord represents one refueling of a vehicle.
type FuelRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID        string             `bson:"vehicle_id" json:"vehicle_id"`
	DriverName       string             `bson:"driver_name" json:"driver_name"`
	Date             time.Time          `bson:"date" json:"date"`
	Liters           float64            `bson:"liters" json:"liters"`
	TotalValue       float64            `bson:"total_value" json:"total_value"`             // in BRL
	RemainingBalance float64            `bson:"remaining_balance" json:"remaining_balance"` // fuel card balance after this refueling
	KmAtRefueling    int                `bson:"km_at_refueling" json:"km_at_refueling"`
	Unit             string             `bson:"unit" json:"unit"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// PricePerLiter returns total value over liters, 0 when no liters were recorded.
func (f *FuelRecord) PricePerLiter() float64 {
	if f.Liters <= 0 {
		return 0
	}
	return f.TotalValue / f.Liters
}

// FuelRecordRequest is the body of a fuel submission.
type FuelRecordRequest struct {
	DriverName       string    `json:"driver_name" validate:"required,max=120"`
	Date             time.Time `json:"date"`
	Liters           float64   `json:"liters" validate:"gte=0"`
	TotalValue       float64   `json:"total_value" validate:"gte=0"`
	RemainingBalance float64   `json:"remaining_balance" validate:"gte=0"`
	KmAtRefueling    int       `json:"km_at_refueling" validate:"gte=0"`
	Force            bool      `json:"force"` // accept a km lower than the previous refueling
}
