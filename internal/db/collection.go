package db

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-checkpoint/internal/models"
)

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrNilCollection   = errors.New("mongo collection is nil")
)

// Order sorts a query by one field.
type Order struct {
	Field      string
	Descending bool
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error)
	FindVehicles(ctx context.Context, unit string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// RecordCollection defines the interface for check record operations.
type RecordCollection interface {
	InsertRecord(ctx context.Context, record models.CheckRecord) (models.CheckRecord, error)
	FindRecords(ctx context.Context, vehicleID string, order Order) ([]models.CheckRecord, error)
	FindUnitRecords(ctx context.Context, unit string, order Order) ([]models.CheckRecord, error)
	FindPendingObservations(ctx context.Context, unit string) ([]models.CheckRecord, error)
	ResolveRecords(ctx context.Context, ids []string, resolvedBy string) (int64, error)
}

// FuelCollection defines the interface for fuel record operations.
type FuelCollection interface {
	InsertFuel(ctx context.Context, fuel models.FuelRecord) (models.FuelRecord, error)
	FindFuel(ctx context.Context, vehicleID string, order Order) ([]models.FuelRecord, error)
	// LatestFuel returns nil without error when the vehicle was never refueled.
	LatestFuel(ctx context.Context, vehicleID string) (*models.FuelRecord, error)
}

// MaintenanceCollection defines the interface for the service log.
type MaintenanceCollection interface {
	InsertMaintenance(ctx context.Context, record models.MaintenanceRecord) error
	FindMaintenance(ctx context.Context, vehicleID string) ([]models.MaintenanceRecord, error)
}

// UnitCollection defines the interface for unit operations.
type UnitCollection interface {
	InsertUnit(ctx context.Context, unit models.Unit) (models.Unit, error)
	FindUnits(ctx context.Context) ([]models.Unit, error)
}
