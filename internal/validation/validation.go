// Package validation holds the data-entry rules applied before a check or fuel
// record is stored.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
)

var (
	ErrOdometerRegression     = errors.New("km reading is below the vehicle odometer")
	ErrFuelOdometerRegression = errors.New("km reading is below the last refueling")
	ErrNegativeReading        = errors.New("km reading must not be negative")
	ErrDriverRequired         = errors.New("driver name is required")
	ErrReasonRequired         = errors.New("reason is required for a check-out")
	ErrVehicleUnavailable     = errors.New("vehicle is not available for use")
	ErrInvalidFuelAmount      = errors.New("liters and total value must be positive")
)

// Critical fuel card balance per category.
const (
	CriticalBalanceVTR = 500.0
	CriticalBalanceMR  = 100.0
)

// NextKind tells whether the next record for a vehicle is a check-out or a check-in.
// Available and defective vehicles go out; anything in use comes back.
// A vehicle with no status yet counts as available.
func NextKind(v models.Vehicle) usage.Kind {
	switch v.Status {
	case "", models.StatusAvailable, models.StatusDefective:
		return usage.CheckOut
	}
	return usage.CheckIn
}

// CheckAvailability rejects hand-offs for vehicles parked in the workshop or retired.
func CheckAvailability(v models.Vehicle) error {
	if v.Status == models.StatusMaintenance || v.Status == models.StatusRetired {
		return fmt.Errorf("%w: status %s", ErrVehicleUnavailable, v.Status)
	}
	return nil
}

// CheckOdometer rejects readings below the vehicle's current odometer.
func CheckOdometer(v models.Vehicle, km int) error {
	if km < 0 {
		return ErrNegativeReading
	}
	if km < v.OdometerKm {
		return fmt.Errorf("%w: %d < %d", ErrOdometerRegression, km, v.OdometerKm)
	}
	return nil
}

// CheckUsage validates the driver and reason of a hand-off.
func CheckUsage(kind usage.Kind, driver, reason string) error {
	if strings.TrimSpace(driver) == "" {
		return ErrDriverRequired
	}
	if kind == usage.CheckOut && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// CheckFuelOdometer validates the km of a refueling against the latest one.
//
// An entry dated before the latest refueling is retroactive and accepts any km.
// Otherwise the km must not be lower than the latest refueling's.
func CheckFuelOdometer(last *models.FuelRecord, date time.Time, km int) error {
	if km < 0 {
		return ErrNegativeReading
	}
	if last == nil {
		return nil
	}
	if date.Before(last.Date) {
		return nil
	}
	if km < last.KmAtRefueling {
		return fmt.Errorf("%w: %d < %d; date it before %s if it is retroactive",
			ErrFuelOdometerRegression, km, last.KmAtRefueling, last.Date.Format("2006-01-02"))
	}
	return nil
}

// CheckFuelAmounts requires a positive volume and price.
func CheckFuelAmounts(liters, total float64) error {
	if liters <= 0 || total <= 0 {
		return ErrInvalidFuelAmount
	}
	return nil
}

// FuelBalanceCritical reports whether a fuel card balance is below the category threshold.
func FuelBalanceCritical(category models.Category, balance float64) bool {
	if category == models.CategoryVTR {
		return balance < CriticalBalanceVTR
	}
	return balance < CriticalBalanceMR
}
