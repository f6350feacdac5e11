package models

import (
	"testing"
	"time"
)

func TestVehicle_ObserveOdometer(t *testing.T) {
	v := &Vehicle{OdometerKm: 15000}

	v.ObserveOdometer(14000)
	if v.OdometerKm != 15000 {
		t.Errorf("lower reading moved odometer to %d", v.OdometerKm)
	}

	v.ObserveOdometer(15420)
	if v.OdometerKm != 15420 {
		t.Errorf("expected 15420, got %d", v.OdometerKm)
	}
}

func TestVehicle_Service(t *testing.T) {
	v := &Vehicle{}
	if got := v.Service("oil"); got.LastKm != 0 || got.IntervalKm != 0 {
		t.Errorf("expected zero service point, got %+v", got)
	}

	v.Services = map[string]ServicePoint{"oil": {LastKm: 9000, IntervalKm: 10000}}
	if got := v.Service("oil"); got.LastKm != 9000 {
		t.Errorf("expected last km 9000, got %d", got.LastKm)
	}
}

func TestIsValidVehicleStatus(t *testing.T) {
	for _, s := range []VehicleStatus{StatusAvailable, StatusInUse, StatusMaintenance, StatusDefective, StatusRetired} {
		if !IsValidVehicleStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if IsValidVehicleStatus("parked") {
		t.Error("expected unknown status to be invalid")
	}
	if !IsValidCategory(CategoryMR) || IsValidCategory("BUS") {
		t.Error("category validation mismatch")
	}
}

func TestCheckRecord_HasPendingObservation(t *testing.T) {
	r := &CheckRecord{Notes: "  "}
	if r.HasPendingObservation() {
		t.Error("blank notes should not be pending")
	}
	r.Notes = "left mirror cracked"
	if !r.HasPendingObservation() {
		t.Error("expected pending observation")
	}
	r.IsResolved = true
	if r.HasPendingObservation() {
		t.Error("resolved record should not be pending")
	}
}

func TestFuelRecord_PricePerLiter(t *testing.T) {
	f := &FuelRecord{Liters: 40, TotalValue: 238}
	if got := f.PricePerLiter(); got != 5.95 {
		t.Errorf("expected 5.95, got %v", got)
	}
	if got := (&FuelRecord{TotalValue: 100}).PricePerLiter(); got != 0 {
		t.Errorf("expected 0 without liters, got %v", got)
	}
}

func TestUnit_IsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if !(&Unit{Status: "active"}).IsActive(now) {
		t.Error("unit without expiry should be active")
	}
	if (&Unit{Status: "active", ExpiresAt: &past}).IsActive(now) {
		t.Error("expired unit should be inactive")
	}
	if !(&Unit{Status: "active", ExpiresAt: &future}).IsActive(now) {
		t.Error("unit before expiry should be active")
	}
	if (&Unit{Status: "blocked"}).IsActive(now) {
		t.Error("blocked unit should be inactive")
	}
}
