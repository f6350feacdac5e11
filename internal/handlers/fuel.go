package handlers

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

// FuelHandler serves the refueling log and fuel card balance of a vehicle.
type FuelHandler struct {
	vehicles db.VehicleCollection
	fuel     db.FuelCollection
	now      func() time.Time
}

func NewFuelHandler(vehicles db.VehicleCollection, fuel db.FuelCollection) *FuelHandler {
	return &FuelHandler{vehicles: vehicles, fuel: fuel, now: time.Now}
}

// FuelEntry is a fuel record with its derived price per liter.
type FuelEntry struct {
	models.FuelRecord
	PricePerLiter float64 `json:"price_per_liter"`
}

// FuelHistoryResponse is the fuel log of a vehicle, newest first.
type FuelHistoryResponse struct {
	VehicleID     string      `json:"vehicle_id"`
	Records       []FuelEntry `json:"records"`
	LatestBalance *float64    `json:"latest_balance,omitempty"`
	Critical      bool        `json:"critical"`
}

// FuelCreateResponse is returned after a refueling was stored.
type FuelCreateResponse struct {
	Record   models.FuelRecord `json:"record"`
	Critical bool              `json:"critical"`
}

// List returns the fuel history of a vehicle with the current card balance.
func (h *FuelHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return
	}
	records, err := h.fuel.FindFuel(r.Context(), vehicleID(r), db.Order{Field: "date", Descending: true})
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := FuelHistoryResponse{VehicleID: vehicleID(r), Records: make([]FuelEntry, 0, len(records))}
	for i := range records {
		resp.Records = append(resp.Records, FuelEntry{FuelRecord: records[i], PricePerLiter: records[i].PricePerLiter()})
	}
	if len(records) > 0 {
		balance := records[0].RemainingBalance
		resp.LatestBalance = &balance
		resp.Critical = validation.FuelBalanceCritical(v.Category, balance)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create stores a refueling. Entries dated before the latest refueling are
// retroactive and skip the km check; force skips it as well.
func (h *FuelHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.FuelRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.CheckFuelAmounts(req.Liters, req.TotalValue); err != nil {
		writeError(w, r, err)
		return
	}

	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return
	}

	date := req.Date
	if date.IsZero() {
		date = h.now()
	}
	if !req.Force {
		last, err := h.fuel.LatestFuel(r.Context(), vehicleID(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := validation.CheckFuelOdometer(last, date, req.KmAtRefueling); err != nil {
			writeError(w, r, err)
			return
		}
	}

	record, err := h.fuel.InsertFuel(r.Context(), models.FuelRecord{
		VehicleID:        vehicleID(r),
		DriverName:       strings.ToUpper(strings.TrimSpace(req.DriverName)),
		Date:             date,
		Liters:           req.Liters,
		TotalValue:       req.TotalValue,
		RemainingBalance: req.RemainingBalance,
		KmAtRefueling:    req.KmAtRefueling,
		Unit:             v.Unit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	critical := validation.FuelBalanceCritical(v.Category, record.RemainingBalance)
	entry := middleware.Logger(r.Context()).WithFields(log.Fields{
		"vehicle_id": vehicleID(r),
		"liters":     record.Liters,
		"balance":    record.RemainingBalance,
		"forced":     req.Force,
	})
	if critical {
		entry.Warn("Fuel card balance is critical")
	} else {
		entry.Info("Refueling recorded")
	}

	writeJSON(w, http.StatusCreated, FuelCreateResponse{Record: record, Critical: critical})
}
