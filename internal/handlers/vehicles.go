package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/cache"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

// VehicleHandler serves the vehicle registry.
type VehicleHandler struct {
	vehicles db.VehicleCollection
	board    cache.BoardCache
}

func NewVehicleHandler(vehicles db.VehicleCollection, board cache.BoardCache) *VehicleHandler {
	if board == nil {
		board = cache.NopBoardCache{}
	}
	return &VehicleHandler{vehicles: vehicles, board: board}
}

func vehicleID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// loadVehicle fetches the {id} vehicle and hides vehicles of other units.
func loadVehicle(w http.ResponseWriter, r *http.Request, vehicles db.VehicleCollection, claims *models.Claims) (*models.Vehicle, bool) {
	v, err := vehicles.FindVehicleByID(r.Context(), vehicleID(r))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if !canAccess(claims, v.Unit) {
		writeError(w, r, db.ErrVehicleNotFound)
		return nil, false
	}
	return v, true
}

// invalidateBoard drops cached boards after a vehicle changed. Cache errors are logged only.
func invalidateBoard(r *http.Request, board cache.BoardCache, unit string) {
	if err := board.Invalidate(r.Context(), unit); err != nil {
		middleware.Logger(r.Context()).WithError(err).WithField("unit", unit).Warn("Failed to invalidate maintenance board cache")
	}
}

// List returns the vehicles of the caller's unit; admins may pass ?unit=.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.FindVehicles(r.Context(), scopeUnit(claims, r.URL.Query().Get("unit")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// Create registers a vehicle.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.VehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}
	if !models.IsValidCategory(req.Category) {
		http.Error(w, "Invalid category", http.StatusUnprocessableEntity)
		return
	}

	unit := req.Unit
	if unit == "" || claims.Role != models.RoleProgrammer {
		unit = claims.Unit
	}

	v, err := h.vehicles.InsertVehicle(r.Context(), models.Vehicle{
		Plate:      req.Plate,
		Model:      strings.TrimSpace(req.Model),
		Year:       req.Year,
		Category:   req.Category,
		Image:      req.Image,
		Unit:       unit,
		Status:     models.StatusAvailable,
		OdometerKm: req.OdometerKm,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	invalidateBoard(r, h.board, v.Unit)

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"vehicle_id": v.ID.Hex(),
		"plate":      v.Plate,
		"unit":       v.Unit,
	}).Info("Vehicle registered")
	writeJSON(w, http.StatusCreated, v)
}

// Get returns one vehicle.
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateStatus forces a vehicle status. Leaving in_use clears the current driver.
func (h *VehicleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return
	}
	previous := v.Status
	status, err := validation.ManualStatus(r.Context(), *v, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v.Status = status
	if status != models.StatusInUse {
		v.CurrentDriver = ""
	}

	if err := h.vehicles.UpdateVehicle(r.Context(), vehicleID(r), *v); err != nil {
		writeError(w, r, err)
		return
	}
	invalidateBoard(r, h.board, v.Unit)

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"vehicle_id": vehicleID(r),
		"from":       previous,
		"to":         status,
		"by":         claims.Username,
	}).Info("Vehicle status changed")
	writeJSON(w, http.StatusOK, v)
}

// Delete removes a vehicle. Its records stay for the audit trail.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), vehicleID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	invalidateBoard(r, h.board, v.Unit)

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"vehicle_id": vehicleID(r),
		"plate":      v.Plate,
		"by":         claims.Username,
	}).Info("Vehicle deleted")
	w.WriteHeader(http.StatusNoContent)
}
