package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/alerts"
	"github.com/ukydev/fleet-checkpoint/internal/cache"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/maintenance"
	"github.com/ukydev/fleet-checkpoint/internal/metrics"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/report"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

// MaintenanceHandler serves component statuses, service registration and the fleet board.
type MaintenanceHandler struct {
	vehicles db.VehicleCollection
	history  db.MaintenanceCollection
	notifier *alerts.Notifier
	board    cache.BoardCache
	now      func() time.Time
}

func NewMaintenanceHandler(vehicles db.VehicleCollection, history db.MaintenanceCollection, notifier *alerts.Notifier, board cache.BoardCache) *MaintenanceHandler {
	if notifier == nil {
		notifier = alerts.NewNotifier(nil)
	}
	if board == nil {
		board = cache.NopBoardCache{}
	}
	return &MaintenanceHandler{vehicles: vehicles, history: history, notifier: notifier, board: board, now: time.Now}
}

// StatusResponse lists every component of a vehicle with the worst classification.
type StatusResponse struct {
	VehicleID  string                        `json:"vehicle_id"`
	OdometerKm int                           `json:"odometer_km"`
	Worst      maintenance.Classification    `json:"worst"`
	Components []maintenance.ComponentStatus `json:"components"`
}

func statusOf(id string, v models.Vehicle) StatusResponse {
	statuses := maintenance.EvaluateVehicle(v)
	for _, s := range statuses {
		metrics.MaintenanceEvaluations.WithLabelValues(string(s.Classification)).Inc()
	}
	return StatusResponse{
		VehicleID:  id,
		OdometerKm: v.OdometerKm,
		Worst:      maintenance.Worst(statuses),
		Components: statuses,
	}
}

// Status evaluates every component of a vehicle.
func (h *MaintenanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusOf(vehicleID(r), *v))
}

// RecordService registers a service of one component. A zero km means the
// current odometer; a zero date means now.
func (h *MaintenanceHandler) RecordService(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.ServiceRequest
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

	component := mux.Vars(r)["component"]
	km := req.Km
	if km == 0 {
		km = v.OdometerKm
	}
	at := req.ServicedAt
	if at.IsZero() {
		at = h.now()
	}

	if err := maintenance.RecordService(v, component, km, req.IntervalKm, req.AlertKm, at); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.vehicles.UpdateVehicle(r.Context(), vehicleID(r), *v); err != nil {
		writeError(w, r, err)
		return
	}

	sp := v.Service(component)
	entry := models.MaintenanceRecord{
		VehicleID:  vehicleID(r),
		Component:  component,
		Km:         sp.LastKm,
		IntervalKm: sp.IntervalKm,
		AlertKm:    maintenance.DefaultAlertThresholdKm,
		ServicedAt: at,
		RecordedBy: claims.Name,
		Unit:       v.Unit,
		Notes:      req.Notes,
		CreatedAt:  h.now(),
	}
	if sp.AlertKm != nil {
		entry.AlertKm = *sp.AlertKm
	}
	// The vehicle already carries the service point; the log entry is history only.
	if err := h.history.InsertMaintenance(r.Context(), entry); err != nil {
		middleware.Logger(r.Context()).WithError(err).WithField("vehicle_id", vehicleID(r)).Warn("Failed to append maintenance log")
	}

	invalidateBoard(r, h.board, v.Unit)
	h.notifier.Notify(r.Context(), *v)

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"vehicle_id":  vehicleID(r),
		"component":   component,
		"km":          sp.LastKm,
		"interval_km": sp.IntervalKm,
		"by":          claims.Username,
	}).Info("Component service recorded")

	writeJSON(w, http.StatusCreated, statusOf(vehicleID(r), *v))
}

// History returns the service log of a vehicle, newest first.
func (h *MaintenanceHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	if _, ok := loadVehicle(w, r, h.vehicles, claims); !ok {
		return
	}
	entries, err := h.history.FindMaintenance(r.Context(), vehicleID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// boardFor returns the encoded maintenance board of a unit, from cache when possible.
func (h *MaintenanceHandler) boardFor(r *http.Request, unit string) ([]byte, error) {
	cached, err := h.board.Get(r.Context(), unit)
	if err != nil {
		metrics.BoardCacheLookups.WithLabelValues("error").Inc()
		middleware.Logger(r.Context()).WithError(err).Warn("Maintenance board cache read failed")
	}
	if cached != nil {
		metrics.BoardCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	if err == nil {
		metrics.BoardCacheLookups.WithLabelValues("miss").Inc()
	}

	vehicles, err := h.vehicles.FindVehicles(r.Context(), unit)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(maintenance.Board(vehicles))
	if err != nil {
		return nil, err
	}
	if err := h.board.Set(r.Context(), unit, data); err != nil {
		middleware.Logger(r.Context()).WithError(err).Warn("Maintenance board cache write failed")
	}
	return data, nil
}

// Board returns the fleet maintenance board, most urgent vehicles first.
func (h *MaintenanceHandler) Board(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	data, err := h.boardFor(r, scopeUnit(claims, r.URL.Query().Get("unit")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ExportBoard returns the fleet maintenance board as an XLSX workbook.
func (h *MaintenanceHandler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	vehicles, err := h.vehicles.FindVehicles(r.Context(), scopeUnit(claims, r.URL.Query().Get("unit")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteBoard(&buf, maintenance.Board(vehicles)); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="maintenance-board.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
