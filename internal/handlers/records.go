package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/alerts"
	"github.com/ukydev/fleet-checkpoint/internal/cache"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/metrics"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/report"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

// defaultReturnReason is stored on a check-in when neither the driver nor the
// matching check-out gave a reason.
const defaultReturnReason = "return"

// RecordHandler serves check-out/check-in records and the sessions built from them.
type RecordHandler struct {
	vehicles db.VehicleCollection
	records  db.RecordCollection
	notifier *alerts.Notifier
	board    cache.BoardCache
	policy   usage.Policy
	now      func() time.Time
}

func NewRecordHandler(vehicles db.VehicleCollection, records db.RecordCollection, notifier *alerts.Notifier, board cache.BoardCache, policy usage.Policy) *RecordHandler {
	if notifier == nil {
		notifier = alerts.NewNotifier(nil)
	}
	if board == nil {
		board = cache.NopBoardCache{}
	}
	return &RecordHandler{
		vehicles: vehicles,
		records:  records,
		notifier: notifier,
		board:    board,
		policy:   policy,
		now:      time.Now,
	}
}

// CheckResponse is returned after a hand-off was stored.
type CheckResponse struct {
	Record  models.CheckRecord `json:"record"`
	Vehicle models.Vehicle     `json:"vehicle"`
}

// List returns the records of a vehicle, newest first.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	if _, ok := loadVehicle(w, r, h.vehicles, claims); !ok {
		return
	}
	records, err := h.records.FindRecords(r.Context(), vehicleID(r), db.Order{Field: "timestamp", Descending: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Create stores the next hand-off of a vehicle. Whether it is a check-out or a
// check-in follows from the vehicle status.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.CheckRecordRequest
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
	if err := validation.CheckAvailability(*v); err != nil {
		writeError(w, r, err)
		return
	}

	kind := validation.NextKind(*v)
	driver := strings.ToUpper(strings.TrimSpace(req.DriverName))
	if driver == "" && kind == usage.CheckIn {
		driver = v.CurrentDriver
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" && kind == usage.CheckIn {
		reason = h.lastReason(r)
	}

	if err := validation.CheckUsage(kind, driver, reason); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.CheckOdometer(*v, req.KmReading); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := validation.HandOffStatus(r.Context(), *v, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.records.InsertRecord(r.Context(), models.CheckRecord{
		VehicleID:      vehicleID(r),
		DriverName:     driver,
		RecordedByName: claims.Name,
		KmReading:      req.KmReading,
		Type:           models.RecordType(kind),
		Timestamp:      h.now(),
		Photos:         req.Photos,
		Notes:          strings.TrimSpace(req.Notes),
		Reason:         reason,
		Unit:           v.Unit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	v.Status = status
	if kind == usage.CheckOut {
		v.CurrentDriver = driver
	} else {
		v.CurrentDriver = ""
	}
	v.ObserveOdometer(req.KmReading)
	if err := h.vehicles.UpdateVehicle(r.Context(), vehicleID(r), *v); err != nil {
		writeError(w, r, fmt.Errorf("record %s stored but vehicle not updated: %w", record.ID.Hex(), err))
		return
	}
	invalidateBoard(r, h.board, v.Unit)

	if kind == usage.CheckIn {
		h.notifier.Notify(r.Context(), *v)
	}

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"vehicle_id": vehicleID(r),
		"type":       kind,
		"driver":     driver,
		"km":         req.KmReading,
		"status":     status,
	}).Info("Vehicle hand-off recorded")

	writeJSON(w, http.StatusCreated, CheckResponse{Record: record, Vehicle: *v})
}

// lastReason returns the reason of the latest record, which for a vehicle in
// use is its check-out.
func (h *RecordHandler) lastReason(r *http.Request) string {
	records, err := h.records.FindRecords(r.Context(), vehicleID(r), db.Order{Field: "timestamp", Descending: true})
	if err != nil {
		middleware.Logger(r.Context()).WithError(err).Warn("Failed to read last check-out reason")
		return defaultReturnReason
	}
	if len(records) > 0 && records[0].Reason != "" {
		return records[0].Reason
	}
	return defaultReturnReason
}

// SessionsResponse is the usage audit of a vehicle.
type SessionsResponse struct {
	VehicleID string          `json:"vehicle_id"`
	Policy    string          `json:"policy"`
	Sessions  []usage.Session `json:"sessions"`
	Summary   usage.Summary   `json:"summary"`
}

// policyFor lets ?policy=keep|discard override the configured orphan policy.
func (h *RecordHandler) policyFor(r *http.Request) usage.Policy {
	if p := r.URL.Query().Get("policy"); p != "" {
		return usage.ParsePolicy(p)
	}
	return h.policy
}

func (h *RecordHandler) reconstruct(w http.ResponseWriter, r *http.Request) (*models.Vehicle, []usage.Session, usage.Policy, bool) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return nil, nil, 0, false
	}
	v, ok := loadVehicle(w, r, h.vehicles, claims)
	if !ok {
		return nil, nil, 0, false
	}
	records, err := h.records.FindRecords(r.Context(), vehicleID(r), db.Order{Field: "timestamp"})
	if err != nil {
		writeError(w, r, err)
		return nil, nil, 0, false
	}

	policy := h.policyFor(r)
	sessions := usage.ReconstructWith(usage.EventsFromRecords(records), policy)
	for _, s := range sessions {
		metrics.SessionsReconstructed.WithLabelValues(string(s.Status)).Inc()
	}
	return v, sessions, policy, true
}

// Sessions pairs the vehicle's records into usage sessions, most recent first.
func (h *RecordHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	_, sessions, policy, ok := h.reconstruct(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SessionsResponse{
		VehicleID: vehicleID(r),
		Policy:    policy.String(),
		Sessions:  sessions,
		Summary:   usage.Summarize(sessions),
	})
}

// VehicleSessions is the usage audit of one vehicle inside a fleet listing.
type VehicleSessions struct {
	VehicleID string          `json:"vehicle_id"`
	Sessions  []usage.Session `json:"sessions"`
	Summary   usage.Summary   `json:"summary"`
}

// FleetSessionsResponse groups the sessions of a unit's vehicles.
type FleetSessionsResponse struct {
	Unit     string            `json:"unit,omitempty"`
	Policy   string            `json:"policy"`
	Vehicles []VehicleSessions `json:"vehicles"`
}

// FleetSessions reconstructs the sessions of every vehicle of the caller's
// unit, ordered by vehicle id. Admins may pass ?unit= or omit it for the whole fleet.
func (h *RecordHandler) FleetSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	unit := scopeUnit(claims, r.URL.Query().Get("unit"))
	records, err := h.records.FindUnitRecords(r.Context(), unit, db.Order{Field: "timestamp"})
	if err != nil {
		writeError(w, r, err)
		return
	}

	policy := h.policyFor(r)
	fleet := usage.ReconstructFleet(usage.EventsFromRecords(records), policy)
	ids := make([]string, 0, len(fleet))
	for id := range fleet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resp := FleetSessionsResponse{Unit: unit, Policy: policy.String(), Vehicles: make([]VehicleSessions, 0, len(ids))}
	for _, id := range ids {
		sessions := fleet[id]
		for _, s := range sessions {
			metrics.SessionsReconstructed.WithLabelValues(string(s.Status)).Inc()
		}
		resp.Vehicles = append(resp.Vehicles, VehicleSessions{VehicleID: id, Sessions: sessions, Summary: usage.Summarize(sessions)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportSessions returns the vehicle's sessions as an XLSX workbook.
func (h *RecordHandler) ExportSessions(w http.ResponseWriter, r *http.Request) {
	v, sessions, _, ok := h.reconstruct(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteSessions(&buf, *v, sessions); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sessions-%s.xlsx"`, v.Plate))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
