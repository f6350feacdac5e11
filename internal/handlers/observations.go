package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

// ObservationHandler serves the notes drivers left on check records.
type ObservationHandler struct {
	records db.RecordCollection
}

func NewObservationHandler(records db.RecordCollection) *ObservationHandler {
	return &ObservationHandler{records: records}
}

// ResolveRequest lists the record ids to mark as resolved.
type ResolveRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=200,dive,required"`
}

// List returns unresolved observations, newest first.
func (h *ObservationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}
	records, err := h.records.FindPendingObservations(r.Context(), scopeUnit(claims, r.URL.Query().Get("unit")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Resolve marks observations as handled by the current user.
func (h *ObservationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req ResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	n, err := h.records.ResolveRecords(r.Context(), req.IDs, claims.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"requested": len(req.IDs),
		"resolved":  n,
		"by":        claims.Username,
	}).Info("Observations resolved")
	writeJSON(w, http.StatusOK, map[string]int64{"resolved": n})
}
