package handlers

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

// UnitHandler serves the operating bases.
type UnitHandler struct {
	units db.UnitCollection
}

func NewUnitHandler(units db.UnitCollection) *UnitHandler {
	return &UnitHandler{units: units}
}

// List returns every unit by name.
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	units, err := h.units.FindUnits(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

// Create registers a unit. Names are stored upper case.
func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var req models.UnitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, r, err)
		return
	}

	unit, err := h.units.InsertUnit(r.Context(), models.Unit{
		Name:      strings.ToUpper(strings.TrimSpace(req.Name)),
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"unit": unit.Name,
		"by":   claims.Username,
	}).Info("Unit created")
	writeJSON(w, http.StatusCreated, unit)
}
