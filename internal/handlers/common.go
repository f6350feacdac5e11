package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/maintenance"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status. Store failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, db.ErrVehicleNotFound), errors.Is(err, db.ErrUserNotFound),
		errors.Is(err, maintenance.ErrUnknownComponent):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, validation.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		middleware.Logger(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		validation.ErrInvalidInput,
		validation.ErrOdometerRegression,
		validation.ErrFuelOdometerRegression,
		validation.ErrNegativeReading,
		validation.ErrDriverRequired,
		validation.ErrReasonRequired,
		validation.ErrVehicleUnavailable,
		validation.ErrInvalidFuelAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// claimsFrom returns the authenticated user, writing 401 when missing.
func claimsFrom(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
	}
	return claims, ok
}

// scopeUnit returns the unit a user may list. Admins pick any unit ("" for all);
// everybody else is pinned to their own.
func scopeUnit(claims *models.Claims, requested string) string {
	if claims.Role.IsAdmin() {
		return requested
	}
	return claims.Unit
}

// canAccess reports whether the user may see a record of the given unit.
func canAccess(claims *models.Claims, unit string) bool {
	return claims.Role.IsAdmin() || claims.Unit == "" || claims.Unit == unit
}
