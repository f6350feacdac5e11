package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/fleet-checkpoint/internal/alerts"
	"github.com/ukydev/fleet-checkpoint/internal/auth"
	"github.com/ukydev/fleet-checkpoint/internal/cache"
	"github.com/ukydev/fleet-checkpoint/internal/config"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
)

// Deps are the collaborators the API routes are built from.
type Deps struct {
	Auth        *auth.Service
	Users       db.UserCollection
	Vehicles    db.VehicleCollection
	Records     db.RecordCollection
	Fuel        db.FuelCollection
	Maintenance db.MaintenanceCollection
	Units       db.UnitCollection
	Notifier    *alerts.Notifier
	Board       cache.BoardCache
	Policy      usage.Policy
	RateLimit   config.RateLimitConfig
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) *mux.Router {
	authMW := middleware.NewAuthMiddleware(d.Auth)
	admin := func(h http.HandlerFunc) http.Handler { return authMW.RequireAdmin(h) }
	can := func(p models.Permission, h http.HandlerFunc) http.Handler { return authMW.RequirePermission(p)(h) }

	authH := NewAuthHandler(d.Auth, d.Users)
	vehicleH := NewVehicleHandler(d.Vehicles, d.Board)
	recordH := NewRecordHandler(d.Vehicles, d.Records, d.Notifier, d.Board, d.Policy)
	maintH := NewMaintenanceHandler(d.Vehicles, d.Maintenance, d.Notifier, d.Board)
	fuelH := NewFuelHandler(d.Vehicles, d.Fuel)
	obsH := NewObservationHandler(d.Records)
	unitH := NewUnitHandler(d.Units)

	r := mux.NewRouter()
	r.Use(middleware.Recover, middleware.RequestID, middleware.Observe)
	if d.RateLimit.Requests > 0 {
		r.Use(middleware.NewRateLimiter(d.RateLimit).Handler)
	}
	r.Use(authMW.Authenticate)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", authH.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/profile", authH.GetProfile).Methods(http.MethodGet)
	api.Handle("/users", can(models.PermManageUsers, authH.Register)).Methods(http.MethodPost)
	api.Handle("/users", can(models.PermManageUsers, authH.ListUsers)).Methods(http.MethodGet)

	api.Handle("/units", admin(unitH.List)).Methods(http.MethodGet)
	api.Handle("/units", admin(unitH.Create)).Methods(http.MethodPost)

	api.HandleFunc("/vehicles", vehicleH.List).Methods(http.MethodGet)
	api.Handle("/vehicles", admin(vehicleH.Create)).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", vehicleH.Get).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}", admin(vehicleH.Delete)).Methods(http.MethodDelete)
	api.Handle("/vehicles/{id}/status", admin(vehicleH.UpdateStatus)).Methods(http.MethodPut)

	api.HandleFunc("/vehicles/{id}/records", recordH.List).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/records", can(models.PermCheckVehicle, recordH.Create)).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/sessions", recordH.Sessions).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/sessions/export", can(models.PermViewReports, recordH.ExportSessions)).Methods(http.MethodGet)
	api.Handle("/sessions", can(models.PermViewReports, recordH.FleetSessions)).Methods(http.MethodGet)

	api.HandleFunc("/vehicles/{id}/maintenance", maintH.Status).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}/maintenance/history", maintH.History).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/maintenance/{component}", can(models.PermRecordMaintenance, maintH.RecordService)).Methods(http.MethodPost)
	api.Handle("/maintenance", admin(maintH.Board)).Methods(http.MethodGet)
	api.Handle("/maintenance/export", admin(maintH.ExportBoard)).Methods(http.MethodGet)

	api.Handle("/vehicles/{id}/fuel", can(models.PermViewFuel, fuelH.List)).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/fuel", can(models.PermCreateFuel, fuelH.Create)).Methods(http.MethodPost)

	api.Handle("/observations", admin(obsH.List)).Methods(http.MethodGet)
	api.Handle("/observations/resolve", admin(obsH.Resolve)).Methods(http.MethodPost)

	return r
}
