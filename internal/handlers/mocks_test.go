package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-checkpoint/internal/alerts"
	"github.com/ukydev/fleet-checkpoint/internal/auth"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context, unit string) ([]models.User, error) {
	args := m.Called(ctx, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	return args.Get(0).(models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicles(ctx context.Context, unit string) ([]models.Vehicle, error) {
	args := m.Called(ctx, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// hand out a copy so handlers cannot mutate the fixture between calls
	v := *args.Get(0).(*models.Vehicle)
	return &v, args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	args := m.Called(ctx, id, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRecordCollection is a mock implementation of RecordCollection
type MockRecordCollection struct {
	mock.Mock
}

func (m *MockRecordCollection) InsertRecord(ctx context.Context, record models.CheckRecord) (models.CheckRecord, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(models.CheckRecord), args.Error(1)
}

func (m *MockRecordCollection) FindRecords(ctx context.Context, vehicleID string, order db.Order) ([]models.CheckRecord, error) {
	args := m.Called(ctx, vehicleID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CheckRecord), args.Error(1)
}

func (m *MockRecordCollection) FindUnitRecords(ctx context.Context, unit string, order db.Order) ([]models.CheckRecord, error) {
	args := m.Called(ctx, unit, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CheckRecord), args.Error(1)
}

func (m *MockRecordCollection) FindPendingObservations(ctx context.Context, unit string) ([]models.CheckRecord, error) {
	args := m.Called(ctx, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CheckRecord), args.Error(1)
}

func (m *MockRecordCollection) ResolveRecords(ctx context.Context, ids []string, resolvedBy string) (int64, error) {
	args := m.Called(ctx, ids, resolvedBy)
	return args.Get(0).(int64), args.Error(1)
}

// MockFuelCollection is a mock implementation of FuelCollection
type MockFuelCollection struct {
	mock.Mock
}

func (m *MockFuelCollection) InsertFuel(ctx context.Context, fuel models.FuelRecord) (models.FuelRecord, error) {
	args := m.Called(ctx, fuel)
	return args.Get(0).(models.FuelRecord), args.Error(1)
}

func (m *MockFuelCollection) FindFuel(ctx context.Context, vehicleID string, order db.Order) ([]models.FuelRecord, error) {
	args := m.Called(ctx, vehicleID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FuelRecord), args.Error(1)
}

func (m *MockFuelCollection) LatestFuel(ctx context.Context, vehicleID string) (*models.FuelRecord, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FuelRecord), args.Error(1)
}

// MockMaintenanceCollection is a mock implementation of MaintenanceCollection
type MockMaintenanceCollection struct {
	mock.Mock
}

func (m *MockMaintenanceCollection) InsertMaintenance(ctx context.Context, record models.MaintenanceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) FindMaintenance(ctx context.Context, vehicleID string) ([]models.MaintenanceRecord, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceRecord), args.Error(1)
}

// MockUnitCollection is a mock implementation of UnitCollection
type MockUnitCollection struct {
	mock.Mock
}

func (m *MockUnitCollection) InsertUnit(ctx context.Context, unit models.Unit) (models.Unit, error) {
	args := m.Called(ctx, unit)
	return args.Get(0).(models.Unit), args.Error(1)
}

func (m *MockUnitCollection) FindUnits(ctx context.Context) ([]models.Unit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Unit), args.Error(1)
}

// fakeBoardCache is an in-memory BoardCache.
type fakeBoardCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newFakeBoardCache() *fakeBoardCache {
	return &fakeBoardCache{entries: map[string][]byte{}}
}

func (c *fakeBoardCache) Get(_ context.Context, unit string) ([]byte, error) {
	return c.entries[unit], nil
}

func (c *fakeBoardCache) Set(_ context.Context, unit string, board []byte) error {
	c.entries[unit] = board
	return nil
}

func (c *fakeBoardCache) Invalidate(_ context.Context, unit string) error {
	c.invalidated = append(c.invalidated, unit)
	delete(c.entries, unit)
	delete(c.entries, "")
	return nil
}

// recordingPublisher keeps every published alert.
type recordingPublisher struct {
	alerts []alerts.Alert
}

func (p *recordingPublisher) Publish(_ context.Context, a alerts.Alert) error {
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *recordingPublisher) Close() {}

// fixture is a router wired to mocks.
type fixture struct {
	auth        *auth.Service
	users       *MockUserCollection
	vehicles    *MockVehicleCollection
	records     *MockRecordCollection
	fuel        *MockFuelCollection
	maintenance *MockMaintenanceCollection
	units       *MockUnitCollection
	board       *fakeBoardCache
	publisher   *recordingPublisher
	router      *mux.Router
}

func newFixture(policy usage.Policy) *fixture {
	f := &fixture{
		auth:        auth.NewService("test-secret", time.Hour),
		users:       new(MockUserCollection),
		vehicles:    new(MockVehicleCollection),
		records:     new(MockRecordCollection),
		fuel:        new(MockFuelCollection),
		maintenance: new(MockMaintenanceCollection),
		units:       new(MockUnitCollection),
		board:       newFakeBoardCache(),
		publisher:   &recordingPublisher{},
	}
	f.router = NewRouter(Deps{
		Auth:        f.auth,
		Users:       f.users,
		Vehicles:    f.vehicles,
		Records:     f.records,
		Fuel:        f.fuel,
		Maintenance: f.maintenance,
		Units:       f.units,
		Notifier:    alerts.NewNotifier(f.publisher),
		Board:       f.board,
		Policy:      policy,
	})
	return f
}

func testUser(role models.Role, unit string) *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: string(role) + "-user",
		Name:     "SGT " + string(role),
		Role:     role,
		Unit:     unit,
		IsActive: true,
	}
}

func (f *fixture) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := f.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

// do sends a request through the router, JSON-encoding body when non-nil.
func (f *fixture) do(t *testing.T, user *models.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(t, user))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// withClaims attaches claims the way the Authenticate middleware does.
func withClaims(req *http.Request, claims *models.Claims) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
}

func sampleVehicle(unit string, status models.VehicleStatus, odometer int) *models.Vehicle {
	return &models.Vehicle{
		ID:         primitive.NewObjectID(),
		Plate:      "ABC1D23",
		Model:      "Hilux",
		Category:   models.CategoryVTR,
		Unit:       unit,
		Status:     status,
		OdometerKm: odometer,
	}
}
