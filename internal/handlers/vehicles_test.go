package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVehicleHandler_List(t *testing.T) {
	tests := []struct {
		name  string
		user  *models.User
		query string
		unit  string
	}{
		{name: "operational pinned to own unit", user: testUser(models.RoleOperational, "1BPM"), query: "?unit=2BPM", unit: "1BPM"},
		{name: "admin picks the unit", user: testUser(models.RoleAdmin, "1BPM"), query: "?unit=2BPM", unit: "2BPM"},
		{name: "admin lists every unit", user: testUser(models.RoleAdmin, "1BPM"), unit: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(usage.PolicyDiscard)
			f.vehicles.On("FindVehicles", mock.Anything, tt.unit).Return([]models.Vehicle{*sampleVehicle(tt.unit, models.StatusAvailable, 0)}, nil)

			w := f.do(t, tt.user, http.MethodGet, "/api/vehicles"+tt.query, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			f.vehicles.AssertExpectations(t)
		})
	}
}

func TestVehicleHandler_Create(t *testing.T) {
	t.Run("admin registers in own unit", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		f.vehicles.On("InsertVehicle", mock.Anything, mock.MatchedBy(func(v models.Vehicle) bool {
			return v.Unit == "1BPM" && v.Status == models.StatusAvailable && v.OdometerKm == 42000
		})).Return(models.Vehicle{ID: primitive.NewObjectID(), Plate: "ABC1D23", Unit: "1BPM"}, nil)

		w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodPost, "/api/vehicles", models.VehicleRequest{
			Plate:      "abc1d23",
			Model:      "Hilux",
			Category:   models.CategoryVTR,
			Unit:       "2BPM",
			OdometerKm: 42000,
		})

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, []string{"1BPM"}, f.board.invalidated)
		f.vehicles.AssertExpectations(t)
	})

	t.Run("missing plate", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodPost, "/api/vehicles", models.VehicleRequest{Model: "Hilux", Category: models.CategoryVTR})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "plate")
	})

	t.Run("unknown category", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodPost, "/api/vehicles", models.VehicleRequest{Plate: "X", Model: "Hilux", Category: "BUS"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("operational forbidden", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		w := f.do(t, testUser(models.RoleOperational, "1BPM"), http.MethodPost, "/api/vehicles", models.VehicleRequest{Plate: "X", Model: "Hilux", Category: models.CategoryVTR})
		assert.Equal(t, http.StatusForbidden, w.Code)
		f.vehicles.AssertNotCalled(t, "InsertVehicle", mock.Anything, mock.Anything)
	})
}

func TestVehicleHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		v := sampleVehicle("1BPM", models.StatusAvailable, 10)
		f.vehicles.On("FindVehicleByID", mock.Anything, v.ID.Hex()).Return(v, nil)

		w := f.do(t, testUser(models.RoleOperational, "1BPM"), http.MethodGet, "/api/vehicles/"+v.ID.Hex(), nil)

		require.Equal(t, http.StatusOK, w.Code)
		var got models.Vehicle
		decodeBody(t, w, &got)
		assert.Equal(t, v.Plate, got.Plate)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		id := primitive.NewObjectID().Hex()
		f.vehicles.On("FindVehicleByID", mock.Anything, id).Return(nil, db.ErrVehicleNotFound)

		w := f.do(t, testUser(models.RoleOperational, "1BPM"), http.MethodGet, "/api/vehicles/"+id, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		id := primitive.NewObjectID().Hex()
		f.vehicles.On("FindVehicleByID", mock.Anything, id).Return(nil, assert.AnError)

		w := f.do(t, testUser(models.RoleOperational, "1BPM"), http.MethodGet, "/api/vehicles/"+id, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestVehicleHandler_UpdateStatus(t *testing.T) {
	t.Run("leaving in_use clears the driver", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		v := sampleVehicle("1BPM", models.StatusInUse, 10)
		v.CurrentDriver = "CB SOUZA"
		id := v.ID.Hex()
		f.vehicles.On("FindVehicleByID", mock.Anything, id).Return(v, nil)
		f.vehicles.On("UpdateVehicle", mock.Anything, id, mock.MatchedBy(func(u models.Vehicle) bool {
			return u.Status == models.StatusMaintenance && u.CurrentDriver == ""
		})).Return(nil)

		w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodPut, "/api/vehicles/"+id+"/status", models.StatusRequest{Status: models.StatusMaintenance})

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		f.vehicles.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		v := sampleVehicle("1BPM", models.StatusAvailable, 10)
		f.vehicles.On("FindVehicleByID", mock.Anything, v.ID.Hex()).Return(v, nil)

		w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodPut, "/api/vehicles/"+v.ID.Hex()+"/status", models.StatusRequest{Status: "flying"})

		assert.Equal(t, http.StatusConflict, w.Code)
		f.vehicles.AssertNotCalled(t, "UpdateVehicle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing status", func(t *testing.T) {
		f := newFixture(usage.PolicyDiscard)
		w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodPut, "/api/vehicles/"+primitive.NewObjectID().Hex()+"/status", map[string]string{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestVehicleHandler_Delete(t *testing.T) {
	f := newFixture(usage.PolicyDiscard)
	v := sampleVehicle("1BPM", models.StatusRetired, 10)
	id := v.ID.Hex()
	f.vehicles.On("FindVehicleByID", mock.Anything, id).Return(v, nil)
	f.vehicles.On("DeleteVehicle", mock.Anything, id).Return(nil)

	w := f.do(t, testUser(models.RoleAdmin, "1BPM"), http.MethodDelete, "/api/vehicles/"+id, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"1BPM"}, f.board.invalidated)
	f.vehicles.AssertExpectations(t)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	f := newFixture(usage.PolicyDiscard)
	w := f.do(t, nil, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MetricsIsPublic(t *testing.T) {
	f := newFixture(usage.PolicyDiscard)
	w := f.do(t, nil, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fleet_")
}
