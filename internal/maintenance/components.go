package maintenance

import (
	"errors"
	"time"

	"github.com/ukydev/fleet-checkpoint/internal/models"
)

// ErrUnknownComponent is returned when a component key is not in the catalogue.
var ErrUnknownComponent = errors.New("unknown maintenance component")

// Component is a serviceable vehicle part tracked independently.
type Component struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Tire  bool   `json:"-"`
}

// Components is the catalogue of tracked components, in display order.
var Components = []Component{
	{Key: "oil", Label: "Oil"},
	{Key: "revision", Label: "Revision"},
	{Key: "front_tire", Label: "Front tire", Tire: true},
	{Key: "rear_tire", Label: "Rear tire", Tire: true},
	{Key: "front_brake", Label: "Front brake pads"},
	{Key: "rear_brake", Label: "Rear brake pads"},
	{Key: "alignment", Label: "Alignment"},
	{Key: "brake_fluid", Label: "Brake fluid"},
	{Key: "transmission", Label: "Transmission"},
}

// LookupComponent finds a component by key.
func LookupComponent(key string) (Component, bool) {
	for _, c := range Components {
		if c.Key == key {
			return c, true
		}
	}
	return Component{}, false
}

// DefaultIntervalKm is the service interval used when a component has none configured.
func DefaultIntervalKm(category models.Category) int {
	if category == models.CategoryVTR {
		return 10000
	}
	return 3000
}

// TireIntervalKm is the interval applied when a tire change is registered.
func TireIntervalKm(category models.Category) int {
	if category == models.CategoryVTR {
		return 15000
	}
	return 8000
}

func (c Component) defaultInterval(category models.Category) int {
	if c.Tire {
		return TireIntervalKm(category)
	}
	return DefaultIntervalKm(category)
}

// ComponentStatus is the evaluated status of one component of a vehicle.
type ComponentStatus struct {
	Component
	LastServiceKm    int       `json:"last_service_km"`
	IntervalKm       int       `json:"interval_km"`
	AlertThresholdKm int       `json:"alert_threshold_km"`
	ServicedAt       time.Time `json:"serviced_at,omitempty"`
	Status
}

// EvaluateComponent evaluates a single component against the vehicle's current odometer.
func EvaluateComponent(v models.Vehicle, c Component) ComponentStatus {
	sp := v.Service(c.Key)

	interval := sp.IntervalKm
	if interval <= 0 {
		interval = c.defaultInterval(v.Category)
	}
	alert := DefaultAlertThresholdKm
	if sp.AlertKm != nil {
		alert = *sp.AlertKm
	}

	return ComponentStatus{
		Component:        c,
		LastServiceKm:    sp.LastKm,
		IntervalKm:       interval,
		AlertThresholdKm: alert,
		ServicedAt:       sp.ServicedAt,
		Status:           Evaluate(v.OdometerKm, sp.LastKm, interval, alert),
	}
}

// EvaluateVehicle evaluates every catalogued component of a vehicle.
func EvaluateVehicle(v models.Vehicle) []ComponentStatus {
	out := make([]ComponentStatus, 0, len(Components))
	for _, c := range Components {
		out = append(out, EvaluateComponent(v, c))
	}
	return out
}

// Worst returns the most severe classification among statuses, OK if empty.
func Worst(statuses []ComponentStatus) Classification {
	worst := OK
	for _, s := range statuses {
		if s.Classification.Severity() > worst.Severity() {
			worst = s.Classification
		}
	}
	return worst
}

// Attention returns the statuses classified Alert or Due.
func Attention(statuses []ComponentStatus) []ComponentStatus {
	var out []ComponentStatus
	for _, s := range statuses {
		if s.Classification != OK {
			out = append(out, s)
		}
	}
	return out
}

// RecordService stores a new service point on the vehicle.
// A non-positive interval falls back to the tire or category default; a nil
// alert keeps the default threshold. The vehicle odometer only moves forward.
func RecordService(v *models.Vehicle, key string, km, intervalKm int, alertKm *int, at time.Time) error {
	c, ok := LookupComponent(key)
	if !ok {
		return ErrUnknownComponent
	}
	if intervalKm <= 0 {
		intervalKm = c.defaultInterval(v.Category)
	}
	if v.Services == nil {
		v.Services = make(map[string]models.ServicePoint)
	}
	v.Services[key] = models.ServicePoint{
		LastKm:     km,
		IntervalKm: intervalKm,
		AlertKm:    alertKm,
		ServicedAt: at,
	}
	v.ObserveOdometer(km)
	return nil
}
