// Package maintenance classifies how close each vehicle component is to its next service.
package maintenance

// Classification is the severity of a component's service status.
type Classification string

const (
	OK    Classification = "ok"
	Alert Classification = "alert"
	Due   Classification = "due"
)

// DefaultAlertThresholdKm is used when a component has no alert threshold configured.
const DefaultAlertThresholdKm = 1000

// Severity orders classifications: Due > Alert > OK.
func (c Classification) Severity() int {
	switch c {
	case Due:
		return 2
	case Alert:
		return 1
	default:
		return 0
	}
}

// Status is the result of evaluating one component.
type Status struct {
	DistanceSinceService int            `json:"distance_since_service"`
	DistanceRemaining    int            `json:"distance_remaining"`
	Classification       Classification `json:"classification"`
}

// Evaluate computes the service status of a component.
//
// DistanceSinceService is not clamped: a negative value means the odometer is
// below the last service reading and is left for the caller to flag.
func Evaluate(currentOdometerKm, lastServiceKm, intervalKm, alertThresholdKm int) Status {
	since := currentOdometerKm - lastServiceKm
	remaining := intervalKm - since

	c := OK
	switch {
	case remaining <= 0:
		c = Due
	case remaining <= alertThresholdKm:
		c = Alert
	}

	return Status{
		DistanceSinceService: since,
		DistanceRemaining:    remaining,
		Classification:       c,
	}
}
