package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
)

// ErrInvalidTransition is returned when a vehicle cannot move to the requested status.
var ErrInvalidTransition = errors.New("invalid status transition")

var allStatuses = []string{
	string(models.StatusAvailable),
	string(models.StatusInUse),
	string(models.StatusMaintenance),
	string(models.StatusDefective),
	string(models.StatusRetired),
}

// markEvent names the manual event that forces a vehicle into status s.
func markEvent(s models.VehicleStatus) string {
	return "mark_" + string(s)
}

// newLifecycle builds the status machine of one vehicle.
//
// Hand-offs are restricted: a vehicle goes out only when available or
// defective and comes back only when in use. Fleet managers can force any
// status through the mark_* events.
func newLifecycle(current models.VehicleStatus) *fsm.FSM {
	if current == "" {
		current = models.StatusAvailable
	}
	events := fsm.Events{
		{Name: string(usage.CheckOut), Src: []string{string(models.StatusAvailable), string(models.StatusDefective)}, Dst: string(models.StatusInUse)},
		{Name: string(usage.CheckIn), Src: []string{string(models.StatusInUse)}, Dst: string(models.StatusAvailable)},
	}
	for _, s := range allStatuses {
		st := models.VehicleStatus(s)
		events = append(events, fsm.EventDesc{Name: markEvent(st), Src: allStatuses, Dst: s})
	}
	return fsm.NewFSM(string(current), events, fsm.Callbacks{})
}

// HandOffStatus returns the status a vehicle ends in after a check-out or a check-in.
func HandOffStatus(ctx context.Context, v models.Vehicle, kind usage.Kind) (models.VehicleStatus, error) {
	return fire(ctx, v.Status, string(kind))
}

// ManualStatus validates a status forced by a fleet manager.
func ManualStatus(ctx context.Context, v models.Vehicle, target models.VehicleStatus) (models.VehicleStatus, error) {
	if !models.IsValidVehicleStatus(target) {
		return v.Status, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, target)
	}
	return fire(ctx, v.Status, markEvent(target))
}

func fire(ctx context.Context, current models.VehicleStatus, event string) (models.VehicleStatus, error) {
	machine := newLifecycle(current)
	err := machine.Event(ctx, event)
	var noop fsm.NoTransitionError
	if err != nil && !errors.As(err, &noop) {
		return current, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, machine.Current())
	}
	return models.VehicleStatus(machine.Current()), nil
}
