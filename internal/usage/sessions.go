// Package usage rebuilds vehicle usage sessions from the check-out/check-in log.
//
// Sessions are derived on every read and never stored. All functions here are
// pure: they copy their input and hold no state, so they are safe to call from
// any number of goroutines.
package usage

import (
	"sort"
	"time"

	"github.com/ukydev/fleet-checkpoint/internal/models"
)

// Kind tags an event as the start or the end of a session.
type Kind string

const (
	CheckOut Kind = "check_out"
	CheckIn  Kind = "check_in"
)

// Status of a reconstructed session.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusAbandoned  Status = "abandoned" // only produced by PolicyKeepAbandoned
)

// Policy decides what happens to an open session when another check-out arrives.
type Policy int

const (
	// PolicyDiscard drops the open session; the later check-out replaces it.
	PolicyDiscard Policy = iota
	// PolicyKeepAbandoned emits the open session as StatusAbandoned before opening the new one.
	PolicyKeepAbandoned
)

// ParsePolicy maps a config value to a Policy. Unknown values fall back to PolicyDiscard.
func ParsePolicy(s string) Policy {
	if s == "keep" {
		return PolicyKeepAbandoned
	}
	return PolicyDiscard
}

func (p Policy) String() string {
	if p == PolicyKeepAbandoned {
		return "keep"
	}
	return "discard"
}

// Event is one odometer reading tied to a vehicle hand-off.
type Event struct {
	VehicleID  string
	DriverName string
	KmReading  int
	Kind       Kind
	Timestamp  time.Time
	Reason     string
	Notes      string
}

// Session is one continuous use of a vehicle by a driver.
type Session struct {
	DriverName string     `json:"driver_name"`
	StartedAt  time.Time  `json:"started_at"`
	StartKm    int        `json:"start_km"`
	Reason     string     `json:"reason,omitempty"`
	StartNotes string     `json:"start_notes,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	EndKm      *int       `json:"end_km,omitempty"`
	EndNotes   string     `json:"end_notes,omitempty"`
	Distance   *int       `json:"distance,omitempty"`
	Status     Status     `json:"status"`
}

// EventFromRecord maps a persisted check record onto a usage event. It
// reports false for records whose type is neither check-out nor check-in.
func EventFromRecord(r models.CheckRecord) (Event, bool) {
	var kind Kind
	switch r.Type {
	case models.RecordCheckOut:
		kind = CheckOut
	case models.RecordCheckIn:
		kind = CheckIn
	default:
		return Event{}, false
	}
	return Event{
		VehicleID:  r.VehicleID,
		DriverName: r.DriverName,
		KmReading:  r.KmReading,
		Kind:       kind,
		Timestamp:  r.Timestamp,
		Reason:     r.Reason,
		Notes:      r.Notes,
	}, true
}

// EventsFromRecords maps a slice of check records, skipping untyped ones.
func EventsFromRecords(records []models.CheckRecord) []Event {
	events := make([]Event, 0, len(records))
	for _, r := range records {
		if ev, ok := EventFromRecord(r); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Reconstruct pairs the events of a single vehicle into sessions using PolicyDiscard.
// The result is ordered most recent first.
func Reconstruct(events []Event) []Session {
	return ReconstructWith(events, PolicyDiscard)
}

// ReconstructWith pairs the events of a single vehicle into sessions.
//
// Events are stable-sorted by timestamp. A check-in without an open session is
// ignored. A check-out while a session is open is handled by policy. A session
// still open at the end is reported as in progress.
func ReconstructWith(events []Event, policy Policy) []Session {
	if len(events) == 0 {
		return []Session{}
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	result := make([]Session, 0, len(sorted)/2+1)
	var open *Session

	for _, ev := range sorted {
		switch ev.Kind {
		case CheckOut:
			if open != nil && policy == PolicyKeepAbandoned {
				open.Status = StatusAbandoned
				result = append(result, *open)
			}
			open = &Session{
				DriverName: ev.DriverName,
				StartedAt:  ev.Timestamp,
				StartKm:    ev.KmReading,
				Reason:     ev.Reason,
				StartNotes: ev.Notes,
				Status:     StatusInProgress,
			}
		case CheckIn:
			if open == nil {
				continue
			}
			endedAt := ev.Timestamp
			endKm := ev.KmReading
			distance := endKm - open.StartKm
			if distance < 0 {
				distance = 0
			}
			open.EndedAt = &endedAt
			open.EndKm = &endKm
			open.EndNotes = ev.Notes
			open.Distance = &distance
			open.Status = StatusCompleted
			result = append(result, *open)
			open = nil
		}
	}

	if open != nil {
		result = append(result, *open)
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// ReconstructFleet groups events by vehicle and reconstructs each group.
func ReconstructFleet(events []Event, policy Policy) map[string][]Session {
	byVehicle := make(map[string][]Event)
	for _, ev := range events {
		byVehicle[ev.VehicleID] = append(byVehicle[ev.VehicleID], ev)
	}

	out := make(map[string][]Session, len(byVehicle))
	for id, evs := range byVehicle {
		out[id] = ReconstructWith(evs, policy)
	}
	return out
}
