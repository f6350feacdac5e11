package usage

// Summary aggregates a vehicle's sessions for the audit report.
type Summary struct {
	Sessions         int            `json:"sessions"`
	Completed        int            `json:"completed"`
	InProgress       int            `json:"in_progress"`
	Abandoned        int            `json:"abandoned"`
	TotalDistance    int            `json:"total_distance"`
	DistanceByDriver map[string]int `json:"distance_by_driver"`
	CurrentDriver    string         `json:"current_driver,omitempty"`
}

// Summarize counts sessions by status and sums completed distance per driver.
// sessions must be ordered most recent first, as returned by Reconstruct.
func Summarize(sessions []Session) Summary {
	s := Summary{
		Sessions:         len(sessions),
		DistanceByDriver: make(map[string]int),
	}
	for i, sess := range sessions {
		switch sess.Status {
		case StatusCompleted:
			s.Completed++
			if sess.Distance != nil {
				s.TotalDistance += *sess.Distance
				s.DistanceByDriver[sess.DriverName] += *sess.Distance
			}
		case StatusInProgress:
			s.InProgress++
			if i == 0 {
				s.CurrentDriver = sess.DriverName
			}
		case StatusAbandoned:
			s.Abandoned++
		}
	}
	return s
}
