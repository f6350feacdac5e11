// Package report renders usage and maintenance data as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ukydev/fleet-checkpoint/internal/maintenance"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sessionsSheet = "Sessions"
	driversSheet  = "Drivers"
	boardSheet    = "Maintenance"
	timeLayout    = "2006-01-02 15:04"
)

// WriteSessions writes the usage audit of one vehicle.
func WriteSessions(w io.Writer, v models.Vehicle, sessions []usage.Session) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, sessionsSheet, []interface{}{
		"Driver", "Status", "Started", "Start km", "Ended", "End km", "Distance", "Reason", "Notes",
	}); err != nil {
		return err
	}
	for i, s := range sessions {
		row := []interface{}{
			s.DriverName, string(s.Status), s.StartedAt.Format(timeLayout), s.StartKm,
			optionalTime(s.EndedAt), optionalInt(s.EndKm), optionalInt(s.Distance),
			s.Reason, joinNotes(s.StartNotes, s.EndNotes),
		}
		if err := setRow(f, sessionsSheet, i+2, row); err != nil {
			return err
		}
	}

	summary := usage.Summarize(sessions)
	if err := newSheet(f, driversSheet, []interface{}{"Driver", "Distance"}); err != nil {
		return err
	}
	drivers := make([]string, 0, len(summary.DistanceByDriver))
	for d := range summary.DistanceByDriver {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	for i, d := range drivers {
		if err := setRow(f, driversSheet, i+2, []interface{}{d, summary.DistanceByDriver[d]}); err != nil {
			return err
		}
	}
	footer := []interface{}{fmt.Sprintf("Total %s", v.Plate), summary.TotalDistance}
	if err := setRow(f, driversSheet, len(drivers)+3, footer); err != nil {
		return err
	}

	return finish(f, w, sessionsSheet)
}

// WriteBoard writes the fleet maintenance board, one row per component needing attention.
func WriteBoard(w io.Writer, board []maintenance.BoardEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := newSheet(f, boardSheet, []interface{}{
		"Plate", "Model", "Unit", "Odometer", "Component", "Last service km", "Interval", "Remaining", "Classification",
	}); err != nil {
		return err
	}
	row := 2
	for _, e := range board {
		if len(e.Attention) == 0 {
			if err := setRow(f, boardSheet, row, []interface{}{e.Plate, e.Model, e.Unit, e.OdometerKm, "", "", "", "", string(e.Worst)}); err != nil {
				return err
			}
			row++
			continue
		}
		for _, c := range e.Attention {
			values := []interface{}{
				e.Plate, e.Model, e.Unit, e.OdometerKm, c.Label,
				c.LastServiceKm, c.IntervalKm, c.DistanceRemaining, string(c.Classification),
			}
			if err := setRow(f, boardSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}

	return finish(f, w, boardSheet)
}

func newSheet(f *excelize.File, name string, headers []interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := setRow(f, name, 1, headers); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		_ = f.SetRowStyle(name, 1, 1, style)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(name, "A", last, 16)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func finish(f *excelize.File, w io.Writer, active string) error {
	if idx, err := f.GetSheetIndex(active); err == nil {
		f.SetActiveSheet(idx)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.Write(w)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

func optionalInt(n *int) interface{} {
	if n == nil {
		return ""
	}
	return *n
}

func joinNotes(start, end string) string {
	switch {
	case start == "":
		return end
	case end == "":
		return start
	default:
		return start + " / " + end
	}
}
