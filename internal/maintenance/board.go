package maintenance

import (
	"sort"

	"github.com/ukydev/fleet-checkpoint/internal/models"
)

// BoardEntry is one vehicle line of the fleet maintenance board.
type BoardEntry struct {
	VehicleID  string               `json:"vehicle_id"`
	Plate      string               `json:"plate"`
	Model      string               `json:"model"`
	Category   models.Category      `json:"category"`
	Unit       string               `json:"unit"`
	Status     models.VehicleStatus `json:"status"`
	OdometerKm int                  `json:"odometer_km"`
	Worst      Classification       `json:"worst"`
	Attention  []ComponentStatus    `json:"attention"`
}

// Board evaluates every non-retired vehicle, most urgent first, then by plate.
func Board(vehicles []models.Vehicle) []BoardEntry {
	entries := make([]BoardEntry, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Status == models.StatusRetired {
			continue
		}
		statuses := EvaluateVehicle(v)
		attention := Attention(statuses)
		if attention == nil {
			attention = []ComponentStatus{}
		}
		entries = append(entries, BoardEntry{
			VehicleID:  v.ID.Hex(),
			Plate:      v.Plate,
			Model:      v.Model,
			Category:   v.Category,
			Unit:       v.Unit,
			Status:     v.Status,
			OdometerKm: v.OdometerKm,
			Worst:      Worst(statuses),
			Attention:  attention,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		si, sj := entries[i].Worst.Severity(), entries[j].Worst.Severity()
		if si != sj {
			return si > sj
		}
		return entries[i].Plate < entries[j].Plate
	})
	return entries
}
