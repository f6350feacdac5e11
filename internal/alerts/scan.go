package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/metrics"
	"github.com/ukydev/fleet-checkpoint/internal/models"
)

// VehicleLister is the part of the vehicle store the scanner reads.
type VehicleLister interface {
	FindVehicles(ctx context.Context, unit string) ([]models.Vehicle, error)
}

// ScanResult summarizes one fleet scan.
type ScanResult struct {
	Vehicles int
	Alerted  int
	Skipped  int // retired vehicles
}

// Scanner periodically evaluates the whole fleet and publishes alerts.
type Scanner struct {
	vehicles VehicleLister
	notifier *Notifier
	cron     *cron.Cron
	timeout  time.Duration
}

// NewScanner creates a scanner. The cron spec takes a leading seconds field.
func NewScanner(vehicles VehicleLister, notifier *Notifier) *Scanner {
	return &Scanner{
		vehicles: vehicles,
		notifier: notifier,
		cron:     cron.New(cron.WithSeconds()),
		timeout:  time.Minute,
	}
}

// Start schedules the scan and starts the cron scheduler.
func (s *Scanner) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.Scan(ctx); err != nil {
			log.WithError(err).Error("Fleet maintenance scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule fleet scan %q: %w", schedule, err)
	}
	s.cron.Start()
	log.WithField("schedule", schedule).Info("Fleet maintenance scan scheduled")
	return nil
}

// Stop stops the scheduler and waits for a running scan to finish.
func (s *Scanner) Stop() {
	<-s.cron.Stop().Done()
}

// Scan evaluates every vehicle once.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	start := time.Now()
	defer func() { metrics.FleetScanDuration.Observe(time.Since(start).Seconds()) }()

	vehicles, err := s.vehicles.FindVehicles(ctx, "")
	if err != nil {
		return ScanResult{}, fmt.Errorf("list vehicles: %w", err)
	}

	var res ScanResult
	for _, v := range vehicles {
		if v.Status == models.StatusRetired {
			res.Skipped++
			continue
		}
		res.Vehicles++
		if s.notifier.Notify(ctx, v) {
			res.Alerted++
		}
	}

	log.WithFields(log.Fields{
		"vehicles": res.Vehicles,
		"alerted":  res.Alerted,
		"skipped":  res.Skipped,
		"took":     time.Since(start).String(),
	}).Info("Fleet maintenance scan finished")
	return res, nil
}
