package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
)

var drivers = []string{"CB SOUZA", "SD LIMA", "SGT ALVES", "CB PEREIRA", "SD COSTA", "SGT ROCHA"}

var reasons = []string{"patrol", "escort", "court summons", "prisoner transfer", "community policing", "workshop"}

var observations = []string{"", "", "", "", "tire pressure low", "dashboard warning light", "scratch on the rear bumper"}

// apiClient calls the fleet API with an optional bearer token.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) listVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := c.do(ctx, http.MethodGet, "/vehicles", nil, &vehicles)
	return vehicles, err
}

type checkResponse struct {
	Record  models.CheckRecord `json:"record"`
	Vehicle models.Vehicle     `json:"vehicle"`
}

// shift plays the hand-offs of one vehicle.
type shift struct {
	api     *apiClient
	vehicle models.Vehicle
	rng     *rand.Rand
	balance float64
}

func newShift(api *apiClient, v models.Vehicle, seed int64) *shift {
	return &shift{api: api, vehicle: v, rng: rand.New(rand.NewSource(seed)), balance: 1500}
}

func (s *shift) pick(options []string) string {
	return options[s.rng.Intn(len(options))]
}

// step submits the vehicle's next record: a check-out when it is parked, a
// check-in after a trip otherwise. Some check-ins are followed by a refueling.
func (s *shift) step(ctx context.Context) error {
	id := s.vehicle.ID.Hex()
	kind := validation.NextKind(s.vehicle)

	req := models.CheckRecordRequest{KmReading: s.vehicle.OdometerKm}
	if kind == usage.CheckOut {
		req.DriverName = s.pick(drivers)
		req.Reason = s.pick(reasons)
	} else {
		req.KmReading += 5 + s.rng.Intn(150)
		req.Notes = s.pick(observations)
	}

	var resp checkResponse
	if err := s.api.do(ctx, http.MethodPost, "/vehicles/"+id+"/records", req, &resp); err != nil {
		return err
	}
	s.vehicle = resp.Vehicle

	log.WithFields(log.Fields{
		"vehicle_id": id,
		"plate":      s.vehicle.Plate,
		"type":       kind,
		"driver":     resp.Record.DriverName,
		"km":         req.KmReading,
	}).Info("Submitted hand-off")

	if kind == usage.CheckIn && s.rng.Intn(4) == 0 {
		return s.refuel(ctx, resp.Record.DriverName)
	}
	return nil
}

func (s *shift) refuel(ctx context.Context, driver string) error {
	liters := 20 + s.rng.Float64()*30
	total := liters * 6.2
	s.balance -= total
	if s.balance < 0 {
		s.balance = 1500 // card recharged
	}
	if driver == "" {
		driver = s.pick(drivers)
	}
	req := models.FuelRecordRequest{
		DriverName:       driver,
		Date:             time.Now(),
		Liters:           liters,
		TotalValue:       total,
		RemainingBalance: s.balance,
		KmAtRefueling:    s.vehicle.OdometerKm,
	}
	var resp struct {
		Critical bool `json:"critical"`
	}
	if err := s.api.do(ctx, http.MethodPost, "/vehicles/"+s.vehicle.ID.Hex()+"/fuel", req, &resp); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"vehicle_id": s.vehicle.ID.Hex(),
		"liters":     fmt.Sprintf("%.1f", liters),
		"balance":    fmt.Sprintf("%.2f", s.balance),
		"critical":   resp.Critical,
	}).Info("Submitted refueling")
	return nil
}

func (s *shift) run(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := s.step(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).WithField("vehicle_id", s.vehicle.ID.Hex()).Warn("Hand-off rejected")
			}
		}
	}
}

// usable keeps the vehicles that can take hand-offs, at most max of them.
func usable(vehicles []models.Vehicle, max int) []models.Vehicle {
	out := make([]models.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if validation.CheckAvailability(v) != nil {
			continue
		}
		if max > 0 && len(out) == max {
			break
		}
		out = append(out, v)
	}
	return out
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 5)) * time.Second
	maxVehicles := envInt("SIM_MAX_VEHICLES", 10)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := newAPIClient(apiURL, os.Getenv("SIM_AUTH_TOKEN"))
	vehicles, err := api.listVehicles(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to list vehicles. Ensure SIM_AUTH_TOKEN is valid and the API is reachable")
	}
	vehicles = usable(vehicles, maxVehicles)
	if len(vehicles) == 0 {
		log.Error("No vehicle can take hand-offs. Exiting.")
		return
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"vehicles": len(vehicles),
		"interval": interval,
	}).Info("Starting shift simulation")

	var wg sync.WaitGroup
	for i, v := range vehicles {
		wg.Add(1)
		go func(s *shift) {
			defer wg.Done()
			s.run(ctx, interval)
		}(newShift(api, v, time.Now().UnixNano()+int64(i)))
	}
	wg.Wait()
	log.Info("Shift simulation stopped")
}
