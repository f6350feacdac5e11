// Package alerts pushes maintenance warnings to an MQTT broker.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/config"
	"github.com/ukydev/fleet-checkpoint/internal/maintenance"
	"github.com/ukydev/fleet-checkpoint/internal/metrics"
	"github.com/ukydev/fleet-checkpoint/internal/models"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Alert is the payload published for a vehicle with components needing attention.
type Alert struct {
	VehicleID  string                        `json:"vehicle_id"`
	Plate      string                        `json:"plate"`
	Unit       string                        `json:"unit"`
	OdometerKm int                           `json:"odometer_km"`
	Worst      maintenance.Classification    `json:"worst"`
	Components []maintenance.ComponentStatus `json:"components"`
	At         time.Time                     `json:"at"`
}

// Publisher delivers alerts.
type Publisher interface {
	Publish(ctx context.Context, alert Alert) error
	Close()
}

// NopPublisher drops every alert. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Alert) error { return nil }
func (NopPublisher) Close()                               {}

// MQTTPublisher publishes alerts with QoS 1 under <prefix>/vehicles/<id>/maintenance.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher connects to the configured broker.
func NewMQTTPublisher(cfg config.MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	log.WithFields(log.Fields{
		"broker":    cfg.Broker,
		"client_id": cfg.ClientID,
	}).Info("Connected to MQTT broker")

	return &MQTTPublisher{client: client, prefix: cfg.TopicPrefix, timeout: 5 * time.Second}, nil
}

// Topic returns the topic a vehicle's alerts are published on.
func Topic(prefix, vehicleID string) string {
	return fmt.Sprintf("%s/vehicles/%s/maintenance", prefix, vehicleID)
}

// Publish sends one alert and waits for the broker ack or the context.
func (p *MQTTPublisher) Publish(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	token := p.client.Publish(Topic(p.prefix, alert.VehicleID), 1, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// Notifier evaluates vehicles and publishes an alert when a component needs attention.
type Notifier struct {
	publisher Publisher
	now       func() time.Time
}

// NewNotifier wraps a publisher. A nil publisher behaves like NopPublisher.
func NewNotifier(p Publisher) *Notifier {
	if p == nil {
		p = NopPublisher{}
	}
	return &Notifier{publisher: p, now: time.Now}
}

// BuildAlert returns the alert for a vehicle, or false when every component is OK.
func BuildAlert(v models.Vehicle, statuses []maintenance.ComponentStatus, at time.Time) (Alert, bool) {
	attention := maintenance.Attention(statuses)
	if len(attention) == 0 {
		return Alert{}, false
	}
	return Alert{
		VehicleID:  v.ID.Hex(),
		Plate:      v.Plate,
		Unit:       v.Unit,
		OdometerKm: v.OdometerKm,
		Worst:      maintenance.Worst(attention),
		Components: attention,
		At:         at,
	}, true
}

// Notify publishes the vehicle's alert if any. Failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, v models.Vehicle) bool {
	alert, ok := BuildAlert(v, maintenance.EvaluateVehicle(v), n.now())
	if !ok {
		return false
	}
	if err := n.publisher.Publish(ctx, alert); err != nil {
		metrics.AlertsPublished.WithLabelValues("error").Inc()
		log.WithError(err).WithFields(log.Fields{
			"vehicle_id": alert.VehicleID,
			"plate":      alert.Plate,
		}).Warn("Failed to publish maintenance alert")
		return false
	}
	metrics.AlertsPublished.WithLabelValues("ok").Inc()
	log.WithFields(log.Fields{
		"vehicle_id": alert.VehicleID,
		"plate":      alert.Plate,
		"worst":      alert.Worst,
		"components": len(alert.Components),
	}).Debug("Published maintenance alert")
	return true
}

// Close releases the underlying publisher.
func (n *Notifier) Close() {
	n.publisher.Close()
}
