package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/alerts"
	"github.com/ukydev/fleet-checkpoint/internal/auth"
	"github.com/ukydev/fleet-checkpoint/internal/cache"
	"github.com/ukydev/fleet-checkpoint/internal/config"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/handlers"
	"github.com/ukydev/fleet-checkpoint/internal/usage"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	cfg.Log.ConfigureLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}
	log.Info("Server exited")
}

func run(ctx context.Context, cfg *config.Config) error {
	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	store := db.NewStore(client, cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	board, closeBoard := newBoardCache(ctx, cfg.Redis)
	defer closeBoard()

	notifier := alerts.NewNotifier(newPublisher(cfg.MQTT))
	defer notifier.Close()

	if cfg.Scan.Enabled() {
		scanner := alerts.NewScanner(store.Vehicles, notifier)
		if err := scanner.Start(cfg.Scan.Schedule); err != nil {
			return err
		}
		defer scanner.Stop()
	}

	policy := usage.ParsePolicy(cfg.OrphanPolicy)
	router := handlers.NewRouter(handlers.Deps{
		Auth:        auth.NewService(cfg.Auth.Secret, cfg.Auth.Expiry),
		Users:       store.Users,
		Vehicles:    store.Vehicles,
		Records:     store.Records,
		Fuel:        store.Fuel,
		Maintenance: store.Maintenance,
		Units:       store.Units,
		Notifier:    notifier,
		Board:       board,
		Policy:      policy,
		RateLimit:   cfg.RateLimit,
	})
	server := newServer(cfg.Server, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(log.Fields{
			"port":          cfg.Server.Port,
			"orphan_policy": policy,
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
}

// newBoardCache connects to Redis when configured. Without Redis, or when it
// cannot be reached, boards are computed on every request.
func newBoardCache(ctx context.Context, cfg config.RedisConfig) (cache.BoardCache, func()) {
	if cfg.Addr == "" {
		return cache.NopBoardCache{}, func() {}
	}
	client, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("addr", cfg.Addr).Warn("Redis unavailable, maintenance board cache disabled")
		return cache.NopBoardCache{}, func() {}
	}
	log.WithField("addr", cfg.Addr).Info("Connected to Redis")
	return cache.NewRedisBoardCache(client, cfg.TTL), func() { _ = client.Close() }
}

// newPublisher connects to the MQTT broker when configured. Alerts are
// dropped when no broker is set or it cannot be reached.
func newPublisher(cfg config.MQTTConfig) alerts.Publisher {
	if cfg.Broker == "" {
		return alerts.NopPublisher{}
	}
	p, err := alerts.NewMQTTPublisher(cfg)
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, maintenance alerts disabled")
		return alerts.NopPublisher{}
	}
	return p
}
