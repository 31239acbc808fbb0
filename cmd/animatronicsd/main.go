// Animatronics Bridge
//
// Entry point for the animatronics bridge daemon. The bridge sits
// between the exhibit's animatronic devices on the MQTT bus and the
// operator front-ends: it tracks device presence, sweeps out silent
// devices, admits commands, and fans out every presence change to the
// attached WebSocket clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/junco466/animatronics-bridge/migrations"

	"github.com/junco466/animatronics-bridge/internal/api"
	"github.com/junco466/animatronics-bridge/internal/command"
	"github.com/junco466/animatronics-bridge/internal/device"
	"github.com/junco466/animatronics-bridge/internal/history"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/config"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/database"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/influxdb"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/logging"
	"github.com/junco466/animatronics-bridge/internal/infrastructure/mqtt"
	"github.com/junco466/animatronics-bridge/internal/presence"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error lets main handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting animatronics bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Build the device registry from the fixed catalog
	registry := device.NewRegistry(cfg.Catalog)
	log.Info("device registry initialised", "devices", registry.Count())

	// Connect to MQTT broker
	busClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := busClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	busClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Command router admits commands against the registry and publishes
	// them onto the bus. Both the REST surface and the WebSocket channel
	// route through this one instance.
	qos := byte(cfg.MQTT.QoS) // #nosec G115 -- validated to 0..2 by config
	commands := command.NewRouter(registry, busClient, qos)
	commands.SetLogger(log)

	// The WebSocket hub is built before the tracker because the tracker
	// needs it as the notification sink.
	hub := api.NewHub(cfg.WebSocket, registry, commands, log)

	tracker := presence.NewTracker(registry, hub)
	tracker.SetLogger(log)
	tracker.SetRecorder(history.NewRepository(db))
	if influxClient != nil {
		tracker.SetTelemetry(influxClient)
	}

	// Bus link state feeds the tracker so sweeps pause while the broker
	// is unreachable and devices get full grace after it returns.
	busClient.SetOnConnect(func() {
		log.Info("MQTT link up")
		tracker.SetLinkUp(true)
	})
	busClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT link down", "error", err)
		tracker.SetLinkUp(false)
	})

	if err := tracker.Subscribe(busClient, qos); err != nil {
		return fmt.Errorf("subscribing to device topics: %w", err)
	}
	log.Info("subscribed to device topics")

	// Liveness monitor sweeps out devices that have gone silent
	monitor := presence.NewMonitor(tracker, cfg.SweepInterval(), cfg.StaleThreshold())
	monitor.SetLogger(log)
	monitor.Start(ctx)
	defer func() {
		log.Info("stopping liveness monitor")
		monitor.Stop()
	}()
	log.Info("liveness monitor started",
		"sweep_interval", cfg.SweepInterval(),
		"stale_threshold", cfg.StaleThreshold(),
	)

	// Start API server (REST + WebSocket)
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		Commands: commands,
		History:  history.NewRepository(db),
		Bus:      busClient,
		Hub:      hub,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, busClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Liveness monitor
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("animatronics bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ANIMATRONICS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ANIMATRONICS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when telemetry is disabled.
func healthCheck(ctx context.Context, db *database.DB, busClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := busClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
