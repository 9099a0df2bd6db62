package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/andrescamacho/autobuild-go/internal/adapters/feed"
	"github.com/andrescamacho/autobuild-go/internal/adapters/gamedata"
	"github.com/andrescamacho/autobuild-go/internal/adapters/grpc"
	apihttp "github.com/andrescamacho/autobuild-go/internal/adapters/http"
	"github.com/andrescamacho/autobuild-go/internal/adapters/metrics"
	"github.com/andrescamacho/autobuild-go/internal/adapters/persistence"
	"github.com/andrescamacho/autobuild-go/internal/application/common"
	"github.com/andrescamacho/autobuild-go/internal/application/planner"
	"github.com/andrescamacho/autobuild-go/internal/application/setup"
	"github.com/andrescamacho/autobuild-go/internal/application/strategies"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/config"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/database"
	"github.com/andrescamacho/autobuild-go/internal/infrastructure/pidfile"
)

// metricsInterval is how often session gauges are refreshed
const metricsInterval = 15 * time.Second

func main() {
	// Parse command-line flags
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	configFlag := flag.String("config", "", "Path to config file (default: search ./, ./configs, /etc/autobuild)")
	flag.Parse()

	fmt.Println("Autobuild Daemon v0.1.0")
	fmt.Println("=======================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag)

	// Acquire PID file lock to prevent multiple instances
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)

	if err := pf.Acquire(); err != nil {
		if !*forceFlag {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to kill the existing daemon", err)
		}
		fmt.Println("Force mode enabled - attempting to kill existing daemon...")
		if killErr := pf.KillExisting(); killErr != nil {
			log.Fatalf("Failed to kill existing daemon: %v", killErr)
		}
		fmt.Println("Existing daemon killed")

		if err := pf.Acquire(); err != nil {
			log.Fatalf("Failed to acquire PID file lock after killing existing daemon: %v", err)
		}
	}

	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	// 1. Database
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	// 2. Catalog and strategies
	catalog, err := gamedata.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	fmt.Printf("Catalog loaded: %d types from %s\n", catalog.Len(), cfg.Catalog.Path)

	registry, err := strategies.NewRegistry(cfg.Strategy.ScriptsDir)
	if err != nil {
		return fmt.Errorf("failed to load strategies: %w", err)
	}
	if _, err := registry.Create(cfg.Strategy.Name, catalog); err != nil {
		return fmt.Errorf("default strategy %q: %w", cfg.Strategy.Name, err)
	}
	fmt.Printf("Strategies registered: %v (default %s)\n", registry.Names(), cfg.Strategy.Name)

	// 3. Repositories
	sessionRepo := persistence.NewSessionRepository(db, nil)
	tickRepo := persistence.NewTickRepository(db)
	actionRepo := persistence.NewActionRepository(db, catalog, nil) // nil = use RealClock
	logRepo := persistence.NewGormPlannerLogRepository(db, nil)

	// 4. Plan feed: connected game clients execute dispatched actions
	hub := feed.NewHub(cfg.Feed.WriteTimeout)
	dispatcher := feed.NewDispatcher(hub)

	// 5. Session manager
	manager := planner.NewSessionManager(planner.ManagerDeps{
		Catalog:    catalog,
		Registry:   registry,
		Dispatcher: dispatcher,
		Actions:    actionRepo,
		Sessions:   sessionRepo,
		Ticks:      tickRepo,
		Planner:    setup.PlannerConfig(cfg.Planner),
		Runner:     setup.RunnerConfig(cfg.Planner),
	})
	manager.OnTick(hub.TickListener())

	// 6. Metrics
	var collector *metrics.PlannerMetricsCollector
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector = metrics.NewPlannerMetricsCollector(manager.Sessions)
		if err := collector.Register(); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		collector.Start(context.Background(), metricsInterval)
		defer collector.Stop()
		manager.OnTick(collector.TickListener())
		fmt.Printf("Metrics enabled on %s%s\n", cfg.Feed.Address, cfg.Metrics.Path)
	}

	// 7. Mediator with logging, metrics and tick throttling
	loggers := grpc.NewLoggerFactory(logRepo, cfg.Logging.Level, cfg.Logging.Persist)

	med := common.NewMediator()
	med.Use(loggers.Middleware())
	if collector != nil {
		med.Use(metrics.PrometheusMiddleware(collector))
	}
	med.Use(grpc.NewTickThrottle(cfg.Daemon.TickRatePerSecond, cfg.Daemon.TickBurst))

	if err := setup.NewHandlerRegistry(manager).RegisterPlannerHandlers(med); err != nil {
		return fmt.Errorf("failed to register planner handlers: %w", err)
	}

	// 8. Servers
	api := apihttp.NewServer(cfg.HTTP.Address, cfg.HTTP.MaxRequestBodySize, apihttp.Handler{
		Mediator:      med,
		Catalog:       catalog,
		Planner:       setup.PlannerConfig(cfg.Planner),
		CadenceFrames: cfg.Planner.CadenceFrames,
	})
	feedServer := feed.NewServer(cfg.Feed.Address, cfg.Feed.Path, hub, cfg.Metrics.Path, metrics.Handler())

	socketPath := cfg.Daemon.SocketPath
	fmt.Printf("Starting daemon server on: %s\n", socketPath)
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	daemonServer, err := grpc.NewDaemonServer(manager, loggers, socketPath, cfg.Daemon.ShutdownTimeout, api, feedServer)
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}
	manager.OnTick(daemonServer.TickListener())

	fmt.Println("\n✓ Daemon is ready to accept connections")
	fmt.Printf("  API:  http://%s\n", cfg.HTTP.Address)
	fmt.Printf("  Feed: ws://%s%s\n", cfg.Feed.Address, cfg.Feed.Path)
	fmt.Println("Press Ctrl+C to stop")

	// Start serving (blocks until shutdown)
	if err := daemonServer.Start(); err != nil {
		return fmt.Errorf("daemon server error: %w", err)
	}

	fmt.Println("\nDaemon stopped")
	return nil
}
