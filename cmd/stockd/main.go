package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/squaremart/stockd/internal/api"
	"github.com/squaremart/stockd/internal/auth"
	"github.com/squaremart/stockd/internal/config"
	"github.com/squaremart/stockd/internal/db"
	"github.com/squaremart/stockd/internal/inventory"
	"github.com/squaremart/stockd/internal/logger"
	"github.com/squaremart/stockd/internal/notify"
	"github.com/squaremart/stockd/internal/replenish"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: stockd <init|serve|sweep>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		cmdInit(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nUsage: stockd <init|serve|sweep>\n", os.Args[1])
		os.Exit(1)
	}
}

func loadConfig(args []string, name string) config.Config {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func openDatabase(cfg config.Config) (*sql.DB, error) {
	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return database, nil
}

func cmdInit(args []string) {
	cfg := loadConfig(args, "init")

	if _, err := os.Stat(cfg.DB.Path); err == nil {
		fmt.Fprintf(os.Stderr, "Error: database file %s already exists\n", cfg.DB.Path)
		os.Exit(1)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	database.Close()

	fmt.Printf("Database created: %s\n", cfg.DB.Path)
	fmt.Println("Schema initialized.")
}

func cmdServe(args []string) {
	cfg := loadConfig(args, "serve")
	log := logger.New(cfg.App.Env)

	database, err := openDatabase(cfg)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer database.Close()
	log.Info("database ready", "path", cfg.DB.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := notify.NewDispatcher(&notify.LogEmitter{Log: log}, 256, log)
	defer dispatcher.Close()

	engine := replenish.NewEngine(database, &replenish.StoreDirectory{DB: database}, dispatcher,
		replenish.Config{
			Cooldown:     time.Duration(cfg.Replenish.CooldownDays) * 24 * time.Hour,
			LeadTimeDays: cfg.Replenish.LeadTimeDays,
		}, log)
	go engine.Run(ctx, cfg.Replenish.SweepInterval)

	svc := inventory.New(database, dispatcher, engine, log)

	clients := make([]auth.Client, 0, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients = append(clients, auth.Client{ID: c.ID, SecretHash: c.SecretHash})
	}

	router := api.NewRouter(api.Deps{
		DB:         database,
		Inventory:  svc,
		Engine:     engine,
		JWTSecret:  cfg.Auth.JWTSecret,
		Clients:    clients,
		WindowDays: cfg.Dashboard.WindowDays,
		Metrics:    cfg.Metrics.Enabled,
	})

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: api.LoggingMiddleware(log)(router)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("server listening", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}

// cmdSweep runs one reconciliation pass and exits; the cron-friendly way to
// close replenishment gaps without a long-running server.
func cmdSweep(args []string) {
	cfg := loadConfig(args, "sweep")
	log := logger.New(cfg.App.Env)

	database, err := openDatabase(cfg)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	engine := replenish.NewEngine(database, &replenish.StoreDirectory{DB: database}, nil,
		replenish.Config{
			Cooldown:     time.Duration(cfg.Replenish.CooldownDays) * 24 * time.Hour,
			LeadTimeDays: cfg.Replenish.LeadTimeDays,
		}, log)

	result, err := engine.CheckAllLowStock(context.Background())
	if err != nil {
		log.Error("sweep failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("Sweep complete: %d orders generated, %d products skipped\n",
		len(result.Generated), len(result.Skipped))
	for _, o := range result.Generated {
		fmt.Printf("  generated %s (supplier %s)\n", o.OrderNumber, o.SupplierName)
	}
	for _, s := range result.Skipped {
		fmt.Printf("  skipped %s: %s\n", s.ItemCode, s.Reason)
	}
}
