package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/aevon-lab/ticket-ledger/internal/core/config"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage/memory"
	"github.com/aevon-lab/ticket-ledger/internal/core/storage/postgres"
	"github.com/aevon-lab/ticket-ledger/internal/ledger"
	"github.com/aevon-lab/ticket-ledger/internal/migrations"
	"github.com/aevon-lab/ticket-ledger/internal/projection"
	"github.com/aevon-lab/ticket-ledger/internal/seed"
	"github.com/aevon-lab/ticket-ledger/internal/server"
	"github.com/aevon-lab/ticket-ledger/internal/wallet"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.String("config", "ticketledger.yaml", "Path to configuration file")
	logLevel := pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflag.Parse()

	// 0. Initialize Logger
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Ticket ledger stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	if _, err := os.Stat(configPath); err != nil {
		slog.Warn("Config file not found, using defaults and environment", "path", configPath)
		configPath = ""
	}
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("Loaded config",
		"store", cfg.Database.Type,
		"address", fmtAddr(cfg.Server.Host, cfg.Server.Port))

	policy, err := cfg.Ledger.Policy()
	if err != nil {
		return fmt.Errorf("pricing policy: %w", err)
	}
	slog.Info("Marketplace policy",
		"resale_multiplier", policy.Multiplier(),
		"platform_fee_bps", policy.FeeBps(),
		"platform_account", cfg.Ledger.PlatformAccount)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Storage
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	// 3. Initialize Ledger
	wallets := wallet.NewBook(cfg.Ledger.InitialBalance)
	engine := ledger.NewEngine(store, wallets,
		ledger.WithPolicy(policy),
		ledger.WithPlatformAccount(cfg.Ledger.PlatformAccount))

	if err := engine.BootstrapAdmins(ctx, cfg.Ledger.Admins); err != nil {
		return fmt.Errorf("bootstrap admins: %w", err)
	}

	if cfg.Ledger.SeedFile != "" {
		if len(cfg.Ledger.Admins) == 0 {
			return fmt.Errorf("ledger.seed_file requires at least one entry in ledger.admins")
		}
		f, err := seed.Load(cfg.Ledger.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, engine, wallets, cfg.Ledger.Admins[0], f); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}

	// 4. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store, cfg.Server.Mode)
	ledger.NewService(engine, cfg.Server.MaxBodySizeMB).RegisterRoutes(srv.Engine)
	projection.NewService(store, policy).RegisterRoutes(srv.Engine)
	wallets.RegisterRoutes(srv.Engine)

	// 5. Start Services. The HTTP server blocks until a signal cancels ctx.
	return srv.Run(ctx)
}

func openStore(ctx context.Context, cfg corecfg.DatabaseConfig) (storage.Store, error) {
	if cfg.Type == "memory" {
		slog.Info("Using in-memory ledger store")
		return memory.New(), nil
	}

	adapter, err := postgres.Open(postgres.Options{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	if err := migrations.RunMigrations(adapter.DB(), cfg.AutoMigrate); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("run database migrations: %w", err)
	}
	if err := adapter.ValidateSchema(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	return adapter, nil
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
