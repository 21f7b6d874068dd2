package config

import (
	"fmt"
	"strings"

	"github.com/aevon-lab/ticket-ledger/internal/core/pricing"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. LEDGER_SERVER__PORT=9090.
const EnvPrefix = "LEDGER_"

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Ledger   LedgerConfig   `koanf:"ledger"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`   // memory | postgres
	Driver       string `koanf:"driver"` // postgres (lib/pq) | pgx
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type LedgerConfig struct {
	// Admins are stored with the Admin role at startup.
	Admins []string `koanf:"admins"`

	ResaleMultiplier string `koanf:"resale_multiplier"`
	PlatformFeeBps   int64  `koanf:"platform_fee_bps"`
	PlatformAccount  string `koanf:"platform_account"`

	// InitialBalance funds every wallet on first use.
	InitialBalance int64 `koanf:"initial_balance"`

	SeedFile string `koanf:"seed_file"`
}

// Policy builds the marketplace price rules.
func (c LedgerConfig) Policy() (pricing.Policy, error) {
	return pricing.NewPolicy(c.ResaleMultiplier, c.PlatformFeeBps)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Database.Type {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required")
		}
		if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
			return fmt.Errorf("unsupported database.driver %q (must be postgres or pgx)", c.Database.Driver)
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	default:
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if _, err := c.Ledger.Policy(); err != nil {
		return fmt.Errorf("invalid ledger pricing: %w", err)
	}
	if strings.TrimSpace(c.Ledger.PlatformAccount) == "" {
		return fmt.Errorf("ledger.platform_account is required")
	}
	if c.Ledger.InitialBalance < 0 {
		return fmt.Errorf("ledger.initial_balance must be >= 0")
	}
	for _, admin := range c.Ledger.Admins {
		if strings.TrimSpace(admin) == "" {
			return fmt.Errorf("ledger.admins must not contain empty identities")
		}
	}

	return nil
}

// Load parses config from defaults, then file, then env, and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.mode":              "release",
		"database.type":            "memory",
		"database.driver":          "postgres",
		"database.dsn":             "",
		"database.max_open_conns":  25,
		"database.max_idle_conns":  25,
		"database.auto_migrate":    true,
		"ledger.admins":            []string{},
		"ledger.resale_multiplier": pricing.DefaultResaleMultiplier,
		"ledger.platform_fee_bps":  pricing.DefaultPlatformFeeBps,
		"ledger.platform_account":  "platform",
		"ledger.initial_balance":   0,
		"ledger.seed_file":         "",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
