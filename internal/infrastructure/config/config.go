package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"pricehub/internal/domain"
)

const (
	EnvAddr          = "PRICEHUB_ADDR"
	EnvRedisAddr     = "PRICEHUB_REDIS_ADDR"
	EnvRedisPassword = "PRICEHUB_REDIS_PASSWORD"
	EnvPostgresDSN   = "PRICEHUB_POSTGRES_DSN"
	EnvLogLevel      = "PRICEHUB_LOG_LEVEL"
)

type ExchangeConfig struct {
	Enabled           bool   `toml:"enabled"`
	BaseURL           string `toml:"base_url"`
	TimeoutSec        int    `toml:"timeout_sec"`
	MaxSymbols        int    `toml:"max_symbols"`
	RequestIntervalMs int    `toml:"request_interval_ms"`
}

func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

func (e ExchangeConfig) RequestInterval() time.Duration {
	return time.Duration(e.RequestIntervalMs) * time.Millisecond
}

type Config struct {
	App struct {
		Name               string `toml:"name"`
		RefreshIntervalSec int    `toml:"refresh_interval_sec"`
		RetryIntervalSec   int    `toml:"retry_interval_sec"`
		FetchTimeoutSec    int    `toml:"fetch_timeout_sec"`
		Autostart          bool   `toml:"autostart"`
		ConsoleBoard       bool   `toml:"console_board"`
		BoardTop           int    `toml:"board_top"`
	} `toml:"app"`

	Server struct {
		Addr            string   `toml:"addr"`
		WSPath          string   `toml:"ws_path"`
		AllowedOrigins  []string `toml:"allowed_origins"`
		SendBuffer      int      `toml:"send_buffer"`
		WriteTimeoutSec int      `toml:"write_timeout_sec"`
		PingIntervalSec int      `toml:"ping_interval_sec"`
		ShutdownSec     int      `toml:"shutdown_timeout_sec"`
	} `toml:"server"`

	Log struct {
		Level   string `toml:"level"`
		Console bool   `toml:"console"`
	} `toml:"log"`

	Symbols struct {
		List []string `toml:"list"`
	} `toml:"symbols"`

	Display struct {
		Priority []string `toml:"priority"`
	} `toml:"display"`

	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	Storage struct {
		Enabled bool `toml:"enabled"`

		Redis struct {
			Enabled  bool   `toml:"enabled"`
			Addr     string `toml:"addr"`
			Password string `toml:"password"`
			DB       int    `toml:"db"`
			Prefix   string `toml:"prefix"`
			TTLSec   int    `toml:"ttl_sec"`
			Channel  string `toml:"channel"`
		} `toml:"redis"`

		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`
	} `toml:"storage"`
}

// Load reads the TOML file at path, then lets a .env file and PRICEHUB_* variables
// override it.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pricehub"
	}
	if cfg.App.RefreshIntervalSec <= 0 {
		cfg.App.RefreshIntervalSec = 10
	}
	if cfg.App.RetryIntervalSec <= 0 {
		cfg.App.RetryIntervalSec = 5
	}
	// the retry after a failed cycle is never longer than a regular interval
	if cfg.App.RetryIntervalSec > cfg.App.RefreshIntervalSec {
		cfg.App.RetryIntervalSec = cfg.App.RefreshIntervalSec
	}
	if cfg.App.FetchTimeoutSec <= 0 {
		cfg.App.FetchTimeoutSec = 10
	}
	if cfg.App.BoardTop <= 0 {
		cfg.App.BoardTop = 5
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.WSPath == "" {
		cfg.Server.WSPath = "/ws"
	}
	if cfg.Server.SendBuffer <= 0 {
		cfg.Server.SendBuffer = 64
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		cfg.Server.WriteTimeoutSec = 10
	}
	if cfg.Server.PingIntervalSec <= 0 {
		cfg.Server.PingIntervalSec = 25
	}
	if cfg.Server.ShutdownSec <= 0 {
		cfg.Server.ShutdownSec = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if len(cfg.Symbols.List) == 0 {
		cfg.Symbols.List = domain.DefaultSymbols()
	}
	if len(cfg.Display.Priority) == 0 {
		cfg.Display.Priority = domain.DefaultPriority()
	}
	if cfg.Exchanges == nil {
		cfg.Exchanges = map[string]ExchangeConfig{
			domain.ExchangeBinance:  {Enabled: true},
			domain.ExchangeCoinbase: {Enabled: true},
			domain.ExchangeKucoin:   {Enabled: true},
		}
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "pricehub"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/pricehub.db"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	if len(cfg.Symbols.List) == 0 {
		return errors.New("symbols.list is empty")
	}

	normalized := make(map[string]ExchangeConfig, len(cfg.Exchanges))
	for name, ex := range cfg.Exchanges {
		key := strings.ToLower(strings.TrimSpace(name))
		if ex.TimeoutSec < 0 || ex.MaxSymbols < 0 || ex.RequestIntervalMs < 0 {
			return fmt.Errorf("exchanges.%s: negative values are not allowed", key)
		}
		normalized[key] = ex
	}
	cfg.Exchanges = normalized

	if cfg.Storage.Enabled {
		if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
			return errors.New("storage.redis.addr empty but enabled")
		}
		if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
			return errors.New("storage.postgres.dsn empty but enabled")
		}
	}
	return nil
}

// GetEnabledExchanges returns enabled exchange ids in lexical order.
func (c *Config) GetEnabledExchanges() []string {
	out := make([]string, 0, len(c.Exchanges))
	for name, ex := range c.Exchanges {
		if ex.Enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.App.RefreshIntervalSec) * time.Second
}

func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.App.RetryIntervalSec) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.App.FetchTimeoutSec) * time.Second
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
