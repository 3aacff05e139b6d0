package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	DevSeed    DevSeedConfig    `yaml:"dev_seed"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig holds the secret used to verify user bearer tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// DispatchConfig controls the command staleness sweeper. A SENT command that
// has not reported a result within SentTimeout is failed and audited.
type DispatchConfig struct {
	SweepEnabled      bool          `yaml:"sweep_enabled"`
	SweepIntervalSecs int           `yaml:"sweep_interval_seconds"`
	SentTimeoutSecs   int           `yaml:"sent_timeout_seconds"`
	SweepInterval     time.Duration `yaml:"-"` // Ignored by YAML parser
	SentTimeout       time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// DevSeedConfig optionally provisions one device/locker pair at startup for
// local development. Production deployments provision devices out of band.
type DevSeedConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DeviceID   string `yaml:"device_id"`
	DeviceKey  string `yaml:"device_key"`
	LockerName string `yaml:"locker_name"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Dispatch.SweepIntervalSecs <= 0 {
		cfg.Dispatch.SweepIntervalSecs = 60
	}
	if cfg.Dispatch.SentTimeoutSecs <= 0 {
		cfg.Dispatch.SentTimeoutSecs = 300
	}
	cfg.Dispatch.SweepInterval = time.Duration(cfg.Dispatch.SweepIntervalSecs) * time.Second
	cfg.Dispatch.SentTimeout = time.Duration(cfg.Dispatch.SentTimeoutSecs) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
