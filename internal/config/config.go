package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the hiretrack server.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Fault    FaultConfig
	Seed     SeedConfig
	Activity ActivityConfig
}

type ServerConfig struct {
	Port               int
	Env                string
	RateLimitPerMinute int
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig points at the key-value store. An empty URL selects the in-process cache.
type RedisConfig struct {
	URL string
}

// FaultConfig controls the simulated latency and error injection on every API call.
type FaultConfig struct {
	Disabled  bool
	MinDelay  time.Duration
	MaxDelay  time.Duration
	ErrorRate float64
}

type SeedConfig struct {
	Jobs        int
	Candidates  int
	Assessments int
	RandomSeed  int64
}

type ActivityConfig struct {
	Capacity int
}

var validDrivers = map[string]bool{
	DriverMemory:   true,
	DriverSQLite:   true,
	DriverPostgres: true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               envInt("HIRETRACK_PORT", 8080),
			Env:                envString("HIRETRACK_ENV", "development"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 0),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(envString("STORE_DRIVER", DriverMemory)),
			SQLitePath: envString("SQLITE_PATH", "hiretrack.db"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Fault: FaultConfig{
			Disabled:  envBool("FAULT_DISABLED", false),
			MinDelay:  envDuration("FAULT_MIN_DELAY", 200*time.Millisecond),
			MaxDelay:  envDuration("FAULT_MAX_DELAY", 1200*time.Millisecond),
			ErrorRate: envFloat("FAULT_ERROR_RATE", 0.10),
		},
		Seed: SeedConfig{
			Jobs:        envInt("SEED_JOBS", 25),
			Candidates:  envInt("SEED_CANDIDATES", 1000),
			Assessments: envInt("SEED_ASSESSMENTS", 4),
			RandomSeed:  int64(envInt("SEED_RANDOM_SEED", 0)),
		},
		Activity: ActivityConfig{
			Capacity: envInt("ACTIVITY_CAP", 100),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !validDrivers[c.Store.Driver] {
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres; got %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverPostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
	}
	if c.Store.Driver == DriverSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER is sqlite")
	}

	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Fault.MinDelay < 0 || c.Fault.MaxDelay < c.Fault.MinDelay {
		return fmt.Errorf("FAULT_MAX_DELAY (%s) must be >= FAULT_MIN_DELAY (%s) >= 0", c.Fault.MaxDelay, c.Fault.MinDelay)
	}
	if c.Fault.ErrorRate < 0 || c.Fault.ErrorRate > 1 {
		return fmt.Errorf("FAULT_ERROR_RATE must be between 0 and 1, got %v", c.Fault.ErrorRate)
	}

	if c.Seed.Jobs < 0 || c.Seed.Candidates < 0 || c.Seed.Assessments < 0 {
		return fmt.Errorf("SEED_JOBS, SEED_CANDIDATES and SEED_ASSESSMENTS must not be negative")
	}
	if c.Seed.Assessments > c.Seed.Jobs {
		return fmt.Errorf("SEED_ASSESSMENTS (%d) cannot exceed SEED_JOBS (%d)", c.Seed.Assessments, c.Seed.Jobs)
	}
	if c.Seed.Candidates > 0 && c.Seed.Jobs == 0 {
		return fmt.Errorf("SEED_CANDIDATES requires at least one seeded job")
	}

	if c.Activity.Capacity <= 0 {
		return fmt.Errorf("ACTIVITY_CAP must be positive, got %d", c.Activity.Capacity)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
