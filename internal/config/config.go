package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the runtime configuration of the API and the habitctl CLI.
type Config struct {
	Port               string   `toml:"port"`
	DatabaseURL        string   `toml:"database_url"`
	StorageDriver      string   `toml:"storage_driver"` // "postgres" (default) or "memory"
	MigrateOnStart     bool     `toml:"migrate_on_start"`
	DBMaxConns         int32    `toml:"db_max_conns"`
	DBMinConns         int32    `toml:"db_min_conns"`
	ClerkSecretKey     string   `toml:"clerk_secret_key"`
	ClerkWebhookSecret string   `toml:"clerk_webhook_secret"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	MetricsUser        string   `toml:"metrics_user"`
	MetricsPass        string   `toml:"metrics_pass"`
	PprofSecret        string   `toml:"pprof_secret"`
	StreakTimezone     string   `toml:"streak_timezone"`
	RateLimitRPS       float64  `toml:"rate_limit_rps"`
	RateLimitBurst     int      `toml:"rate_limit_burst"`
	LogLevel           string   `toml:"log_level"`
	LogFile            string   `toml:"log_file"`
	LogJSON            bool     `toml:"log_json"`
	FCMServiceAccount  string   `toml:"fcm_service_account_json"`
	FCMCredentialsFile string   `toml:"fcm_credentials_file"`

	location *time.Location
}

func Default() *Config {
	return &Config{
		Port:               "3333",
		StorageDriver:      DriverPostgres,
		MigrateOnStart:     true,
		DBMaxConns:         25,
		DBMinConns:         5,
		CORSAllowedOrigins: []string{"*"},
		StreakTimezone:     "UTC",
		RateLimitRPS:       5,
		RateLimitBurst:     30,
		LogLevel:           "info",
		FCMCredentialsFile: "./serviceAccountKey.json",
	}
}

// Load reads .env (if present), then the TOML file named by HABITS_CONFIG_FILE,
// then environment variables, each layer overriding the previous one.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path, ok := lookup("HABITS_CONFIG_FILE"); ok && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("STORAGE_DRIVER", &c.StorageDriver)
	str("CLERK_SECRET_KEY", &c.ClerkSecretKey)
	str("CLERK_WEBHOOK_SECRET", &c.ClerkWebhookSecret)
	str("METRICS_USER", &c.MetricsUser)
	str("METRICS_PASS", &c.MetricsPass)
	str("PPROF_SECRET", &c.PprofSecret)
	str("STREAK_TIMEZONE", &c.StreakTimezone)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	str("FCM_SERVICE_ACCOUNT_JSON", &c.FCMServiceAccount)
	str("FCM_CREDENTIALS_FILE", &c.FCMCredentialsFile)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	}

	if v, ok := lookup("MIGRATE_ON_START"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MIGRATE_ON_START %q: %w", v, err)
		}
		c.MigrateOnStart = b
	}
	if v, ok := lookup("LOG_JSON"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_JSON %q: %w", v, err)
		}
		c.LogJSON = b
	}
	if v, ok := lookup("RATE_LIMIT_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.RateLimitRPS = f
	}
	if v, ok := lookup("RATE_LIMIT_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		c.RateLimitBurst = n
	}
	if v, ok := lookup("DB_MAX_CONNS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DB_MAX_CONNS %q: %w", v, err)
		}
		c.DBMaxConns = int32(n)
	}
	if v, ok := lookup("DB_MIN_CONNS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid DB_MIN_CONNS %q: %w", v, err)
		}
		c.DBMinConns = int32(n)
	}
	return nil
}

// Validate checks required settings and resolves the streak timezone.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want postgres or memory)", c.StorageDriver)
	}

	if c.ClerkSecretKey == "" {
		return fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}

	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		return fmt.Errorf("invalid STREAK_TIMEZONE %q: %w", c.StreakTimezone, err)
	}
	c.location = loc

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive (rps=%v burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid pool sizing (max=%d min=%d)", c.DBMaxConns, c.DBMinConns)
	}
	return nil
}

// Location is the timezone that decides which calendar day "today" is.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
