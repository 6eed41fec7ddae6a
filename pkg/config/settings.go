package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Settings holds all runtime configuration. Values come from defaults, then the optional
// TOML file named by INVESTCORE_CONFIG, then environment variables.
type Settings struct {
	Server   ServerSettings   `toml:"server"`
	Database DatabaseSettings `toml:"database"`
	RabbitMQ RabbitMQSettings `toml:"rabbitmq"`
	Accrual  AccrualSettings  `toml:"accrual"`
	Auth     AuthSettings     `toml:"auth"`
	Logging  LoggingSettings  `toml:"logging"`
}

type ServerSettings struct {
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
}

type DatabaseSettings struct {
	// Driver is "postgres" or "memory".
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	Port     string `toml:"port"`
	TimeZone string `toml:"timezone"`
	Timeout  string `toml:"timeout"`
}

// DSN returns the postgres connection string.
func (d DatabaseSettings) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.TimeZone)
}

// GetTimeout parses the per-call datastore timeout.
func (d DatabaseSettings) GetTimeout() time.Duration {
	t, err := time.ParseDuration(d.Timeout)
	if err != nil || t <= 0 {
		return 10 * time.Second
	}
	return t
}

type RabbitMQSettings struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// Enabled reports whether a broker is configured.
func (r RabbitMQSettings) Enabled() bool {
	return r.Host != ""
}

// URL returns the AMQP connection URL.
func (r RabbitMQSettings) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, r.Port)
}

type AccrualSettings struct {
	// Cron uses the six-field format with seconds.
	Cron     string `toml:"cron"`
	Workers  int    `toml:"workers"`
	Timezone string `toml:"timezone"`
}

// Location loads the accrual timezone, falling back to UTC.
func (a AccrualSettings) Location() (*time.Location, error) {
	if a.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
}

type AuthSettings struct {
	JWTSecret    string `toml:"jwt_secret"`
	TokenExpiry  string `toml:"token_expiry"`
	CookieSecure bool   `toml:"cookie_secure"`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (a AuthSettings) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(a.TokenExpiry)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

type LoggingSettings struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultSettings returns Settings with development defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Port:           "8080",
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Database: DatabaseSettings{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			TimeZone: "UTC",
			Timeout:  "10s",
		},
		RabbitMQ: RabbitMQSettings{
			Port: "5672",
		},
		Accrual: AccrualSettings{
			Cron:     "0 5 0 * * *",
			Workers:  8,
			Timezone: "UTC",
		},
		Auth: AuthSettings{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}

// Load reads the optional TOML file named by INVESTCORE_CONFIG and applies env overrides.
func Load() (*Settings, error) {
	return LoadFile(os.Getenv("INVESTCORE_CONFIG"))
}

// LoadFile is Load with an explicit file path. A missing or empty path is skipped.
func LoadFile(path string) (*Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			if err := toml.Unmarshal(data, settings); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(settings)

	if _, err := settings.Accrual.Location(); err != nil {
		return nil, fmt.Errorf("invalid ACCRUAL_TIMEZONE %q: %w", settings.Accrual.Timezone, err)
	}
	if settings.Accrual.Workers < 1 {
		settings.Accrual.Workers = 1
	}
	return settings, nil
}

func applyEnvOverrides(s *Settings) {
	setString(&s.Server.Port, "PORT")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		s.Server.AllowedOrigins = splitList(v)
	}
	setFloat(&s.Server.RateLimitRPS, "RATE_LIMIT_RPS")
	setInt(&s.Server.RateLimitBurst, "RATE_LIMIT_BURST")

	setString(&s.Database.Driver, "DB_DRIVER")
	setString(&s.Database.Host, "DB_HOST")
	setString(&s.Database.User, "DB_USER")
	setString(&s.Database.Password, "DB_PASSWORD")
	setString(&s.Database.Name, "DB_NAME")
	setString(&s.Database.Port, "DB_PORT")
	setString(&s.Database.TimeZone, "DB_TIMEZONE")
	setString(&s.Database.Timeout, "DB_TIMEOUT")

	setString(&s.RabbitMQ.Host, "RABBITMQ_HOST")
	setString(&s.RabbitMQ.Port, "RABBITMQ_PORT")
	setString(&s.RabbitMQ.User, "RABBITMQ_USER")
	setString(&s.RabbitMQ.Password, "RABBITMQ_PASSWORD")

	setString(&s.Accrual.Cron, "ACCRUAL_CRON")
	setInt(&s.Accrual.Workers, "ACCRUAL_WORKERS")
	setString(&s.Accrual.Timezone, "ACCRUAL_TIMEZONE")

	setString(&s.Auth.JWTSecret, "JWT_SECRET")
	setString(&s.Auth.TokenExpiry, "JWT_EXPIRY")
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Auth.CookieSecure = b
		}
	}

	setString(&s.Logging.Level, "LOG_LEVEL")
	setString(&s.Logging.File, "LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// splitList splits a comma-separated list and drops empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
