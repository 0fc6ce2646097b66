// Package config loads and validates the environment-driven service
// configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresURL string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Quick date ranges
	WeekStart string

	// AMQP (optional; empty URL disables events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tally.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 168*time.Hour),

		WeekStart: getEnv("WEEK_START", "monday"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tally"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),
	}
}

// WeekStartDay maps the configured week start to a weekday. Validate
// has already rejected anything but monday or sunday.
func (c *Config) WeekStartDay() time.Weekday {
	if strings.EqualFold(c.WeekStart, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// Validate checks every setting and reports all problems at once, so a
// misconfigured deployment fails with the full list instead of one
// complaint per restart.
func (c *Config) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if n, err := strconv.Atoi(c.Port); err != nil {
		addf("invalid port %q: not a number", c.Port)
	} else if n < 1 || n > 65535 {
		addf("invalid port %d: out of range 1-65535", n)
	}

	switch c.DataBackend {
	case "sqlite":
		c.checkSQLite(addf)
	case "postgres":
		c.checkPostgres(addf)
	default:
		addf("invalid data backend %q: want sqlite or postgres", c.DataBackend)
	}

	if c.JWTSecret == "" {
		addf("JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		addf("JWT_SECRET must be at least 16 characters")
	}

	if c.TokenTTL < time.Minute || c.TokenTTL > 365*24*time.Hour {
		addf("invalid token TTL %v: want between 1 minute and 1 year", c.TokenTTL)
	}

	if !strings.EqualFold(c.WeekStart, "monday") && !strings.EqualFold(c.WeekStart, "sunday") {
		addf("invalid week start %q: want monday or sunday", c.WeekStart)
	}

	c.checkAMQP(addf)

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func (c *Config) checkSQLite(addf func(string, ...any)) {
	if c.SQLiteDBPath == "" {
		addf("SQLite database path is required for the sqlite backend")
		return
	}
	// Create the parent directory up front so the first open succeeds.
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir == "." || dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			addf("cannot create SQLite database directory %q: %v", dir, err)
		}
	}
}

func (c *Config) checkPostgres(addf func(string, ...any)) {
	if c.PostgresURL == "" {
		addf("POSTGRES_URL is required for the postgres backend")
		return
	}
	u, err := url.Parse(c.PostgresURL)
	if err != nil {
		addf("invalid Postgres URL: %v", err)
		return
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		addf("invalid Postgres URL scheme %q: want postgres or postgresql", u.Scheme)
	}
}

func (c *Config) checkAMQP(addf func(string, ...any)) {
	if c.AMQPURL == "" {
		return
	}
	u, err := url.Parse(c.AMQPURL)
	switch {
	case err != nil:
		addf("invalid AMQP URL: %v", err)
	case u.Scheme != "amqp" && u.Scheme != "amqps":
		addf("invalid AMQP URL scheme %q: want amqp or amqps", u.Scheme)
	}
	if c.AMQPExchange == "" {
		addf("AMQP exchange name is required when AMQP URL is set")
	}
	if c.AMQPQueue == "" {
		addf("AMQP queue name is required when AMQP URL is set")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
