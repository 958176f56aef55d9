package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"InvoiceBox"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		Host        string `envconfig:"DB_HOST" default:"localhost"`
		Port        int    `envconfig:"DB_PORT" default:"5432"`
		User        string `envconfig:"DB_USER" default:"postgres"`
		Password    string `envconfig:"DB_PASSWORD" default:""`
		Name        string `envconfig:"DB_NAME" default:"invoicebox"`
		SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
		AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		// CORSOrigins lists the browser origins allowed to call the API.
		CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
		// RateLimit is the number of requests per minute allowed per client IP.
		RateLimit int  `envconfig:"RATE_LIMIT" default:"120"`
		Secure    bool `envconfig:"SECURE_HEADERS_STRICT" default:"false"`
	}

	Auth struct {
		JWTSecret  string        `envconfig:"JWT_SECRET"`
		Issuer     string        `envconfig:"JWT_ISSUER" default:"invoicebox"`
		TokenTTL   time.Duration `envconfig:"JWT_TTL" default:"24h"`
		BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
	}

	Redis struct {
		URL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	}

	Jobs struct {
		// OverdueSweepCron schedules the overdue sweep. Empty disables it.
		OverdueSweepCron string `envconfig:"OVERDUE_SWEEP_CRON" default:""`
		Concurrency      int    `envconfig:"WORKER_CONCURRENCY" default:"2"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}

	if c.App.LogFormat != "text" && c.App.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.App.LogFormat)
	}

	if c.Server.RateLimit < 0 {
		return errors.New("RATE_LIMIT must not be negative")
	}

	return nil
}
