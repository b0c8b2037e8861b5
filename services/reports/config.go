package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config representa a configuração do serviço de relatórios
type Config struct {
	Port              string        `envconfig:"PORT" default:"8081"`
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	ServiceName       string        `envconfig:"SERVICE_NAME" default:"reports-service"`
	SalesSource       string        `envconfig:"SALES_SOURCE" default:"http"`
	SalesServiceURL   string        `envconfig:"SALES_SERVICE_URL" default:"http://localhost:8080"`
	SalesTimeout      time.Duration `envconfig:"SALES_SERVICE_TIMEOUT" default:"5s"`
	SalesRetries      int           `envconfig:"SALES_SERVICE_RETRIES" default:"2"`
	Timezone          string        `envconfig:"REPORT_TIMEZONE" default:"UTC"`
	WindowDays        int           `envconfig:"REPORT_WINDOW_DAYS" default:"7"`
	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`

	Database DatabaseConfig `envconfig:"DATABASE"`
	Otel     OtelConfig     `envconfig:"OTEL"`
}

// DatabaseConfig é lido com o prefixo DATABASE_; usado só com SALES_SOURCE=postgres
type DatabaseConfig struct {
	Host         string `default:"localhost"`
	Port         string `default:"5432"`
	User         string `default:"root"`
	Password     string `default:"pos_pass"`
	Name         string `default:"pos_db"`
	SSLMode      string `split_words:"true" default:"disable"`
	MaxOpenConns int    `split_words:"true" default:"10"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type OtelConfig struct {
	Enabled              bool   `default:"false"`
	ExporterOtlpEndpoint string `split_words:"true" default:"localhost:4318"`
}

// LoadConfig carrega o .env (se existir) e depois as variáveis de ambiente
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.SalesSource {
	case SourceHTTP, SourcePostgres:
	default:
		return errors.Errorf("invalid SALES_SOURCE %q: expected %q or %q", c.SalesSource, SourceHTTP, SourcePostgres)
	}
	if c.WindowDays < 1 || c.WindowDays > maxWindowDays {
		return errors.Errorf("REPORT_WINDOW_DAYS must be between 1 and %d, got %d", maxWindowDays, c.WindowDays)
	}
	if c.LowStockThreshold < 0 {
		return errors.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.LowStockThreshold)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolve REPORT_TIMEZONE, que define a fronteira do dia nos relatórios
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid REPORT_TIMEZONE %q", c.Timezone)
	}
	return loc, nil
}
