package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config representa a configuração do serviço de vendas, lida do ambiente
type Config struct {
	Port              string `envconfig:"PORT" default:"8080"`
	AppEnv            string `envconfig:"APP_ENV" default:"development"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	ServiceName       string `envconfig:"SERVICE_NAME" default:"sales-service"`
	StorageDriver     string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	MetricsPrefix     string `envconfig:"METRICS_PREFIX" default:"pos"`
	LowStockThreshold int    `envconfig:"LOW_STOCK_THRESHOLD" default:"5"`

	Database DatabaseConfig `envconfig:"DATABASE"`
	Sale     SaleConfig     `envconfig:"SALE"`
	Otel     OtelConfig     `envconfig:"OTEL"`
}

// DatabaseConfig é lido com o prefixo DATABASE_ (ex.: DATABASE_HOST, DATABASE_MAX_CONNS)
type DatabaseConfig struct {
	Host            string `default:"localhost"`
	Port            string `default:"5432"`
	User            string `default:"root"`
	Password        string `default:"pos_pass"`
	Name            string `default:"pos_db"`
	SSLMode         string `split_words:"true" default:"disable"`
	MaxConns        int32  `split_words:"true" default:"25"`
	MinConns        int32  `split_words:"true" default:"5"`
	ConnectAttempts int    `split_words:"true" default:"30"`
	AutoMigrate     bool   `split_words:"true" default:"true"`
}

// DSN monta a connection string no formato URL aceito pelo pgx
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// SaleConfig é lido com o prefixo SALE_
type SaleConfig struct {
	MaxAttempts          int           `split_words:"true" default:"5"`
	RetryInitialInterval time.Duration `split_words:"true" default:"10ms"`
	RetryMaxInterval     time.Duration `split_words:"true" default:"200ms"`
}

// RetryPolicy converte a configuração na política usada pelo SaleUseCase
func (c SaleConfig) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     c.MaxAttempts,
		InitialInterval: c.RetryInitialInterval,
		MaxInterval:     c.RetryMaxInterval,
	}
}

// OtelConfig é lido com o prefixo OTEL_ (OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT)
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
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return errors.Errorf("invalid STORAGE_DRIVER %q: expected %q or %q",
			c.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}
	if c.Sale.MaxAttempts < 1 {
		return errors.Errorf("SALE_MAX_ATTEMPTS must be at least 1, got %d", c.Sale.MaxAttempts)
	}
	if c.LowStockThreshold < 0 {
		return errors.Errorf("LOW_STOCK_THRESHOLD must not be negative, got %d", c.LowStockThreshold)
	}
	return nil
}
