// Package config loads the API configuration.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/imrishuroy/dishflow/internal/validation"
)

// Modes
const (
	ModeLocal  = "local"
	ModeLambda = "lambda"
)

// Config holds the complete API configuration, loadable from environment
// variables (DISHFLOW_ prefix), flags, or YAML config files.
type Config struct {
	Mode        string `default:"local" usage:"Run as a local HTTP server or a Lambda handler" validate:"oneof=local lambda"`
	Addr        string `default:":8080" usage:"Listen address in local mode"`
	LogLevel    string `default:"info" usage:"Log level" flag:"log-level"`
	Development bool   `default:"false" usage:"Human readable logs"`
	Seed        SeedConfig
	Idempotency IdempotencyConfig
	Events      EventsConfig
	Metrics     MetricsConfig
	AWS         AWSConfig
	Tracing     TracingConfig
	Graceful    GracefulConfig
}

// SeedConfig selects where the initial records come from.
type SeedConfig struct {
	Source      string `default:"embedded" usage:"embedded, file or dynamodb" validate:"oneof=embedded file dynamodb"`
	File        string `usage:"Seed JSON path when source is file" validate:"required_if=Source file"`
	DishesTable string `usage:"DynamoDB dishes table when source is dynamodb" validate:"required_if=Source dynamodb"`
	OrdersTable string `usage:"DynamoDB orders table when source is dynamodb" validate:"required_if=Source dynamodb"`
}

// IdempotencyConfig controls Idempotency-Key replay for create requests.
type IdempotencyConfig struct {
	TTL time.Duration `default:"24h" usage:"How long a stored response can be replayed" validate:"gt=0"`
}

// EventsConfig controls lifecycle event publishing.
type EventsConfig struct {
	QueueURL string `usage:"SQS queue URL for lifecycle events; empty disables publishing" flag:"queue-url"`
}

// MetricsConfig controls CloudWatch metrics.
type MetricsConfig struct {
	Namespace     string        `usage:"CloudWatch namespace; empty disables metrics"`
	FlushInterval time.Duration `default:"1m" usage:"Metrics flush interval in local mode" validate:"gt=0"`
}

// AWSConfig overrides the default AWS client settings.
type AWSConfig struct {
	Region   string `default:"us-east-1" usage:"AWS region"`
	Endpoint string `usage:"AWS endpoint override, e.g. localstack"`
}

// TracingConfig controls the OTLP trace exporter.
type TracingConfig struct {
	Endpoint string `usage:"OTLP gRPC endpoint; empty disables tracing"`
	Insecure bool   `default:"false" usage:"Disable TLS to the OTLP endpoint"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Load loads configuration from environment variables, flags and YAML
// config files.
func Load() (*Config, error) {
	return load(aconfig.Config{
		EnvPrefix: "DISHFLOW",
		Files:     []string{"config.yaml", "/etc/dishflow/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func load(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := validation.New().Struct(&cfg); err != nil {
		return nil, errors.Errorf("invalid config: %s", validation.Describe(err))
	}
	return &cfg, nil
}

// applyPlatformDefaults honours RUN_LOCAL and PORT, which local tooling sets
// without the DISHFLOW_ prefix.
func (c *Config) applyPlatformDefaults() {
	if strings.EqualFold(os.Getenv("RUN_LOCAL"), "true") {
		c.Mode = ModeLocal
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == ":8080" {
		c.Addr = ":" + port
	}
}

// Lambda reports whether the API runs behind API Gateway.
func (c *Config) Lambda() bool {
	return c.Mode == ModeLambda
}
