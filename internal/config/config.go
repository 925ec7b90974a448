// Package config loads service configuration from the environment.
package config

import "github.com/kelseyhightower/envconfig"

// API configures the storefront API service.
type API struct {
	Port         string   `envconfig:"PORT" default:"8080"`
	PostgresURL  string   `envconfig:"POSTGRES_URL" required:"true"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	OTLPEndpoint string   `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

// Admin configures the admin UI service.
type Admin struct {
	Port        string `envconfig:"PORT" default:"8090"`
	PostgresURL string `envconfig:"POSTGRES_URL" required:"true"`
}

// Worker configures the payment worker.
type Worker struct {
	KafkaBrokers  []string `envconfig:"KAFKA_BROKERS" required:"true"`
	APIURL        string   `envconfig:"API_URL" required:"true"`
	EmailURL      string   `envconfig:"EMAIL_SERVICE_URL" required:"true"`
	ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"payment-worker"`
	PaymentLimit  string   `envconfig:"PAYMENT_LIMIT"`
	OTLPEndpoint  string   `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

// Email configures the mock email delivery service.
type Email struct {
	Port string `envconfig:"PORT" default:"8085"`
}

// Load fills cfg from the environment. cfg must be a pointer to one of
// the structs above.
func Load(cfg any) error {
	return envconfig.Process("", cfg)
}
