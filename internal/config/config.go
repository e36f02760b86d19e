// Package config defines the enricher's typed configuration and loads it
// from a JSON file, environment variables, or CLI flags, in that order of
// increasing precedence — mirroring the layered settings resolution the
// teacher's config layer documents for each field.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/datenstrom/datenstrom-go/internal/codec"
)

// Config is the enricher's full runtime configuration. Every field has a
// JSON key; the fields with an entry in Flags also have a CLI flag and an
// environment variable (DATENSTROM_<UPPER_SNAKE>), which override the JSON
// file.
type Config struct {
	// RecordFormat selects the wire codec used on the raw lane.
	RecordFormat codec.Format `json:"record_format"`
	// MaxBytes bounds a single raw record before the split algorithm
	// kicks in.
	MaxBytes int `json:"max_bytes"`

	// Transport selects the lane implementation: "dev", "kafka", or "sqs".
	Transport string `json:"transport"`

	KafkaBrokers     []string `json:"kafka_brokers"`
	KafkaGroup       string   `json:"kafka_group"`
	KafkaRawTopic    string   `json:"kafka_raw_topic"`
	KafkaEventsTopic string   `json:"kafka_events_topic"`
	KafkaErrorsTopic string   `json:"kafka_errors_topic"`

	SQSRawQueueURL    string `json:"sqs_raw_queue_url"`
	SQSEventsQueueURL string `json:"sqs_events_queue_url"`
	SQSErrorsQueueURL string `json:"sqs_errors_queue_url"`

	FirehoseDeliveryStream string `json:"firehose_delivery_stream"`

	IgluSchemaRegistries []string `json:"iglu_schema_registries"`

	GeoIPDatabasePath string `json:"geoip_database_path"`

	TenantLookupEndpoint    string `json:"tenant_lookup_endpoint"`
	RemoteConfigEndpoint    string `json:"remote_config_endpoint"`

	AuthenticationIssuerJWKSURLs map[string]string `json:"authentication_issuer_jwks_urls"`

	BatchSize int `json:"batch_size"`
}

// Default returns the baseline configuration: dev transport, Thrift record
// format, no remote dependencies configured.
func Default() Config {
	return Config{
		RecordFormat: codec.FormatThrift,
		MaxBytes:     190000,
		Transport:    "dev",
		BatchSize:    10,
	}
}

// Load resolves a Config from defaults, an optional JSON config file, and
// an urfave/cli context, with later sources overriding earlier ones.
func Load(ctx *cli.Context) (Config, error) {
	cfg := Default()

	path := ctx.String("config")
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		if err := mergeJSONFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if v := ctx.String("record-format"); v != "" {
		cfg.RecordFormat = codec.Format(v)
	}
	if v := ctx.Int("max-bytes"); v != 0 {
		cfg.MaxBytes = v
	}
	if v := ctx.String("transport"); v != "" {
		cfg.Transport = v
	}
	if v := ctx.StringSlice("kafka-brokers"); len(v) > 0 {
		cfg.KafkaBrokers = v
	}
	if v := ctx.String("kafka-group"); v != "" {
		cfg.KafkaGroup = v
	}
	if v := ctx.String("geoip-database-path"); v != "" {
		cfg.GeoIPDatabasePath = v
	}
	if v := ctx.String("tenant-lookup-endpoint"); v != "" {
		cfg.TenantLookupEndpoint = v
	}
	if v := ctx.String("remote-config-endpoint"); v != "" {
		cfg.RemoteConfigEndpoint = v
	}
	if v := ctx.Int("batch-size"); v != 0 {
		cfg.BatchSize = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the resolved Config for internal consistency, collecting
// every problem found rather than stopping at the first one so an operator
// fixing a config file sees all the mistakes in one pass.
func (c Config) Validate() error {
	var err error

	switch c.RecordFormat {
	case codec.FormatThrift, codec.FormatAvro:
	default:
		err = multierr.Append(err, fmt.Errorf("config: record_format must be %q or %q, got %q", codec.FormatThrift, codec.FormatAvro, c.RecordFormat))
	}

	if c.MaxBytes <= 0 {
		err = multierr.Append(err, fmt.Errorf("config: max_bytes must be positive, got %d", c.MaxBytes))
	}

	switch c.Transport {
	case "dev":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			err = multierr.Append(err, fmt.Errorf("config: transport=kafka requires kafka_brokers"))
		}
	case "sqs":
		if c.SQSRawQueueURL == "" && c.SQSEventsQueueURL == "" {
			err = multierr.Append(err, fmt.Errorf("config: transport=sqs requires at least one queue URL"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("config: transport must be one of dev, kafka, sqs, got %q", c.Transport))
	}

	if c.BatchSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize))
	}

	return err
}

func mergeJSONFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Flags is the urfave/cli flag set matching Config's fields.
var Flags = []cli.Flag{
	&cli.StringFlag{Name: "config", EnvVars: []string{"DATENSTROM_CONFIG"}, Usage: "path to a JSON config file"},
	&cli.StringFlag{Name: "record-format", EnvVars: []string{"DATENSTROM_RECORD_FORMAT"}, Usage: "thrift or avro"},
	&cli.IntFlag{Name: "max-bytes", EnvVars: []string{"DATENSTROM_MAX_BYTES"}},
	&cli.StringFlag{Name: "transport", EnvVars: []string{"DATENSTROM_TRANSPORT"}, Usage: "dev, kafka, or sqs"},
	&cli.StringSliceFlag{Name: "kafka-brokers", EnvVars: []string{"DATENSTROM_KAFKA_BROKERS"}},
	&cli.StringFlag{Name: "kafka-group", EnvVars: []string{"DATENSTROM_KAFKA_GROUP"}},
	&cli.StringFlag{Name: "geoip-database-path", EnvVars: []string{"DATENSTROM_GEOIP_DATABASE_PATH"}},
	&cli.StringFlag{Name: "tenant-lookup-endpoint", EnvVars: []string{"DATENSTROM_TENANT_LOOKUP_ENDPOINT"}},
	&cli.StringFlag{Name: "remote-config-endpoint", EnvVars: []string{"DATENSTROM_REMOTE_CONFIG_ENDPOINT"}},
	&cli.IntFlag{Name: "batch-size", EnvVars: []string{"DATENSTROM_BATCH_SIZE"}},
}
