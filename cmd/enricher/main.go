// Command enricher runs the raw-payload worker loop: it reads
// CollectorPayload records off the raw lane, runs them through the
// enrichment chain, and writes the resulting AtomicEvent records to the
// events lane (or an ErrorPayload to the errors lane on failure).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/datenstrom/datenstrom-go/internal/clock"
	"github.com/datenstrom/datenstrom-go/internal/codec"
	"github.com/datenstrom/datenstrom-go/internal/config"
	"github.com/datenstrom/datenstrom-go/internal/enrich"
	"github.com/datenstrom/datenstrom-go/internal/iglu"
	"github.com/datenstrom/datenstrom-go/internal/raw"
	"github.com/datenstrom/datenstrom-go/internal/rawproc"
	"github.com/datenstrom/datenstrom-go/internal/remoteconfig"
	"github.com/datenstrom/datenstrom-go/internal/transport/dev"
	"github.com/datenstrom/datenstrom-go/internal/transport/kafka"
	"github.com/datenstrom/datenstrom-go/internal/transport/sqs"
	"github.com/datenstrom/datenstrom-go/internal/version"
	"github.com/datenstrom/datenstrom-go/internal/worker"
)

func main() {
	app := &cli.App{
		Name:    "enricher",
		Usage:   "run the datenstrom event enrichment worker",
		Version: version.Version,
		Flags:   config.Flags,
		Action:  run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("enricher: fatal error")
	}
}

func run(cliCtx *cli.Context) error {
	log := logrus.NewEntry(logrus.StandardLogger())

	cfg, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	realClock := clock.Real{}

	registry, err := buildRegistry(cfg, realClock, log)
	if err != nil {
		return err
	}

	var geoDB *geoip2.Reader
	if cfg.GeoIPDatabasePath != "" {
		geoDB, err = geoip2.Open(cfg.GeoIPDatabasePath)
		if err != nil {
			return fmt.Errorf("enricher: opening geoip database: %w", err)
		}
		defer geoDB.Close()
	}

	tenantStage, err := enrich.NewTenantEnrichment(cfg.TenantLookupEndpoint, realClock, log)
	if err != nil {
		return err
	}

	siteConfig, err := remoteconfig.NewResolver(cfg.RemoteConfigEndpoint, realClock)
	if err != nil {
		return err
	}

	chain := enrich.NewChain(
		enrich.ProcessingInfoEnrichment{},
		enrich.TransformEnrichment{},
		enrich.EventExtractionEnrichment{Registry: registry},
		enrich.ContextExtractionEnrichment{Registry: registry},
		tenantStage,
		enrich.GeoIPEnrichment{DB: geoDB},
		enrich.CampaignEnrichment{},
		enrich.DeviceEnrichment{},
		enrich.NewAuthenticationEnrichment(cfg.AuthenticationIssuerJWKSURLs, log),
		enrich.PostProcessingEnrichment{Clock: realClock},
		enrich.PIIEnrichment{},
	)
	processor := rawproc.NewRawProcessor(chain, siteConfig)

	rawSource, eventsSink, errorsSink, err := buildTransport(cfg)
	if err != nil {
		return err
	}

	counter := worker.NewErrorCounter(log)
	loop := &worker.Loop{
		Source:    rawSource,
		BatchSize: cfg.BatchSize,
		Counter:   counter,
		Log:       log,
		Process: func(ctx context.Context, body []byte) error {
			return processRawRecord(ctx, cfg, processor, eventsSink, errorsSink, body, log)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("version", version.Version).Info("enricher: starting")
	err = loop.Run(ctx)
	if err == context.Canceled {
		log.Info("enricher: shutting down")
		return nil
	}
	return err
}

func processRawRecord(ctx context.Context, cfg config.Config, processor *rawproc.RawProcessor, eventsSink, errorsSink worker.Sink, body []byte, log *logrus.Entry) error {
	payload, err := codec.Decode(cfg.RecordFormat, body)
	if err != nil {
		return writeError(ctx, errorsSink, "", fmt.Sprintf("decode failed: %v", err), body)
	}

	events, err := processor.Process(payload)
	if err != nil {
		domain := payload.Collector
		if payload.Hostname != nil {
			domain = *payload.Hostname
		}
		return writeError(ctx, errorsSink, domain, err.Error(), body)
	}

	for _, event := range events {
		out, err := event.ToJSON()
		if err != nil {
			return err
		}
		if err := eventsSink.Write(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

func writeError(ctx context.Context, errorsSink worker.Sink, domain, reason string, payload []byte) error {
	errPayload := raw.NewErrorPayload(domain, reason, payload)
	out, err := errPayload.ToBytes()
	if err != nil {
		return err
	}
	// A failure to process a record is not itself a worker-loop failure
	// once it has been durably recorded on the errors lane.
	return errorsSink.Write(ctx, out)
}

func buildRegistry(cfg config.Config, c clock.Clock, log *logrus.Entry) (*iglu.Registry, error) {
	hardcoded, err := iglu.NewHardcodedRegistry()
	if err != nil {
		return nil, err
	}
	remotes := make([]iglu.Resolver, 0, len(cfg.IgluSchemaRegistries))
	for _, base := range cfg.IgluSchemaRegistries {
		r, err := iglu.NewRemoteRegistry(base, c, log)
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, r)
	}
	return iglu.NewRegistry(hardcoded, remotes...)
}

func buildTransport(cfg config.Config) (worker.Source, worker.Sink, worker.Sink, error) {
	switch cfg.Transport {
	case "kafka":
		rawSource, err := kafka.NewSource(cfg.KafkaBrokers, cfg.KafkaGroup, cfg.KafkaRawTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		eventsSink, err := kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		errorsSink, err := kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaErrorsTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		return rawSource, eventsSink, errorsSink, nil

	case "sqs":
		sess, err := session.NewSession()
		if err != nil {
			return nil, nil, nil, err
		}
		rawSource := sqs.NewSource(sess, cfg.SQSRawQueueURL, true)
		eventsSink := sqs.NewSink(sess, cfg.SQSEventsQueueURL, false)
		errorsSink := sqs.NewSink(sess, cfg.SQSErrorsQueueURL, false)
		return rawSource, eventsSink, errorsSink, nil

	case "dev", "":
		return dev.NewSource(1024), dev.NewSink(), dev.NewSink(), nil

	default:
		return nil, nil, nil, fmt.Errorf("enricher: unknown transport %q", cfg.Transport)
	}
}
