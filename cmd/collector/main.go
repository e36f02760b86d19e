// Command collector is a minimal out-of-core HTTP ingest stub: it builds a
// CollectorPayload from each tracker request and writes it to the raw
// lane, always answering 200 so trackers never retry-storm a transient
// backend failure. Cookie handling, CORS, and the full collector protocol
// surface are out of scope; this exists so the pipeline can be exercised
// end to end without a separate, independently-specified collector.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/datenstrom/datenstrom-go/internal/codec"
	"github.com/datenstrom/datenstrom-go/internal/config"
	"github.com/datenstrom/datenstrom-go/internal/raw"
	"github.com/datenstrom/datenstrom-go/internal/transport/dev"
	"github.com/datenstrom/datenstrom-go/internal/transport/kafka"
	"github.com/datenstrom/datenstrom-go/internal/transport/sqs"
	"github.com/datenstrom/datenstrom-go/internal/version"
	"github.com/datenstrom/datenstrom-go/internal/worker"
)

func main() {
	app := &cli.App{
		Name:    "collector",
		Usage:   "accept tracker requests and write them to the raw lane",
		Version: version.Version,
		Flags: append(config.Flags, &cli.StringFlag{
			Name: "listen-addr", Value: ":8080", EnvVars: []string{"DATENSTROM_LISTEN_ADDR"},
		}),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("collector: fatal error")
	}
}

func run(cliCtx *cli.Context) error {
	log := logrus.NewEntry(logrus.StandardLogger())

	cfg, err := config.Load(cliCtx)
	if err != nil {
		return err
	}

	rawSink, err := buildRawSink(cfg)
	if err != nil {
		return err
	}
	defer rawSink.Close()

	h := &handler{cfg: cfg, rawSink: rawSink, log: log}

	router := mux.NewRouter()
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	router.HandleFunc("/{vendor}/tp2", h.track).Methods(http.MethodPost, http.MethodGet)

	addr := cliCtx.String("listen-addr")
	log.WithField("addr", addr).Info("collector: listening")
	return http.ListenAndServe(addr, router)
}

type handler struct {
	cfg     config.Config
	rawSink worker.Sink
	log     *logrus.Entry
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (h *handler) track(w http.ResponseWriter, r *http.Request) {
	// Always answer 200: a tracker retrying an ingest failure is worse for
	// the backend than silently losing the one event.
	defer w.WriteHeader(http.StatusOK)

	payload, err := h.buildPayload(r)
	if err != nil {
		h.log.WithError(err).Warn("collector: dropping malformed request")
		return
	}

	encoded, err := codec.Encode(h.cfg.RecordFormat, payload)
	if err != nil {
		h.log.WithError(err).Error("collector: encoding payload")
		return
	}

	if err := h.rawSink.Write(r.Context(), encoded); err != nil {
		h.log.WithError(err).Error("collector: writing to raw lane")
	}
}

func (h *handler) buildPayload(r *http.Request) (raw.CollectorPayload, error) {
	var body []byte
	var contentType *string
	if r.Method == http.MethodPost {
		b, err := io.ReadAll(io.LimitReader(r.Body, int64(h.cfg.MaxBytes)+1))
		if err != nil {
			return raw.CollectorPayload{}, err
		}
		if len(b) > h.cfg.MaxBytes {
			return raw.CollectorPayload{}, fmt.Errorf("collector: request body exceeds max_bytes")
		}
		body = b
		ct := r.Header.Get("Content-Type")
		contentType = &ct
	}

	headers := make([]string, 0, len(r.Header))
	for name, values := range r.Header {
		for _, v := range values {
			headers = append(headers, fmt.Sprintf("%s: %s", name, v))
		}
	}

	userAgent := r.UserAgent()
	referer := r.Referer()
	path := r.URL.Path
	query := r.URL.RawQuery
	host := r.Host

	return raw.CollectorPayload{
		IPAddress:   clientIP(r),
		Timestamp:   time.Now().UnixMilli(),
		Encoding:    "UTF-8",
		Collector:   "datenstrom-collector",
		UserAgent:   &userAgent,
		RefererURI:  &referer,
		Path:        &path,
		Querystring: &query,
		Body:        body,
		Headers:     headers,
		ContentType: contentType,
		Hostname:    &host,
	}, nil
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func buildRawSink(cfg config.Config) (worker.Sink, error) {
	switch cfg.Transport {
	case "kafka":
		return kafka.NewSink(cfg.KafkaBrokers, cfg.KafkaRawTopic)
	case "sqs":
		sess, err := session.NewSession()
		if err != nil {
			return nil, err
		}
		return sqs.NewSink(sess, cfg.SQSRawQueueURL, true), nil
	default:
		return dev.NewSink(), nil
	}
}
