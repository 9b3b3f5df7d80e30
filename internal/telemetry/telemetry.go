package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/murmurlabs/murmur/internal/config"
)

// Level maps a config string to a slog level, defaulting to info.
func Level(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Metrics holds the pipeline's instruments.
type Metrics struct {
	meter        metric.Meter
	Triggers     metric.Int64Counter
	Utterances   metric.Int64Counter
	SpotDuration metric.Float64Histogram
}

// Telemetry owns the meter provider and the Prometheus scrape endpoint.
type Telemetry struct {
	provider *sdkmetric.MeterProvider
	server   *http.Server
	log      *slog.Logger
	Metrics  *Metrics
}

// Setup initializes the otel meter provider with a Prometheus exporter and
// serves the scrape endpoint on cfg.PrometheusBind.
func Setup(cfg config.TelemetryConfig, log *slog.Logger) (*Telemetry, error) {
	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("murmur")),
	)
	if err != nil {
		return nil, err
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter("github.com/murmurlabs/murmur")
	metrics := &Metrics{meter: meter}
	if metrics.Triggers, err = meter.Int64Counter("murmur_triggers_total"); err != nil {
		return nil, err
	}
	if metrics.Utterances, err = meter.Int64Counter("murmur_utterances_total"); err != nil {
		return nil, err
	}
	if metrics.SpotDuration, err = meter.Float64Histogram("murmur_recognizer_seconds"); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              cfg.PrometheusBind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
	log.Info("metrics endpoint started", slog.String("addr", cfg.PrometheusBind))

	return &Telemetry{provider: provider, server: server, log: log, Metrics: metrics}, nil
}

// ObserveDroppedFrames registers a gauge backed by the capture queue's drop
// counter.
func (m *Metrics) ObserveDroppedFrames(read func() uint64) error {
	_, err := m.meter.Int64ObservableGauge("murmur_frames_dropped",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(read()))
			return nil
		}))
	return err
}

// CountTrigger records one arbitration outcome.
func (m *Metrics) CountTrigger(ctx context.Context, kind string) {
	m.Triggers.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// ObserveRecognizer records the duration of one recognizer call, tagged with
// the pipeline phase that issued it ("spot" or "transcribe").
func (m *Metrics) ObserveRecognizer(ctx context.Context, phase string, seconds float64) {
	m.SpotDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("phase", phase)))
}

// CountUtterance records one finished recording episode.
func (m *Metrics) CountUtterance(ctx context.Context, outcome string) {
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Shutdown stops the scrape endpoint and flushes the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if err := t.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
