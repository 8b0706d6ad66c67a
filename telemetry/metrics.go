// Package telemetry provides OpenTelemetry metrics for the Eventful client:
// API request outcomes, read-cache activity, realtime event effects and
// reminder scheduling runs. Metrics can be exported over OTLP and exposed as
// a Prometheus endpoint.
package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

const (
	meterName = "github.com/eventful-app/eventful-go"
)

// MetricsConfig configures the metrics system.
type MetricsConfig struct {
	// ServiceName is the name of the service for resource attributes.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// If empty, OTLP export is disabled.
	OTLPEndpoint string

	// EnablePrometheus enables the Prometheus /metrics endpoint.
	EnablePrometheus bool

	// FlushInterval is how often to export metrics (default: 10s).
	FlushInterval time.Duration
}

// Metrics holds the OpenTelemetry metric instruments.
type Metrics struct {
	apiRequestsTotal      metric.Int64Counter
	apiRequestDuration    metric.Float64Histogram
	apiResponseBytesTotal metric.Int64Counter

	cacheLookupsTotal       metric.Int64Counter
	cachePatchesTotal       metric.Int64Counter
	cacheInvalidationsTotal metric.Int64Counter

	realtimeEventsTotal metric.Int64Counter

	reminderRunsTotal      metric.Int64Counter
	reminderRunDuration    metric.Float64Histogram
	reminderTriggersTotal  metric.Int64Counter
	snapshotEntryWrites    metric.Int64Counter
	snapshotEntriesRestore metric.Int64Counter

	meterProvider *sdkmetric.MeterProvider
	promHandler   http.Handler
}

var (
	globalMetrics *Metrics
	initOnce      sync.Once
	initErr       error
)

// InitMetrics initializes the OpenTelemetry metrics system.
// Returns a shutdown function that should be called on application exit.
// Uses sync.Once to ensure single initialisation.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (shutdown func(context.Context) error, err error) {
	initOnce.Do(func() {
		initErr = doInitMetrics(ctx, cfg)
	})

	if initErr != nil {
		return nil, initErr
	}

	return shutdownMetrics, nil
}

func doInitMetrics(ctx context.Context, cfg MetricsConfig) error {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "eventful-client"
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 10 * time.Second
	}

	// Build resource with service info
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return err
	}

	var readers []sdkmetric.Reader
	var promHandler http.Handler

	// Setup OTLP exporter if endpoint configured
	if cfg.OTLPEndpoint != "" {
		otlpExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(), // Use WithTLSCredentials for production
		)
		if err != nil {
			return err
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(otlpExporter,
			sdkmetric.WithInterval(cfg.FlushInterval),
		))
	}

	// Setup Prometheus exporter if enabled
	if cfg.EnablePrometheus {
		promExp, err := promexporter.New()
		if err != nil {
			return err
		}
		readers = append(readers, promExp)
		promHandler = promhttp.Handler()
	}

	// If no exporters configured, use a no-op periodic reader to still collect metrics
	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewPeriodicReader(noopExporter{},
			sdkmetric.WithInterval(cfg.FlushInterval),
		))
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(meterName)

	apiRequestsTotal, err := meter.Int64Counter(
		"eventful_api_requests_total",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	apiRequestDuration, err := meter.Float64Histogram(
		"eventful_api_request_duration_seconds",
		metric.WithDescription("API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return err
	}

	apiResponseBytesTotal, err := meter.Int64Counter(
		"eventful_api_response_bytes_total",
		metric.WithDescription("Total bytes received in API responses"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	cacheLookupsTotal, err := meter.Int64Counter(
		"eventful_cache_lookups_total",
		metric.WithDescription("Total read-cache lookups by result (hit, stale, miss)"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	cachePatchesTotal, err := meter.Int64Counter(
		"eventful_cache_patches_total",
		metric.WithDescription("Total direct cache patches by result (applied, noop)"),
		metric.WithUnit("{patch}"),
	)
	if err != nil {
		return err
	}

	cacheInvalidationsTotal, err := meter.Int64Counter(
		"eventful_cache_invalidations_total",
		metric.WithDescription("Total cache entries marked stale"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	realtimeEventsTotal, err := meter.Int64Counter(
		"eventful_realtime_events_total",
		metric.WithDescription("Total realtime events received by name and cache effect"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return err
	}

	reminderRunsTotal, err := meter.Int64Counter(
		"eventful_reminder_runs_total",
		metric.WithDescription("Total reminder scheduling runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	reminderRunDuration, err := meter.Float64Histogram(
		"eventful_reminder_run_duration_seconds",
		metric.WithDescription("Duration of reminder scheduling runs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return err
	}

	reminderTriggersTotal, err := meter.Int64Counter(
		"eventful_reminder_triggers_total",
		metric.WithDescription("Total computed reminder triggers by outcome (scheduled, failed, deduped, past)"),
		metric.WithUnit("{trigger}"),
	)
	if err != nil {
		return err
	}

	snapshotEntryWrites, err := meter.Int64Counter(
		"eventful_snapshot_entry_writes_total",
		metric.WithDescription("Total snapshot entry writes by result (written, skipped)"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	snapshotEntriesRestore, err := meter.Int64Counter(
		"eventful_snapshot_entries_restored_total",
		metric.WithDescription("Total cache entries restored from the offline snapshot"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	globalMetrics = &Metrics{
		apiRequestsTotal:        apiRequestsTotal,
		apiRequestDuration:      apiRequestDuration,
		apiResponseBytesTotal:   apiResponseBytesTotal,
		cacheLookupsTotal:       cacheLookupsTotal,
		cachePatchesTotal:       cachePatchesTotal,
		cacheInvalidationsTotal: cacheInvalidationsTotal,
		realtimeEventsTotal:     realtimeEventsTotal,
		reminderRunsTotal:       reminderRunsTotal,
		reminderRunDuration:     reminderRunDuration,
		reminderTriggersTotal:   reminderTriggersTotal,
		snapshotEntryWrites:     snapshotEntryWrites,
		snapshotEntriesRestore:  snapshotEntriesRestore,
		meterProvider:           mp,
		promHandler:             promHandler,
	}

	return nil
}

// shutdownMetrics shuts down the metrics provider and clears the global state.
func shutdownMetrics(ctx context.Context) error {
	if globalMetrics == nil {
		return nil
	}
	err := globalMetrics.meterProvider.Shutdown(ctx)
	globalMetrics = nil
	return err
}

// PrometheusHandler returns the Prometheus metrics handler, or nil if the
// Prometheus exporter is not enabled.
func PrometheusHandler() http.Handler {
	if globalMetrics == nil {
		return nil
	}
	return globalMetrics.promHandler
}

// StatusClass buckets an HTTP status code into "2xx", "3xx", etc.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

// RecordAPIRequest records an API request outcome.
func RecordAPIRequest(ctx context.Context, method string, status int, duration time.Duration, bytesRead int64, outcome string) {
	if globalMetrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("status_class", StatusClass(status)),
		attribute.String("outcome", outcome),
	}
	globalMetrics.apiRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	globalMetrics.apiRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if bytesRead > 0 {
		globalMetrics.apiResponseBytesTotal.Add(ctx, bytesRead, metric.WithAttributes(attrs...))
	}
}

// RecordCacheLookup records a read-cache lookup. Result is one of
// "hit", "stale" or "miss".
func RecordCacheLookup(ctx context.Context, kind, result string) {
	if globalMetrics == nil {
		return
	}

	globalMetrics.cacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

// RecordCachePatch records a direct cache patch attempt.
func RecordCachePatch(ctx context.Context, kind string, applied bool) {
	if globalMetrics == nil {
		return
	}

	result := "noop"
	if applied {
		result = "applied"
	}
	globalMetrics.cachePatchesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

// RecordCacheInvalidation records cache entries marked stale.
func RecordCacheInvalidation(ctx context.Context, kind string, count int) {
	if globalMetrics == nil || count <= 0 {
		return
	}

	globalMetrics.cacheInvalidationsTotal.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordRealtimeEvent records an inbound realtime event and the effect it
// produced (e.g. "patched", "invalidated", "ignored", "malformed").
func RecordRealtimeEvent(ctx context.Context, name, effect string) {
	if globalMetrics == nil {
		return
	}

	globalMetrics.realtimeEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("name", name),
		attribute.String("effect", effect),
	))
}

// RecordReminderRun records a completed reminder scheduling run.
func RecordReminderRun(ctx context.Context, duration time.Duration) {
	if globalMetrics == nil {
		return
	}

	globalMetrics.reminderRunsTotal.Add(ctx, 1)
	globalMetrics.reminderRunDuration.Record(ctx, duration.Seconds())
}

// RecordReminderTrigger records one computed trigger by outcome
// ("scheduled", "failed", "deduped", "past").
func RecordReminderTrigger(ctx context.Context, outcome string) {
	if globalMetrics == nil {
		return
	}

	globalMetrics.reminderTriggersTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordSnapshotWrite records an offline snapshot entry write.
func RecordSnapshotWrite(ctx context.Context, written bool) {
	if globalMetrics == nil {
		return
	}

	result := "skipped"
	if written {
		result = "written"
	}
	globalMetrics.snapshotEntryWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

// RecordSnapshotRestore records entries restored from the offline snapshot.
func RecordSnapshotRestore(ctx context.Context, count int) {
	if globalMetrics == nil || count <= 0 {
		return
	}

	globalMetrics.snapshotEntriesRestore.Add(ctx, int64(count))
}

// noopExporter is a no-op metrics exporter for when no exporters are configured.
type noopExporter struct{}

func (noopExporter) Temporality(_ sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (noopExporter) Aggregation(_ sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return nil
}

func (noopExporter) Export(_ context.Context, _ *metricdata.ResourceMetrics) error {
	return nil
}

func (noopExporter) ForceFlush(_ context.Context) error {
	return nil
}

func (noopExporter) Shutdown(_ context.Context) error {
	return nil
}
