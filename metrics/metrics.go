// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/dispatch/logging"
)

const instrumentationName = "rivaas.dev/dispatch/metrics"

var (
	// DefaultDurationBuckets covers sub-millisecond to ten second handlers.
	DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DefaultSizeBuckets covers 100B to 10MB bodies.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

const maxMetricNameLength = 255

// Prefixes owned by Prometheus and by the built-in request metrics.
var reservedPrefixes = []string{"__", "http_", "dispatch_"}

// ErrLimitReached is returned when a new custom metric would exceed the
// configured maximum.
var ErrLimitReached = errors.New("metrics: custom metric limit reached")

// Recorder owns an OpenTelemetry meter provider backed by a private
// Prometheus registry. All methods are safe for concurrent use.
type Recorder struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	registry      *promclient.Registry
	handler       http.Handler
	logger        *slog.Logger
	filter        *pathFilter

	requestDuration metric.Float64Histogram
	requestCount    metric.Int64Counter
	activeRequests  metric.Int64UpDownCounter
	requestSize     metric.Int64Histogram
	responseSize    metric.Int64Histogram
	errorCount      metric.Int64Counter

	customMu         sync.RWMutex
	customCounters   map[string]metric.Int64Counter
	maxCustomMetrics int

	serviceName     string
	serviceVersion  string
	serviceAttrs    []attribute.KeyValue
	path            string
	durationBuckets []float64
	sizeBuckets     []float64
	registerGlobal  bool
	optionErrors    []error

	stdout         io.Writer
	otlpEndpoint   string
	exportInterval time.Duration

	shutdown atomic.Bool
}

// New creates a [Recorder].
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		logger:           logging.Nop(),
		filter:           newPathFilter(),
		customCounters:   make(map[string]metric.Int64Counter),
		maxCustomMetrics: 1000,
		serviceName:      "dispatchd",
		serviceVersion:   "dev",
		path:             "/metrics",
		durationBuckets:  DefaultDurationBuckets,
		sizeBuckets:      DefaultSizeBuckets,
		exportInterval:   DefaultExportInterval,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics configuration: %w", err)
	}
	if err := r.initProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return r
}

func (r *Recorder) validate() error {
	errs := append([]error(nil), r.optionErrors...)
	if r.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if r.logger == nil {
		errs = append(errs, errors.New("logger cannot be nil"))
	}
	if !strings.HasPrefix(r.path, "/") {
		errs = append(errs, fmt.Errorf("metrics path must start with '/', got %q", r.path))
	}
	if r.maxCustomMetrics < 1 {
		errs = append(errs, fmt.Errorf("max custom metrics must be at least 1, got %d", r.maxCustomMetrics))
	}
	if r.exportInterval <= 0 {
		errs = append(errs, fmt.Errorf("export interval must be positive, got %s", r.exportInterval))
	}

	return errors.Join(errs...)
}

func (r *Recorder) initProvider() error {
	r.registry = promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(r.registry))
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	readers, err := r.pushReaders()
	if err != nil {
		return err
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithReader(exporter)}
	for _, reader := range readers {
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}
	r.meterProvider = sdkmetric.NewMeterProvider(providerOpts...)
	r.handler = promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	if r.registerGlobal {
		otel.SetMeterProvider(r.meterProvider)
	}

	r.meter = r.meterProvider.Meter(instrumentationName)
	r.serviceAttrs = []attribute.KeyValue{
		attribute.String("service.name", r.serviceName),
		attribute.String("service.version", r.serviceVersion),
	}

	return r.initInstruments()
}

func (r *Recorder) initInstruments() error {
	var err error

	r.requestDuration, err = r.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Duration of dispatched requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	r.requestCount, err = r.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of dispatched requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	r.activeRequests, err = r.meter.Int64UpDownCounter(
		"http_requests_active",
		metric.WithDescription("Number of requests being dispatched"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active requests counter: %w", err)
	}

	r.requestSize, err = r.meter.Int64Histogram(
		"http_request_size_bytes",
		metric.WithDescription("Size of request bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create request size histogram: %w", err)
	}

	r.responseSize, err = r.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("Size of response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create response size histogram: %w", err)
	}

	r.errorCount, err = r.meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of failed requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	return nil
}

// Handler returns the Prometheus scrape handler for the private registry.
func (r *Recorder) Handler() http.Handler { return r.handler }

// Path returns the path configured with [WithPath].
func (r *Recorder) Path() string { return r.path }

// Registry returns the Prometheus registry the exporter writes to.
func (r *Recorder) Registry() *promclient.Registry { return r.registry }

// MeterProvider returns the underlying meter provider.
func (r *Recorder) MeterProvider() metric.MeterProvider { return r.meterProvider }

// Excluded reports whether requests to path are not recorded.
func (r *Recorder) Excluded(path string) bool { return r.filter.excluded(path) }

// requestMetrics is the in-flight state of one request.
type requestMetrics struct {
	start time.Time
	attrs []attribute.KeyValue
}

// begin marks a request as active.
func (r *Recorder) begin(ctx context.Context, route string, requestBytes int) *requestMetrics {
	attrs := make([]attribute.KeyValue, 0, len(r.serviceAttrs)+4)
	attrs = append(attrs, r.serviceAttrs...)
	attrs = append(attrs, attribute.String("http.route", route))

	m := &requestMetrics{start: time.Now(), attrs: attrs}
	r.activeRequests.Add(ctx, 1, metric.WithAttributes(m.attrs...))
	if requestBytes > 0 {
		r.requestSize.Record(ctx, int64(requestBytes), metric.WithAttributes(m.attrs...))
	}

	return m
}

// finish records the outcome of a request started with begin.
func (r *Recorder) finish(ctx context.Context, m *requestMetrics, status, responseBytes int, failed bool) {
	r.activeRequests.Add(ctx, -1, metric.WithAttributes(m.attrs...))

	attrs := append(m.attrs[:len(m.attrs):len(m.attrs)],
		attribute.Int("http.status_code", status),
		attribute.String("http.status_class", statusClass(status)),
	)
	set := metric.WithAttributes(attrs...)

	r.requestDuration.Record(ctx, time.Since(m.start).Seconds(), set)
	r.requestCount.Add(ctx, 1, set)
	if failed || status >= 400 {
		r.errorCount.Add(ctx, 1, set)
	}
	if responseBytes > 0 {
		r.responseSize.Record(ctx, int64(responseBytes), set)
	}
}

func statusClass(code int) string {
	switch code / 100 {
	case 1:
		return "1xx"
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	default:
		return "unknown"
	}
}

// IncrementCounter adds one to the custom counter name, creating it on
// first use.
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attrs ...attribute.KeyValue) error {
	return r.AddCounter(ctx, name, 1, attrs...)
}

// AddCounter adds value to the custom counter name, creating it on first
// use.
func (r *Recorder) AddCounter(ctx context.Context, name string, value int64, attrs ...attribute.KeyValue) error {
	counter, err := r.counter(name)
	if err != nil {
		return fmt.Errorf("add counter %q: %w", name, err)
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))

	return nil
}

func (r *Recorder) counter(name string) (metric.Int64Counter, error) {
	r.customMu.RLock()
	c, ok := r.customCounters[name]
	r.customMu.RUnlock()
	if ok {
		return c, nil
	}

	if err := validateMetricName(name); err != nil {
		return nil, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()

	if c, ok = r.customCounters[name]; ok {
		return c, nil
	}
	if len(r.customCounters) >= r.maxCustomMetrics {
		return nil, fmt.Errorf("%w (limit %d)", ErrLimitReached, r.maxCustomMetrics)
	}

	c, err := r.meter.Int64Counter(name, metric.WithDescription("Custom counter"))
	if err != nil {
		return nil, err
	}
	r.customCounters[name] = c

	return c, nil
}

func validateMetricName(name string) error {
	if name == "" {
		return errors.New("metric name cannot be empty")
	}
	if len(name) > maxMetricNameLength {
		return fmt.Errorf("metric name too long: %d characters (max %d)", len(name), maxMetricNameLength)
	}
	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("invalid metric name %q", name)
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("metric name %q uses reserved prefix %q", name, prefix)
		}
	}

	return nil
}

// Shutdown flushes and stops the meter provider. It is idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	if err := r.meterProvider.ForceFlush(ctx); err != nil {
		r.logger.Warn("metrics flush failed", "error", err)
	}
	if err := r.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}
