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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/logging"
)

const instrumentationName = "rivaas.dev/dispatch/tracing"

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"proxy-authorization": true,
	"x-api-key":           true,
	"x-auth-token":        true,
}

// Tracer owns an SDK tracer provider. It never touches the global
// OpenTelemetry state unless [WithGlobalTracerProvider] is given.
type Tracer struct {
	provider   *sdktrace.TracerProvider
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	logger     *slog.Logger

	serviceName    string
	serviceVersion string
	sampleRate     float64
	stdout         io.Writer
	otlp           *otlpTarget
	exporters      []sdktrace.SpanExporter
	excludePaths   map[string]bool
	headers        []string
	injectResponse bool
	registerGlobal bool
	optionErrors   []error

	shutdown atomic.Bool
}

// New creates a [Tracer].
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		logger:         logging.Nop(),
		serviceName:    "dispatchd",
		serviceVersion: "dev",
		sampleRate:     1.0,
		excludePaths:   make(map[string]bool),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}
	if err := t.initProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *Tracer) validate() error {
	errs := append([]error(nil), t.optionErrors...)
	if t.serviceName == "" {
		errs = append(errs, errors.New("service name cannot be empty"))
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		errs = append(errs, fmt.Errorf("sample rate must be between 0 and 1, got %g", t.sampleRate))
	}
	if t.logger == nil {
		errs = append(errs, errors.New("logger cannot be nil"))
	}
	if t.propagator == nil {
		errs = append(errs, errors.New("propagator cannot be nil"))
	}
	if t.otlp != nil && t.otlp.endpoint == "" {
		errs = append(errs, errors.New("OTLP endpoint cannot be empty"))
	}
	for i, exp := range t.exporters {
		if exp == nil {
			errs = append(errs, fmt.Errorf("span exporter %d is nil", i))
		}
	}

	return errors.Join(errs...)
}

func (t *Tracer) initProvider() error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(t.serviceName),
			semconv.ServiceVersion(t.serviceVersion),
		)),
		sdktrace.WithSampler(sampler(t.sampleRate)),
	}

	if t.stdout != nil {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(t.stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	if t.otlp != nil {
		exp, err := t.otlp.exporter(context.Background())
		if err != nil {
			return err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	for _, exp := range t.exporters {
		opts = append(opts, sdktrace.WithSyncer(exp))
	}

	t.provider = sdktrace.NewTracerProvider(opts...)
	t.tracer = t.provider.Tracer(instrumentationName)

	if t.registerGlobal {
		otel.SetTracerProvider(t.provider)
		otel.SetTextMapPropagator(t.propagator)
	}
	t.logger.Debug("tracing initialized",
		"service", t.serviceName,
		"sample_rate", t.sampleRate,
		"stdout", t.stdout != nil,
		"otlp", t.otlp.String(),
	)

	return nil
}

func sampler(rate float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(rate)
	}

	return sdktrace.ParentBased(root)
}

// Start starts a span as a child of the span in ctx.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// TracerProvider returns the underlying tracer provider.
func (t *Tracer) TracerProvider() trace.TracerProvider { return t.provider }

// Propagator returns the propagator used for request headers.
func (t *Tracer) Propagator() propagation.TextMapPropagator { return t.propagator }

// Shutdown flushes pending spans and stops the provider. It is idempotent.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracer provider shutdown: %w", err)
	}

	return nil
}
