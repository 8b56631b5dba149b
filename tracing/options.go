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
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate sets the fraction of root spans that are sampled, from 0
// to 1.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = rate
	}
}

// WithStdout exports finished spans as indented JSON to w in batches.
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.stdout = w
	}
}

// WithSpanExporter exports finished spans synchronously to exp. It is
// mostly useful in tests with an in-memory exporter.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(t *Tracer) {
		t.exporters = append(t.exporters, exp)
	}
}

// WithPropagator replaces the default W3C trace context and baggage
// propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = p
	}
}

// WithGlobalTracerProvider registers the tracer provider and propagator
// with the otel package.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithLogger sets the logger for operational messages.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		t.logger = logger
	}
}

// WithExcludePaths disables tracing for exact request paths.
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		for _, p := range paths {
			t.excludePaths[p] = true
		}
	}
}

// WithHeaders records the given request headers as span attributes named
// http.request.header.<lowercase name>. Credential headers are rejected
// by [New].
func WithHeaders(headers ...string) Option {
	return func(t *Tracer) {
		for _, h := range headers {
			lower := strings.ToLower(h)
			if sensitiveHeaders[lower] {
				t.optionErrors = append(t.optionErrors, fmt.Errorf("header %q cannot be recorded", h))
				continue
			}
			t.headers = append(t.headers, h)
		}
	}
}

// WithResponseTraceContext writes the trace context of the dispatch span
// to the response headers.
func WithResponseTraceContext() Option {
	return func(t *Tracer) {
		t.injectResponse = true
	}
}

// WithOTLP exports spans in batches to an OTLP/gRPC collector. The
// endpoint is host:port or a URL; an http:// URL disables TLS.
func WithOTLP(endpoint string) Option {
	return func(t *Tracer) {
		t.otlp = newOTLPTarget(ProtocolGRPC, endpoint)
	}
}

// WithOTLPHTTP is like [WithOTLP] over OTLP/HTTP.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.otlp = newOTLPTarget(ProtocolHTTP, endpoint)
	}
}
