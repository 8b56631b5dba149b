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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Protocol selects the OTLP transport.
type Protocol string

const (
	ProtocolGRPC Protocol = "grpc"
	ProtocolHTTP Protocol = "http"
)

type otlpTarget struct {
	protocol Protocol
	endpoint string
	insecure bool
}

func (o *otlpTarget) String() string {
	if o == nil {
		return "disabled"
	}

	return fmt.Sprintf("%s://%s", o.protocol, o.endpoint)
}

// exporter creates the span exporter. Neither transport dials before the
// first export.
func (o *otlpTarget) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch o.protocol {
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(o.endpoint)}
		if o.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}

		return exp, nil
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(o.endpoint)}
		if o.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}

		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", o.protocol)
	}
}

// newOTLPTarget parses host:port or a URL. An http:// scheme selects a
// plaintext connection; any path is dropped.
func newOTLPTarget(protocol Protocol, raw string) *otlpTarget {
	o := &otlpTarget{protocol: protocol, endpoint: raw}
	if trimmed, ok := strings.CutPrefix(o.endpoint, "http://"); ok {
		o.endpoint, o.insecure = trimmed, true
	} else {
		o.endpoint = strings.TrimPrefix(o.endpoint, "https://")
	}
	if idx := strings.IndexByte(o.endpoint, '/'); idx != -1 {
		o.endpoint = o.endpoint[:idx]
	}

	return o
}
