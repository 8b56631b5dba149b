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
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultExportInterval is the push interval of the stdout and OTLP readers.
const DefaultExportInterval = 30 * time.Second

// pushReaders builds the periodic readers that run next to the Prometheus
// scrape reader.
func (r *Recorder) pushReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if r.stdout != nil {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(r.stdout))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(r.exportInterval)))
		r.logger.Debug("metrics stdout exporter enabled", "interval", r.exportInterval)
	}

	if r.otlpEndpoint != "" {
		endpoint, insecure := splitEndpoint(r.otlpEndpoint)
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}

		// The HTTP exporter does not connect until the first export.
		exp, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(r.exportInterval)))
		r.logger.Debug("metrics OTLP exporter enabled", "endpoint", endpoint, "insecure", insecure)
	}

	return readers, nil
}

// splitEndpoint reduces a collector URL to host:port. An http:// scheme
// selects a plaintext connection.
func splitEndpoint(raw string) (endpoint string, insecure bool) {
	endpoint = raw
	if trimmed, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = trimmed, true
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if idx := strings.IndexByte(endpoint, '/'); idx != -1 {
		endpoint = endpoint[:idx]
	}

	return endpoint, insecure
}
