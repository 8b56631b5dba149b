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
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithServiceName sets the service.name attribute of every series.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
	}
}

// WithServiceVersion sets the service.version attribute of every series.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
	}
}

// WithPath sets the path the Prometheus handler is meant to be mounted on.
func WithPath(path string) Option {
	return func(r *Recorder) {
		r.path = path
	}
}

// WithDurationBuckets sets the request duration histogram boundaries in
// seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.durationBuckets = buckets
	}
}

// WithSizeBuckets sets the body size histogram boundaries in bytes.
func WithSizeBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.sizeBuckets = buckets
	}
}

// WithMaxCustomMetrics caps the number of custom counters.
func WithMaxCustomMetrics(n int) Option {
	return func(r *Recorder) {
		r.maxCustomMetrics = n
	}
}

// WithGlobalMeterProvider registers the meter provider with otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithLogger sets the logger for operational messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithExcludePaths excludes exact request paths from recording.
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		r.filter.addPaths(paths...)
	}
}

// WithExcludePrefixes excludes request paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		r.filter.addPrefixes(prefixes...)
	}
}

// WithExcludePatterns excludes request paths matching any of the regular
// expressions. An invalid pattern makes [New] fail.
//
// Example:
//
//	rec := metrics.MustNew(metrics.WithExcludePatterns(`^/v[0-9]+/internal/`))
func WithExcludePatterns(patterns ...string) Option {
	return func(r *Recorder) {
		for _, pattern := range patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				r.optionErrors = append(r.optionErrors,
					fmt.Errorf("invalid exclude pattern %q: %w", pattern, err))
				continue
			}
			r.filter.addPatterns(re)
		}
	}
}

// WithStdout adds a periodic reader writing every collection to w as JSON.
func WithStdout(w io.Writer) Option {
	return func(r *Recorder) {
		r.stdout = w
	}
}

// WithOTLP adds a periodic reader pushing to an OTLP/HTTP collector.
// The endpoint is host:port or a URL; an http:// URL disables TLS.
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.otlpEndpoint = endpoint
	}
}

// WithExportInterval sets the push interval of the stdout and OTLP readers.
func WithExportInterval(d time.Duration) Option {
	return func(r *Recorder) {
		r.exportInterval = d
	}
}
