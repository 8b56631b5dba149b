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

package accesslog

import (
	"log/slog"
	"time"
)

// Option configures the interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger. Without one nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// WithExcludePaths skips exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(i *Interceptor) {
		for _, p := range paths {
			i.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips paths starting with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(i *Interceptor) {
		i.excludePrefixes = append(i.excludePrefixes, prefixes...)
	}
}

// WithSampleRate logs the given fraction of successful requests, chosen
// deterministically from the request ID. Failed and slow requests are
// always logged.
func WithSampleRate(rate float64) Option {
	return func(i *Interceptor) {
		i.sampleRate = max(0.0, min(rate, 1.0))
	}
}

// WithErrorsOnly logs only failed requests.
func WithErrorsOnly() Option {
	return func(i *Interceptor) {
		i.errorsOnly = true
	}
}

// WithSlowThreshold always logs requests slower than threshold, at warn level.
func WithSlowThreshold(threshold time.Duration) Option {
	return func(i *Interceptor) {
		i.slowThreshold = threshold
	}
}
