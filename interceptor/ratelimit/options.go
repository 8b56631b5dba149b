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
package ratelimit

import (
	"log/slog"
	"time"
)

// Option configures the interceptor.
type Option func(*Interceptor)

// WithRequestsPerSecond sets the bucket refill rate.
func WithRequestsPerSecond(n float64) Option {
	return func(i *Interceptor) { i.rps = n }
}

// WithBurst sets the bucket size.
func WithBurst(n int) Option {
	return func(i *Interceptor) { i.burst = n }
}

// WithKeyFunc replaces [ClientIP] as the key function.
func WithKeyFunc(fn KeyFunc) Option {
	return func(i *Interceptor) {
		if fn != nil {
			i.keyFunc = fn
		}
	}
}

// WithHandler replaces the plain text 429 body. Status and rate limit
// headers are already set when fn runs.
func WithHandler(fn Handler) Option {
	return func(i *Interceptor) {
		if fn != nil {
			i.handler = fn
		}
	}
}

// WithLimiterTTL sets how long an idle bucket is kept.
func WithLimiterTTL(d time.Duration) Option {
	return func(i *Interceptor) {
		if d > 0 {
			i.ttl = d
		}
	}
}

// WithExcludePaths exempts exact request paths.
func WithExcludePaths(paths ...string) Option {
	return func(i *Interceptor) {
		for _, p := range paths {
			i.excludePaths[p] = struct{}{}
		}
	}
}

// WithLogger logs rejected requests at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}
