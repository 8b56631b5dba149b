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

package compression

import (
	"log/slog"
	"strings"
)

// Option configures the interceptor.
type Option func(*Interceptor)

// WithGzipLevel sets the gzip level, from gzip.HuffmanOnly to
// gzip.BestCompression. Default: gzip.DefaultCompression.
func WithGzipLevel(level int) Option {
	return func(i *Interceptor) {
		i.gzipLevel = level
	}
}

// WithBrotliLevel sets the Brotli level, clamped to 0..11. Default: 4.
func WithBrotliLevel(level int) Option {
	return func(i *Interceptor) {
		i.brotliLevel = max(0, min(level, 11))
	}
}

// WithGzipDisabled never selects gzip.
func WithGzipDisabled() Option {
	return func(i *Interceptor) {
		i.enableGzip = false
	}
}

// WithBrotliDisabled never selects Brotli.
func WithBrotliDisabled() Option {
	return func(i *Interceptor) {
		i.enableBrotli = false
	}
}

// WithMinSize sets the smallest body in bytes that is compressed.
// Default: [DefaultMinSize].
func WithMinSize(size int) Option {
	return func(i *Interceptor) {
		i.minSize = max(0, size)
	}
}

// WithExcludePaths disables compression for exact request paths.
func WithExcludePaths(paths ...string) Option {
	return func(i *Interceptor) {
		for _, p := range paths {
			i.excludePaths[p] = true
		}
	}
}

// WithExcludeContentTypes disables compression for bodies whose
// Content-Type contains one of types.
func WithExcludeContentTypes(types ...string) Option {
	return func(i *Interceptor) {
		for _, t := range types {
			i.excludeContentTypes = append(i.excludeContentTypes, strings.ToLower(t))
		}
	}
}

// WithLogger sets the logger for debug messages.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logger
	}
}
