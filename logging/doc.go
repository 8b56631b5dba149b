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

// Package logging configures the structured [log/slog] logger used by the
// dispatcher, its interceptors and the dispatchd binary.
//
// # Basic Usage
//
//	logger := logging.MustNew(logging.WithConsoleHandler())
//	defer logger.Shutdown(context.Background())
//	logger.Info("dispatcher started", "routes", 4)
//
// # Handlers
//
// Four output formats are available: JSON (default), key=value text, a
// colored console format and a charmbracelet/log format ("pretty"). The last
// two are intended for local development.
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("dispatchd"),
//	    logging.WithLevel(logging.LevelDebug),
//	)
//
// # Redaction
//
// Attributes named password, token, secret, api_key or authorization are
// always replaced with "***REDACTED***". Additional keys can be registered
// with [WithRedactedKeys].
//
// # Trace Correlation
//
// [FromContext] adds trace_id and span_id attributes when the context carries
// an OpenTelemetry span.
package logging
