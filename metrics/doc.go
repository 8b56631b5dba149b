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

// Package metrics records request metrics for the dispatcher with the
// OpenTelemetry SDK and exposes them in the Prometheus text format.
//
// # Basic Usage
//
//	rec := metrics.MustNew(metrics.WithServiceName("dispatchd"))
//	defer rec.Shutdown(context.Background())
//
//	d := dispatch.MustNew(table, dispatch.WithInterceptors(rec.Interceptor()))
//	mux.Handle(rec.Path(), rec.Handler())
//
// # Recorded Metrics
//
//   - http_request_duration_seconds: handler latency histogram
//   - http_requests_total: completed requests
//   - http_requests_active: requests between PreHandle and AfterCompletion
//   - http_errors_total: requests with a status of 400 or above, or a failure
//   - http_request_size_bytes and http_response_size_bytes: body sizes
//
// Each series carries the route path, the status code and its class.
// Paths that are not registered never reach interceptors, so the route
// label is bounded by the routing table.
//
// # Custom Metrics
//
//	if err := rec.IncrementCounter(ctx, "orders_created"); err != nil {
//	    logger.Warn("metric dropped", "error", err)
//	}
//
// Custom metric names are validated and capped (1000 by default).
//
// # Global State
//
// A [Recorder] owns its meter provider and Prometheus registry and never
// touches the global OpenTelemetry state unless [WithGlobalMeterProvider]
// is given.
package metrics
