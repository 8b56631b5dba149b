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

// Package tracing traces dispatched requests with the OpenTelemetry SDK.
//
// # Basic Usage
//
//	tr, err := tracing.New(
//	    tracing.WithServiceName("dispatchd"),
//	    tracing.WithStdout(os.Stdout),
//	    tracing.WithSampleRate(0.25),
//	)
//	if err != nil {
//	    return err
//	}
//	defer tr.Shutdown(context.Background())
//
//	d := dispatch.MustNew(table, dispatch.WithInterceptors(tr.Interceptor()))
//
// # Context Propagation
//
// The interceptor extracts W3C trace context and baggage from request
// headers, so a span started by an upstream service becomes the parent of
// the dispatch span. Handlers that accept a [context.Context] receive the
// span in it and can start children:
//
//	func (c *OrderController) Create(ctx context.Context) error {
//	    ctx, span := tr.Start(ctx, "orders.insert")
//	    defer span.End()
//	    ...
//	}
//
// # Sampling
//
// Root spans are sampled by trace ID ratio. Requests with a sampled parent
// are always traced.
//
// Without [WithStdout] or [WithSpanExporter] spans are created but not
// exported.
package tracing
