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
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch"
)

type spanKey struct{}

// Interceptor wraps handler invocation in a server span.
type Interceptor struct {
	dispatch.BaseInterceptor

	t *Tracer
}

// Interceptor returns a [dispatch.Interceptor] tracing with t.
func (t *Tracer) Interceptor() *Interceptor {
	return &Interceptor{t: t}
}

// Match implements [dispatch.Interceptor].
func (i *Interceptor) Match(req *dispatch.Request) bool {
	return !i.t.shutdown.Load() && !i.t.excludePaths[req.Path()]
}

// PreHandle implements [dispatch.Interceptor].
func (i *Interceptor) PreHandle(req *dispatch.Request, resp *dispatch.Response, b *dispatch.Binding) (bool, error) {
	ctx := i.t.propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header()))

	raw := req.HTTPRequest()
	attrs := make([]attribute.KeyValue, 0, 7+len(i.t.headers))
	attrs = append(attrs,
		attribute.String("http.method", req.Method()),
		attribute.String("http.route", req.Path()),
		attribute.String("http.target", req.URL().RequestURI()),
		attribute.String("http.flavor", flavor(raw)),
		attribute.String("http.user_agent", req.Header().Get("User-Agent")),
		attribute.String("dispatch.handler", b.String()),
	)
	if raw.Host != "" {
		attrs = append(attrs, attribute.String("http.host", raw.Host))
	}
	for _, h := range i.t.headers {
		if v := req.Header().Get(h); v != "" {
			attrs = append(attrs, attribute.String("http.request.header."+strings.ToLower(h), v))
		}
	}

	ctx, span := i.t.tracer.Start(ctx, req.Method()+" "+req.Path(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
	req.SetContext(context.WithValue(ctx, spanKey{}, span))

	if i.t.injectResponse {
		i.t.propagator.Inject(ctx, propagation.HeaderCarrier(resp.Header()))
	}

	return true, nil
}

// AfterCompletion implements [dispatch.Interceptor].
func (i *Interceptor) AfterCompletion(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding, err error) error {
	span, ok := req.Context().Value(spanKey{}).(trace.Span)
	if !ok {
		return nil
	}

	status := resp.Status()
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.Int("http.response_content_length", len(resp.Body())),
	)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	span.End()

	return nil
}

func flavor(r *http.Request) string {
	switch r.ProtoMajor {
	case 2:
		return "2.0"
	case 3:
		return "3.0"
	}
	if r.ProtoMinor == 0 {
		return "1.0"
	}

	return "1.1"
}
