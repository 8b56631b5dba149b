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

package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// FromContext returns sl annotated with the trace and span IDs of the span
// carried by ctx. sl is returned unchanged when ctx has no valid span.
// A nil sl yields a discarding logger.
func FromContext(ctx context.Context, sl *slog.Logger) *slog.Logger {
	if sl == nil {
		sl = Nop()
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return sl
	}

	return sl.With(
		fieldTraceID, sc.TraceID().String(),
		fieldSpanID, sc.SpanID().String(),
	)
}
