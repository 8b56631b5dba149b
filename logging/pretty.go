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
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// prettyHandler renders records with charmbracelet/log. The owning
// [Logger] keeps control of the level and redaction.
type prettyHandler struct {
	inner   slog.Handler
	level   slog.Leveler
	replace func(groups []string, a slog.Attr) slog.Attr
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	inner := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.DebugLevel,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})

	return &prettyHandler{inner: inner, level: opts.Level, replace: opts.ReplaceAttr}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})

	return h.inner.Handle(ctx, out)
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(a)
	}

	return &prettyHandler{inner: h.inner.WithAttrs(redacted), level: h.level, replace: h.replace}
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	return &prettyHandler{inner: h.inner.WithGroup(name), level: h.level, replace: h.replace}
}

func (h *prettyHandler) redact(a slog.Attr) slog.Attr {
	if h.replace == nil {
		return a
	}

	return h.replace(nil, a)
}
