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
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[37m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

var consoleBuilderPool = sync.Pool{
	New: func() any { return &strings.Builder{} },
}

// consoleHandler is a [slog.Handler] producing one colored line per record:
//
//	15:04:05.000 INFO  dispatched method=GET path=/hello/testGet status=200
//
// Groups are flattened into dotted keys.
type consoleHandler struct {
	opts   *slog.HandlerOptions
	mu     *sync.Mutex
	output io.Writer
	prefix string
	attrs  []slog.Attr
}

func newConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *consoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &consoleHandler{opts: opts, mu: &sync.Mutex{}, output: w}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	b := consoleBuilderPool.Get().(*strings.Builder)
	b.Reset()
	defer consoleBuilderPool.Put(b)

	b.WriteString(colorDim + r.Time.Format("15:04:05.000") + colorReset + " ")
	b.WriteString(levelColor(r.Level) + colorBold)
	level := r.Level.String()
	b.WriteString(level)
	if pad := 5 - len(level); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(colorReset + " " + r.Message)

	for _, a := range h.attrs {
		h.appendAttr(b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(b, h.prefix, a)
		return true
	})

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			b.WriteString(" " + colorGray + "(" + filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line) + ")" + colorReset)
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.output, b.String())

	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}

	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."

	return &clone
}

func (h *consoleHandler) appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, p, ga)
		}
		return
	}

	b.WriteString(" " + prefix + a.Key + "=")
	switch a.Value.Kind() {
	case slog.KindTime:
		b.WriteString(a.Value.Time().Format(time.RFC3339))
	case slog.KindFloat64:
		b.WriteString(strconv.FormatFloat(a.Value.Float64(), 'f', 2, 64))
	default:
		b.WriteString(a.Value.String())
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}
