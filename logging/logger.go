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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// HandlerType selects the output format of a [Logger].
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
	// PrettyHandler outputs charmbracelet/log styled logs.
	PrettyHandler HandlerType = "pretty"
)

// Level represents log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

const redacted = "***REDACTED***"

var defaultRedactedKeys = []string{"password", "token", "secret", "api_key", "authorization"}

// Logger owns a [slog.Logger] and the knobs used to build it.
//
// All methods are safe for concurrent use. The level is held in a
// [slog.LevelVar] so it can be changed at runtime without rebuilding
// the handler.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar
	addSource   bool

	serviceName    string
	serviceVersion string
	environment    string

	redactKeys map[string]struct{}
	custom     *slog.Logger
	global     bool

	slogger  atomic.Pointer[slog.Logger]
	shutdown atomic.Bool
}

// Option configures a [Logger].
type Option func(*Logger)

// New builds a Logger. The default is a JSON handler writing to stdout at
// info level.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
		redactKeys:  make(map[string]struct{}, len(defaultRedactedKeys)),
	}
	l.level.Set(LevelInfo)
	for _, k := range defaultRedactedKeys {
		l.redactKeys[k] = struct{}{}
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.output == nil {
		return nil, ErrNilOutput
	}

	handler, err := l.newHandler()
	if err != nil {
		return nil, err
	}

	sl := l.custom
	if sl == nil {
		sl = slog.New(handler)
		var attrs []any
		if l.serviceName != "" {
			attrs = append(attrs, "service", l.serviceName)
		}
		if l.serviceVersion != "" {
			attrs = append(attrs, "version", l.serviceVersion)
		}
		if l.environment != "" {
			attrs = append(attrs, "env", l.environment)
		}
		if len(attrs) > 0 {
			sl = sl.With(attrs...)
		}
	}
	l.slogger.Store(sl)

	if l.global {
		slog.SetDefault(sl)
	}

	return l, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}

	return l
}

// Nop returns a logger that discards every record.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func (l *Logger) newHandler() (slog.Handler, error) {
	if l.custom != nil {
		return l.custom.Handler(), nil
	}

	opts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.replaceAttr,
	}

	switch l.handlerType {
	case JSONHandler:
		return slog.NewJSONHandler(l.output, opts), nil
	case TextHandler:
		return slog.NewTextHandler(l.output, opts), nil
	case ConsoleHandler:
		return newConsoleHandler(l.output, opts), nil
	case PrettyHandler:
		return newPrettyHandler(l.output, opts), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
	}
}

func (l *Logger) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := l.redactKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}

	return a
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	if l.shutdown.Load() {
		return Nop()
	}

	return l.slogger.Load()
}

// With returns a [slog.Logger] with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger {
	return l.Logger().With(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.Logger().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.Logger().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Logger().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.Logger().Error(msg, args...) }

// SetLevel changes the minimum level. It fails for loggers built with
// [WithCustomLogger], whose level is controlled by the caller.
func (l *Logger) SetLevel(level Level) error {
	if l.custom != nil {
		return ErrCannotChangeLevel
	}
	l.level.Set(level)

	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// Shutdown stops the logger. Subsequent records are discarded.
func (l *Logger) Shutdown(_ context.Context) error {
	if !l.shutdown.CompareAndSwap(false, true) {
		return ErrLoggerShutdown
	}
	if f, ok := l.output.(interface{ Sync() error }); ok && l.output != os.Stdout && l.output != os.Stderr {
		return f.Sync()
	}

	return nil
}

// ParseLevel maps a configuration string (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}

	return lvl, nil
}

// WithHandlerType sets the output format.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithJSONHandler selects JSON output.
func WithJSONHandler() Option { return WithHandlerType(JSONHandler) }

// WithTextHandler selects key=value text output.
func WithTextHandler() Option { return WithHandlerType(TextHandler) }

// WithConsoleHandler selects colored console output.
func WithConsoleHandler() Option { return WithHandlerType(ConsoleHandler) }

// WithPrettyHandler selects charmbracelet/log output.
func WithPrettyHandler() Option { return WithHandlerType(PrettyHandler) }

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// WithLevel sets the initial minimum level.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level.Set(level) }
}

// WithSource adds file:line to every record.
func WithSource(enabled bool) Option {
	return func(l *Logger) { l.addSource = enabled }
}

// WithServiceName adds a "service" attribute to every record.
func WithServiceName(name string) Option {
	return func(l *Logger) { l.serviceName = name }
}

// WithServiceVersion adds a "version" attribute to every record.
func WithServiceVersion(version string) Option {
	return func(l *Logger) { l.serviceVersion = version }
}

// WithEnvironment adds an "env" attribute to every record.
func WithEnvironment(env string) Option {
	return func(l *Logger) { l.environment = env }
}

// WithRedactedKeys registers additional attribute keys whose values are
// replaced before output. Keys are matched case-insensitively.
func WithRedactedKeys(keys ...string) Option {
	return func(l *Logger) {
		for _, k := range keys {
			l.redactKeys[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithCustomLogger wraps an existing [slog.Logger]. Handler, level and
// service options are ignored.
func WithCustomLogger(sl *slog.Logger) Option {
	return func(l *Logger) { l.custom = sl }
}

// WithGlobalLogger installs the logger as the [slog] default.
func WithGlobalLogger() Option {
	return func(l *Logger) { l.global = true }
}
