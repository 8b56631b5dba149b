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

package accesslog

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"strings"
	"time"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/interceptor/requestid"
	"rivaas.dev/dispatch/logging"
)

type startKey struct{}

// Interceptor logs one line per dispatched request when the request
// completes, including the failure that ended it.
type Interceptor struct {
	dispatch.BaseInterceptor

	logger          *slog.Logger
	excludePaths    map[string]bool
	excludePrefixes []string
	sampleRate      float64
	errorsOnly      bool
	slowThreshold   time.Duration
}

// New returns an access log interceptor.
//
// Example:
//
//	d := dispatch.MustNew(table, dispatch.WithInterceptors(
//	    requestid.New(),
//	    accesslog.New(
//	        accesslog.WithLogger(logger),
//	        accesslog.WithExcludePaths("/health"),
//	        accesslog.WithSlowThreshold(500*time.Millisecond),
//	    ),
//	))
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		excludePaths: make(map[string]bool),
		sampleRate:   1.0,
	}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Match implements [dispatch.Interceptor]. Excluded paths do not match.
func (i *Interceptor) Match(req *dispatch.Request) bool {
	if i.logger == nil {
		return false
	}

	path := req.Path()
	if i.excludePaths[path] {
		return false
	}
	for _, prefix := range i.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}

	return true
}

// PreHandle implements [dispatch.Interceptor].
func (i *Interceptor) PreHandle(req *dispatch.Request, _ *dispatch.Response, _ *dispatch.Binding) (bool, error) {
	i.logger.Debug("request", "method", req.Method(), "uri", req.URL().RequestURI())
	req.SetContext(context.WithValue(req.Context(), startKey{}, time.Now()))

	return true, nil
}

// AfterCompletion implements [dispatch.Interceptor].
func (i *Interceptor) AfterCompletion(req *dispatch.Request, resp *dispatch.Response, b *dispatch.Binding, err error) error {
	var duration time.Duration
	if start, ok := req.Context().Value(startKey{}).(time.Time); ok {
		duration = time.Since(start)
	}

	status := resp.Status()
	failed := err != nil || status >= 400
	slow := i.slowThreshold > 0 && duration >= i.slowThreshold

	if !failed && !slow {
		if i.errorsOnly {
			return nil
		}
		if i.sampleRate < 1.0 && !sampleByHash(requestid.FromRequest(req), i.sampleRate) {
			return nil
		}
	}

	fields := []any{
		"method", req.Method(),
		"path", req.Path(),
		"status", status,
		"duration_ms", duration.Milliseconds(),
		"bytes_sent", len(resp.Body()),
		"user_agent", req.Header().Get("User-Agent"),
		"proto", req.HTTPRequest().Proto,
		"handler", b.String(),
	}
	if id := requestid.FromRequest(req); id != "" {
		fields = append(fields, "request_id", id)
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	if slow {
		fields = append(fields, "slow", true)
	}

	logger := logging.FromContext(req.Context(), i.logger)
	switch {
	case status >= 500 || err != nil:
		logger.Error("access", fields...)
	case status >= 400 || slow:
		logger.Warn("access", fields...)
	default:
		logger.Info("access", fields...)
	}

	return nil
}

// sampleByHash makes the same decision for the same ID on every replica.
func sampleByHash(id string, rate float64) bool {
	if id == "" {
		return true
	}

	h := sha256.Sum256([]byte(id))

	return binary.BigEndian.Uint64(h[:8]) <= uint64(rate*float64(^uint64(0)))
}
