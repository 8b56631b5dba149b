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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/codec"
	"rivaas.dev/dispatch/config"
	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/interceptor/accesslog"
	"rivaas.dev/dispatch/interceptor/compression"
	"rivaas.dev/dispatch/interceptor/ratelimit"
	"rivaas.dev/dispatch/interceptor/requestid"
	"rivaas.dev/dispatch/interceptor/security"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/metrics"
	"rivaas.dev/dispatch/tracing"
)

// app is the composition root of dispatchd.
type app struct {
	settings   *config.Settings
	logger     *slog.Logger
	table      *dispatch.Table
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Recorder
	tracer     *tracing.Tracer
	handler    http.Handler
	server     *dispatch.Server
}

// newLogger builds the process logger from settings.
func newLogger(s *config.Settings, out io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, err
	}

	return logging.New(
		logging.WithHandlerType(logging.HandlerType(s.Log.Format)),
		logging.WithOutput(out),
		logging.WithLevel(level),
		logging.WithServiceName(s.Service.Name),
		logging.WithServiceVersion(s.Service.Version),
		logging.WithEnvironment(s.Service.Environment),
	)
}

// newApp wires the routing table, interceptors, dispatcher and server.
// Spans are exported to stdout when tracing.stdout is set.
func newApp(s *config.Settings, logger *slog.Logger, stdout io.Writer, providers ...dispatch.RouteProvider) (*app, error) {
	a := &app{settings: s, logger: logger}
	diag := dispatch.DiagnosticHandlerFunc(func(e dispatch.DiagnosticEvent) {
		logger.Debug(e.Message, "kind", e.Kind, "fields", e.Fields)
	})

	table, err := dispatch.Build(dispatch.Collect(providers...),
		dispatch.WithTableLogger(logger),
		dispatch.WithTableDiagnostics(diag),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build routing table: %w", err)
	}
	a.table = table

	formatter, err := riverrors.New(s.Dispatch.ErrorFormat, s.Dispatch.ProblemBaseURL)
	if err != nil {
		return nil, err
	}
	bodyCodec, err := codec.Lookup(s.Dispatch.BodyCodec)
	if err != nil {
		return nil, err
	}

	var interceptors []dispatch.Interceptor
	if s.Dispatch.Compression {
		interceptors = append(interceptors, compression.New(compression.WithLogger(logger)))
	}
	if s.Dispatch.SecurityHeaders {
		preset := security.DevelopmentPreset()
		if s.Service.Environment == envProduction {
			preset = security.ProductionPreset()
		}
		interceptors = append(interceptors, security.New(preset))
	}
	if rl := s.Dispatch.RateLimit; rl.Enabled {
		interceptors = append(interceptors, ratelimit.New(
			ratelimit.WithRequestsPerSecond(rl.RequestsPerSecond),
			ratelimit.WithBurst(rl.Burst),
			ratelimit.WithExcludePaths(s.Metrics.Path),
			ratelimit.WithLogger(logger),
		))
	}
	interceptors = append(interceptors, requestid.New())
	if s.Tracing.Enabled {
		opts := []tracing.Option{
			tracing.WithServiceName(s.Service.Name),
			tracing.WithServiceVersion(s.Service.Version),
			tracing.WithSampleRate(s.Tracing.SampleRate),
			tracing.WithLogger(logger),
			tracing.WithExcludePaths(s.Metrics.Path),
		}
		if s.Tracing.Stdout {
			opts = append(opts, tracing.WithStdout(stdout))
		}
		switch {
		case s.Tracing.OTLPEndpoint == "":
		case s.Tracing.OTLPProtocol == "http":
			opts = append(opts, tracing.WithOTLPHTTP(s.Tracing.OTLPEndpoint))
		default:
			opts = append(opts, tracing.WithOTLP(s.Tracing.OTLPEndpoint))
		}
		if a.tracer, err = tracing.New(opts...); err != nil {
			return nil, err
		}
		interceptors = append(interceptors, a.tracer.Interceptor())
	}
	if s.Metrics.Enabled {
		opts := []metrics.Option{
			metrics.WithServiceName(s.Service.Name),
			metrics.WithServiceVersion(s.Service.Version),
			metrics.WithPath(s.Metrics.Path),
			metrics.WithLogger(logger),
			metrics.WithExportInterval(s.Metrics.ExportInterval),
		}
		if s.Metrics.OTLPEndpoint != "" {
			opts = append(opts, metrics.WithOTLP(s.Metrics.OTLPEndpoint))
		}
		a.metrics, err = metrics.New(opts...)
		if err != nil {
			return nil, errors.Join(err, a.shutdown(context.Background()))
		}
		interceptors = append(interceptors, a.metrics.Interceptor())
	}
	if s.Dispatch.AccessLog {
		interceptors = append(interceptors, accesslog.New(accesslog.WithLogger(logger)))
	}

	a.dispatcher, err = dispatch.New(table,
		dispatch.WithInterceptors(interceptors...),
		dispatch.WithErrorFormatter(formatter),
		dispatch.WithBodyCodec(bodyCodec),
		dispatch.WithLogger(logger),
		dispatch.WithDiagnostics(diag),
		dispatch.WithMaxBodyBytes(s.Server.MaxBodyBytes),
	)
	if err != nil {
		return nil, errors.Join(err, a.shutdown(context.Background()))
	}

	a.handler = a.dispatcher
	if a.metrics != nil {
		scrape, path := a.metrics.Handler(), a.metrics.Path()
		a.handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path {
				scrape.ServeHTTP(w, r)
				return
			}
			a.dispatcher.ServeHTTP(w, r)
		})
	}

	a.server = dispatch.NewServer(a.handler,
		dispatch.WithAddr(s.Server.Address()),
		dispatch.WithH2C(s.Server.H2C),
		dispatch.WithServerTimeouts(s.Server.ReadTimeout, s.Server.ReadHeaderTimeout, s.Server.WriteTimeout, s.Server.IdleTimeout),
		dispatch.WithShutdownTimeout(s.Server.ShutdownTimeout),
		dispatch.WithServerLogger(logger),
		dispatch.WithServerDiagnostics(diag),
	)

	return a, nil
}

// shutdown flushes telemetry.
func (a *app) shutdown(ctx context.Context) error {
	var errs []error
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(ctx))
	}

	return errors.Join(errs...)
}
