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

// Command dispatchd serves the example controllers through the dispatcher.
//
// Configuration is read from the YAML, TOML or JSON file named by
// DISPATCHD_CONFIG (default dispatchd.yaml, optional) and from DISPATCH_*
// environment variables, for example DISPATCH_SERVER_PORT=9000 or
// DISPATCH_METRICS_ENABLED=true. When DISPATCHD_CONSUL_KEY is set, that
// Consul KV key (agent from CONSUL_HTTP_ADDR) is merged between the file
// and the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rivaas.dev/dispatch/config"
)

const (
	configEnv     = "DISPATCHD_CONFIG"
	consulKeyEnv  = "DISPATCHD_CONSUL_KEY"
	defaultConfig = "dispatchd.yaml"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dispatchd:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path := os.Getenv(configEnv)
	if path == "" {
		path = defaultConfig
	}
	var extra []config.Option
	if key := os.Getenv(consulKeyEnv); key != "" {
		extra = append(extra, config.WithConsul("", key))
	}
	settings, err := config.LoadSettings(ctx, path, config.DefaultEnvPrefix, extra...)
	if err != nil {
		return err
	}

	logger, err := newLogger(settings, os.Stdout)
	if err != nil {
		return err
	}
	defer logger.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck // nothing left to report to

	sl := logger.Logger()
	a, err := newApp(settings, sl, os.Stdout,
		&HelloController{logger: sl},
		IndexController{},
	)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Server.ShutdownTimeout)
		defer cancel()
		if err := a.shutdown(shutdownCtx); err != nil {
			sl.Error("telemetry shutdown failed", "error", err)
		}
	}()

	printBanner(os.Stdout, a)

	return a.server.Run(ctx)
}
