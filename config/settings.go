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

package config

import (
	"context"
	_ "embed"
	"net"
	"strconv"
	"time"
)

// SettingsSchema rejects unknown top-level sections in [Settings] sources.
//
//go:embed settings.schema.json
var SettingsSchema []byte

// DefaultEnvPrefix is the environment variable prefix used by dispatchd.
const DefaultEnvPrefix = "DISPATCH_"

// Settings is the typed configuration of a dispatch server.
type Settings struct {
	Service  Service  `config:"service"`
	Server   Server   `config:"server"`
	Log      Log      `config:"log"`
	Dispatch Dispatch `config:"dispatch"`
	Metrics  Metrics  `config:"metrics"`
	Tracing  Tracing  `config:"tracing"`
}

// Service identifies the running process in logs and telemetry.
type Service struct {
	Name        string `config:"name" default:"dispatchd" validate:"required"`
	Version     string `config:"version" default:"dev"`
	Environment string `config:"environment" default:"development" validate:"oneof=development staging production test"`
}

// Server configures the HTTP transport.
type Server struct {
	// Addr is the listen address. Port, when set, overrides its port.
	Addr string `config:"addr" default:":8080" validate:"required"`
	Port int    `config:"port" validate:"gte=0,lte=65535"`

	// H2C enables cleartext HTTP/2.
	H2C bool `config:"h2c"`

	ReadTimeout       time.Duration `config:"readtimeout" default:"10s"`
	ReadHeaderTimeout time.Duration `config:"readheadertimeout" default:"5s"`
	WriteTimeout      time.Duration `config:"writetimeout" default:"10s"`
	IdleTimeout       time.Duration `config:"idletimeout" default:"60s"`
	ShutdownTimeout   time.Duration `config:"shutdowntimeout" default:"15s"`

	// MaxBodyBytes bounds the buffered request body.
	MaxBodyBytes int64 `config:"maxbodybytes" default:"4194304" validate:"gt=0"`
}

// Address returns the effective listen address.
func (s Server) Address() string {
	if s.Port == 0 {
		return s.Addr
	}
	host, _, err := net.SplitHostPort(s.Addr)
	if err != nil {
		host = ""
	}

	return net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// Log configures the process logger.
type Log struct {
	Level  string `config:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `config:"format" default:"json" validate:"oneof=json text console pretty"`
}

// Dispatch configures response rendering.
type Dispatch struct {
	// ErrorFormat selects the error body format: text, simple or rfc9457.
	ErrorFormat    string `config:"errorformat" default:"text" validate:"oneof=text simple rfc9457"`
	ProblemBaseURL string `config:"problembaseurl" validate:"omitempty,url"`

	// BodyCodec serializes structured handler results.
	BodyCodec string `config:"bodycodec" default:"json" validate:"oneof=json yaml toml msgpack protobuf"`

	AccessLog bool `config:"accesslog"`

	// Compression enables Brotli and gzip response compression.
	Compression bool `config:"compression"`

	// SecurityHeaders adds the security header set matching the environment.
	SecurityHeaders bool `config:"securityheaders"`

	RateLimit RateLimit `config:"ratelimit"`
}

// RateLimit configures per client IP token bucket limiting.
type RateLimit struct {
	Enabled           bool    `config:"enabled"`
	RequestsPerSecond float64 `config:"requestspersecond" default:"100" validate:"gt=0"`

	// Burst defaults to RequestsPerSecond rounded up.
	Burst int `config:"burst" validate:"gte=0"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `config:"enabled"`
	Path    string `config:"path" default:"/metrics" validate:"startswith=/"`

	// OTLPEndpoint, when set, also pushes metrics to an OTLP/HTTP collector.
	OTLPEndpoint   string        `config:"otlpendpoint"`
	ExportInterval time.Duration `config:"exportinterval" default:"30s"`
}

// Tracing configures OpenTelemetry tracing.
type Tracing struct {
	Enabled    bool    `config:"enabled"`
	SampleRate float64 `config:"samplerate" default:"1" validate:"gte=0,lte=1"`

	// Stdout exports finished spans as JSON to stdout.
	Stdout bool `config:"stdout"`

	// OTLPEndpoint, when set, exports spans to an OTLP collector using
	// OTLPProtocol.
	OTLPEndpoint string `config:"otlpendpoint"`
	OTLPProtocol string `config:"otlpprotocol" default:"grpc" validate:"oneof=grpc http"`
}

// LoadSettings reads the optional file at path (skipped when empty), then
// the sources added by extra, then environment variables starting with
// envPrefix.
func LoadSettings(ctx context.Context, path, envPrefix string, extra ...Option) (*Settings, error) {
	var s Settings

	opts := []Option{WithBinding(&s), WithJSONSchema(SettingsSchema)}
	if path != "" {
		opts = append(opts, WithOptionalFile(path))
	}
	opts = append(opts, extra...)
	if envPrefix != "" {
		opts = append(opts, WithEnv(envPrefix))
	}

	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err = c.Load(ctx); err != nil {
		return nil, err
	}

	return &s, nil
}
