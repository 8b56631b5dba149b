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

//go:build !integration

package config

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MergeOrder(t *testing.T) {
	t.Parallel()

	c, err := New(
		WithContent([]byte("server:\n  addr: \":9000\"\n  h2c: true\nlog:\n  Level: debug\n"), "yaml"),
		WithContent([]byte("[server]\naddr = \":9100\"\n"), "toml"),
	)
	require.NoError(t, err)
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, ":9100", c.Get("server.addr"))
	assert.Equal(t, true, c.Get("SERVER.H2C"))
	assert.Equal(t, "debug", c.Get("log.level"))
	assert.Nil(t, c.Get("server.missing"))
	assert.Nil(t, c.Get("log.level.deeper"))
	assert.Contains(t, c.Values(), "server")
}

func TestLoad_JSONContent(t *testing.T) {
	t.Parallel()

	c := MustNew(WithContent([]byte(`{"metrics":{"enabled":true}}`), "json"))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, true, c.Get("metrics.enabled"))
}

func TestWithContent_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := New(WithContent([]byte("x"), "ini"))
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "detect-format", cfgErr.Operation)
}

func TestWithFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dispatchd.yml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: hello\n"), 0o600))

	c := MustNew(WithFile(path))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "hello", c.Get("service.name"))

	missing := MustNew(WithFile(filepath.Join(dir, "missing.yaml")))
	err := missing.Load(context.Background())
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "source[0]", cfgErr.Source)
	assert.Equal(t, "load", cfgErr.Operation)

	optional := MustNew(WithOptionalFile(filepath.Join(dir, "missing.yaml")))
	require.NoError(t, optional.Load(context.Background()))
}

func TestEnvSource(t *testing.T) {
	t.Parallel()

	src := &envSource{
		prefix: "DISPATCH_",
		environ: func() []string {
			return []string{
				"DISPATCH_SERVER_ADDR=:7000",
				"DISPATCH_SERVER__READTIMEOUT= 3s ",
				"DISPATCH_LOG_LEVEL=warn",
				"OTHER_VALUE=1",
				"DISPATCH_=ignored",
				"malformed",
			}
		},
	}

	values, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"server": map[string]any{"addr": ":7000", "readtimeout": "3s"},
		"log":    map[string]any{"level": "warn"},
	}, values)
}

func TestBinding_DefaultsAndValidation(t *testing.T) {
	t.Parallel()

	var s Settings
	c := MustNew(
		WithContent([]byte("server:\n  port: 9090\n  readTimeout: 2s\ndispatch:\n  errorFormat: rfc9457\n"), "yaml"),
		WithBinding(&s),
	)
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, "dispatchd", s.Service.Name)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, ":9090", s.Server.Address())
	assert.Equal(t, 2*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, s.Server.ShutdownTimeout)
	assert.Equal(t, int64(4194304), s.Server.MaxBodyBytes)
	assert.Equal(t, "rfc9457", s.Dispatch.ErrorFormat)
	assert.Equal(t, "json", s.Dispatch.BodyCodec)
	assert.InDelta(t, 100.0, s.Dispatch.RateLimit.RequestsPerSecond, 0)
	assert.Zero(t, s.Dispatch.RateLimit.Burst)
	assert.Equal(t, "/metrics", s.Metrics.Path)
	assert.Equal(t, 30*time.Second, s.Metrics.ExportInterval)
	assert.InDelta(t, 1.0, s.Tracing.SampleRate, 0)
	assert.Equal(t, "grpc", s.Tracing.OTLPProtocol)
}

func TestBinding_ValidationFailureKeepsPreviousState(t *testing.T) {
	t.Parallel()

	var s Settings
	s.Log.Level = "keep"
	c := MustNew(WithContent([]byte("log:\n  level: loud\n"), "yaml"), WithBinding(&s))

	err := c.Load(context.Background())
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "validate", cfgErr.Operation)
	assert.Contains(t, cfgErr.Field, "Level")
	assert.Equal(t, "keep", s.Log.Level)
}

type selfChecked struct {
	Name string `config:"name"`
}

func (s *selfChecked) Validate() error {
	if s.Name == "forbidden" {
		return errors.New("name is forbidden")
	}

	return nil
}

func TestBinding_ValidatorInterface(t *testing.T) {
	t.Parallel()

	var v selfChecked
	c := MustNew(WithContent([]byte("name: forbidden\n"), "yaml"), WithBinding(&v))
	require.ErrorContains(t, c.Load(context.Background()), "name is forbidden")
}

func TestWithBinding_RejectsNonPointer(t *testing.T) {
	t.Parallel()

	_, err := New(WithBinding(Settings{}))
	require.Error(t, err)

	_, err = New(WithTag(""))
	require.Error(t, err)

	_, err = New(WithSource(nil))
	require.Error(t, err)
}

func TestLoad_SourceFunc(t *testing.T) {
	t.Parallel()

	c := MustNew(WithSource(SourceFunc(func(context.Context) (map[string]any, error) {
		return map[string]any{"Service": map[string]any{"Name": "custom"}}, nil
	})))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "custom", c.Get("service.name"))
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := MustNew(WithContent([]byte("a: 1"), "yaml"))
	require.ErrorIs(t, c.Load(ctx), context.Canceled)
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("DISPATCHTEST_SERVER_ADDR", "127.0.0.1:7001")
	t.Setenv("DISPATCHTEST_DISPATCH_BODYCODEC", "msgpack")

	s, err := LoadSettings(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), "DISPATCHTEST_")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7001", s.Server.Address())
	assert.Equal(t, "msgpack", s.Dispatch.BodyCodec)
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	assert.Equal(t, "config error in binding during bind: boom", NewError("binding", "bind", base).Error())
	assert.Equal(t, "config error in binding.Server.Addr during validate: boom", NewFieldError("binding", "Server.Addr", "validate", base).Error())
	assert.ErrorIs(t, NewError("x", "y", base), base)
}

type fakeKV struct {
	pair *api.KVPair
	err  error
	keys []string
}

func (f *fakeKV) Get(key string, _ *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error) {
	f.keys = append(f.keys, key)
	return f.pair, &api.QueryMeta{LastIndex: 7}, f.err
}

func TestConsulKV(t *testing.T) {
	t.Parallel()

	kv := &fakeKV{pair: &api.KVPair{Key: "dispatchd/config.yaml", Value: []byte("server:\n  port: 9191\n")}}
	var s Settings
	c := MustNew(WithConsulKV(kv, "dispatchd/config.yaml"), WithBinding(&s))
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, []string{"dispatchd/config.yaml"}, kv.keys)
	assert.Equal(t, 9191, s.Server.Port)

	missing := MustNew(WithConsulKV(&fakeKV{}, "dispatchd/config.json"))
	require.NoError(t, missing.Load(context.Background()))

	failing := MustNew(WithConsulKV(&fakeKV{err: errors.New("agent down")}, "dispatchd/config.toml"))
	require.ErrorContains(t, failing.Load(context.Background()), "agent down")

	_, err := New(WithConsulKV(kv, "dispatchd/config"))
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "detect-format", cfgErr.Operation)

	_, err = New(WithConsulKV(nil, "x.yaml"))
	require.Error(t, err)
}

func TestWithConsul_Agent(t *testing.T) {
	t.Parallel()

	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/kv/dispatchd/config.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Consul-Index", "42")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Key":"dispatchd/config.json","Value":"eyJsb2ciOnsibGV2ZWwiOiJkZWJ1ZyJ9fQ=="}]`))
	}))
	t.Cleanup(agent.Close)

	var s Settings
	c := MustNew(WithConsul(agent.URL, "dispatchd/config.json"), WithBinding(&s))
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "debug", s.Log.Level)

	absent := MustNew(WithConsul(agent.URL, "dispatchd/other.yaml"))
	require.NoError(t, absent.Load(context.Background()))
}

func TestWithJSONSchema(t *testing.T) {
	t.Parallel()

	schema := []byte(`{
		"type": "object",
		"properties": {
			"server": {
				"type": "object",
				"properties": {"port": {"type": "integer", "maximum": 65535}}
			}
		}
	}`)

	ok := MustNew(WithJSONSchema(schema), WithContent([]byte("server:\n  port: 8081\n"), "yaml"))
	require.NoError(t, ok.Load(context.Background()))

	bad := MustNew(WithJSONSchema(schema), WithContent([]byte("[server]\nport = 70000\n"), "toml"))
	err := bad.Load(context.Background())
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "json-schema", cfgErr.Source)
	assert.Equal(t, "validate", cfgErr.Operation)
	assert.Nil(t, bad.Get("server.port"), "failed load keeps previous state")

	_, err = New(WithJSONSchema([]byte("{")))
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.Operation)
}

func TestLoadSettings_RejectsUnknownSection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dispatchd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sever:\n  port: 9000\n"), 0o600))

	_, err := LoadSettings(context.Background(), path, "")
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "json-schema", cfgErr.Source)
}
