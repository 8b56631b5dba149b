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

package dispatch

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

func startServer(t *testing.T, opts ...ServerOption) (*Server, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(newHelloDispatcher(t), opts...)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
		assert.NoError(t, <-done)
	})

	return srv, "http://" + ln.Addr().String()
}

func TestServer_ServesHTTP1(t *testing.T) {
	t.Parallel()

	_, base := startServer(t)

	resp, err := http.Post(base+"/hello/testPost", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "123", string(body))
	assert.Equal(t, int64(3), resp.ContentLength)
}

func TestServer_H2C(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		kinds []DiagnosticKind
	)
	_, base := startServer(t, WithH2C(true), WithServerDiagnostics(DiagnosticHandlerFunc(func(e DiagnosticEvent) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, e.Kind)
	})))

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}}

	resp, err := client.Post(base+"/hello/index", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProtoMajor)
	assert.JSONEq(t, `{"name":"wjw"}`, string(body))
	assert.Empty(t, resp.Header.Get("Connection"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []DiagnosticKind{DiagH2CEnabled}, kinds)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := NewServer(http.NotFoundHandler(),
		WithAddr("127.0.0.1:0"),
		WithShutdownTimeout(time.Second),
		WithServerTimeouts(time.Second, 0, time.Second, 0),
	)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ShutdownWithoutServe(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewServer(http.NotFoundHandler()).Shutdown(context.Background()))
}
