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

package compression

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/route"
)

var large = strings.Repeat("dispatch compresses repetitive bodies well. ", 100)

func serve(t *testing.T, i *Interceptor, path, accept string) *httptest.ResponseRecorder {
	t.Helper()

	table, err := dispatch.Build([]dispatch.Entry{
		{Func: func() string { return large }, Route: route.Info{Path: "/large"}},
		{Func: func() string { return "tiny" }, Route: route.Info{Path: "/tiny"}},
		{Func: func() map[string]string { return map[string]string{"text": large} }, Route: route.Info{Path: "/json", ResponseBody: true}},
		{Func: func() (string, error) { return "", io.ErrUnexpectedEOF }, Route: route.Info{Path: "/broken"}},
	})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		r.Header.Set("Accept-Encoding", accept)
	}
	w := httptest.NewRecorder()
	dispatch.MustNew(table, dispatch.WithInterceptors(i)).ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, encoding string, body []byte) string {
	t.Helper()

	var r io.Reader
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		r = gz
	case "br":
		r = brotli.NewReader(bytes.NewReader(body))
	default:
		return string(body)
	}

	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func TestCompression_Negotiation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []Option
		accept string
		want   string
	}{
		{name: "none accepted", accept: "", want: ""},
		{name: "gzip only", accept: "gzip", want: "gzip"},
		{name: "brotli preferred on tie", accept: "gzip, br", want: "br"},
		{name: "gzip higher quality", accept: "br;q=0.5, gzip;q=0.9", want: "gzip"},
		{name: "brotli refused", accept: "br;q=0, gzip", want: "gzip"},
		{name: "all refused", accept: "br;q=0, gzip;q=0", want: ""},
		{name: "wildcard", accept: "*", want: "br"},
		{name: "identity only", accept: "identity", want: ""},
		{name: "brotli disabled", opts: []Option{WithBrotliDisabled()}, accept: "br, gzip", want: "gzip"},
		{name: "gzip disabled", opts: []Option{WithGzipDisabled()}, accept: "gzip;q=1, br;q=0.1", want: "br"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(t, New(tt.opts...), "/large", tt.accept)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Content-Encoding"))
			assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
			assert.Equal(t, large, decode(t, tt.want, w.Body.Bytes()))
			assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))
		})
	}
}

func TestCompression_Skips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		i    *Interceptor
		path string
	}{
		{name: "below minimum size", i: New(), path: "/tiny"},
		{name: "excluded path", i: New(WithExcludePaths("/large")), path: "/large"},
		{name: "excluded content type", i: New(WithExcludeContentTypes("application/JSON")), path: "/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(t, tt.i, tt.path, "gzip, br")
			assert.Empty(t, w.Header().Get("Content-Encoding"))
		})
	}
}

func TestCompression_StructuredAndErrorBodies(t *testing.T) {
	t.Parallel()

	w := serve(t, New(WithBrotliLevel(20)), "/json", "br")
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Contains(t, decode(t, "br", w.Body.Bytes()), `"text":"dispatch compresses`)

	w = serve(t, New(WithMinSize(0), WithGzipLevel(gzip.BestSpeed)), "/broken", "gzip")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	if w.Header().Get("Content-Encoding") == "gzip" {
		assert.NotEmpty(t, decode(t, "gzip", w.Body.Bytes()))
	}
}

func TestQValue(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -1.0, qValue("gzip", "br"), 0)
	assert.InDelta(t, 1.0, qValue("br", "br"), 0)
	assert.InDelta(t, 0.4, qValue("gzip;q=0.4, br", "gzip"), 0)
	assert.InDelta(t, 1.0, qValue("gzip;q=bogus", "gzip"), 0)
	assert.InDelta(t, -1.0, qValue("x-gzip", "gzip"), 0)
}

func TestSkipStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, skipStatus(http.StatusNoContent))
	assert.True(t, skipStatus(http.StatusNotModified))
	assert.False(t, skipStatus(http.StatusOK))
}
