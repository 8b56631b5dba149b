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
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterMap_QueryThenBody(t *testing.T) {
	t.Parallel()

	req := newFormRequest(t, http.MethodPost, "/p?name=q1&name=q2&only=query", "name=b1&body=yes&name=b2")

	assert.Equal(t, []string{"q1", "q2", "b1", "b2"}, req.ParamValues("name"))
	v, ok := req.Param("name")
	assert.True(t, ok)
	assert.Equal(t, "q1", v)
	assert.Equal(t, []string{"yes"}, req.ParamValues("body"))
	assert.Equal(t, []string{"query"}, req.ParamValues("only"))
	assert.Nil(t, req.ParamValues("absent"))
	_, ok = req.Param("absent")
	assert.False(t, ok)
}

func TestParameterMap_BodyIgnoredForGet(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/p?a=1", strings.NewReader("a=2"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, err := NewRequest(r, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, req.ParamValues("a"))
}

func TestParameterMap_IgnoresNonFormBodies(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/p?a=1", strings.NewReader(`{"a":2}`))
	r.Header.Set("Content-Type", "application/json")
	req, err := NewRequest(r, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"a": {"1"}}, req.Parameters())
	assert.Equal(t, `{"a":2}`, string(req.Body()))
}

func TestParameterMap_Multipart(t *testing.T) {
	t.Parallel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "hello"))
	fw, err := mw.CreateFormFile("upload", "a.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("file content"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPut, "/p?title=first", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	req, err := NewRequest(r, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "hello"}, req.ParamValues("title"))
	assert.Nil(t, req.ParamValues("upload"))
	assert.NoError(t, req.ParamsErr())
}

func TestParameterMap_MalformedBody(t *testing.T) {
	t.Parallel()

	req := newFormRequest(t, http.MethodPost, "/p?a=1", "b=%zz")

	assert.Error(t, req.ParamsErr())
	assert.Equal(t, []string{"1"}, req.ParamValues("a"))
}

func TestParameterMap_ComputedOnceUnderConcurrentAccess(t *testing.T) {
	t.Parallel()

	sequential := newFormRequest(t, http.MethodPost, "/p?x=1&y=2&x=3", "x=4&z=5")
	want := sequential.Parameters()

	req := newFormRequest(t, http.MethodPost, "/p?x=1&y=2&x=3", "x=4&z=5")

	const readers = 32
	var wg sync.WaitGroup
	results := make([]map[string][]string, readers)
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = req.Parameters()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), req.parses.Load())
	for _, got := range results {
		assert.Equal(t, want, got)
	}
	assert.Equal(t, []string{"1", "3", "4"}, want["x"])
}

func TestParameterMap_CopiesAreIndependent(t *testing.T) {
	t.Parallel()

	req := newTestRequest(t, http.MethodGet, "/p?a=1", nil)

	vs := req.ParamValues("a")
	vs[0] = "changed"
	all := req.Parameters()
	all["a"][0] = "changed"
	delete(all, "a")

	assert.Equal(t, []string{"1"}, req.ParamValues("a"))
}

func TestNewRequest_BodyLimit(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("0123456789"))
	_, err := NewRequest(r, 5)
	require.ErrorIs(t, err, ErrBodyTooLarge)

	r = httptest.NewRequest(http.MethodPost, "/p", strings.NewReader("01234"))
	req, err := NewRequest(r, 5)
	require.NoError(t, err)
	assert.Equal(t, "01234", string(req.Body()))
}

func TestRequest_Path(t *testing.T) {
	t.Parallel()

	req := newTestRequest(t, http.MethodGet, "/hello/index?x=1", nil)
	assert.Equal(t, "/hello/index", req.Path())
	assert.Equal(t, http.MethodGet, req.Method())
	assert.Equal(t, "x=1", req.URL().RawQuery)
}

func TestRequest_KeepAlive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		major      int
		minor      int
		connection string
		want       bool
	}{
		{name: "http11 default", major: 1, minor: 1, want: true},
		{name: "http11 close", major: 1, minor: 1, connection: "close", want: false},
		{name: "http11 token list", major: 1, minor: 1, connection: "Upgrade, Close", want: false},
		{name: "http10 default", major: 1, minor: 0, want: false},
		{name: "http10 keep-alive", major: 1, minor: 0, connection: "Keep-Alive", want: true},
		{name: "http2", major: 2, minor: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.ProtoMajor, r.ProtoMinor = tt.major, tt.minor
			if tt.connection != "" {
				r.Header.Set("Connection", tt.connection)
			}
			req, err := NewRequest(r, 0)
			require.NoError(t, err)

			assert.Equal(t, tt.want, req.KeepAlive())
		})
	}
}
