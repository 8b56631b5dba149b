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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/route"
)

// helloController mirrors a small application controller.
type helloController struct {
	calls int
}

func (c *helloController) Index() map[string]string {
	c.calls++
	return map[string]string{"name": "wjw"}
}

func (c *helloController) TestGet(s string, i int, f float32, d float64) string {
	return fmt.Sprintf("get:%s:%d:%g:%g", s, i, f, d)
}

func (c *helloController) TestPost() string { return "123" }

func (c *helloController) Fail() (string, error) {
	return "", errors.New("handler exploded")
}

func (c *helloController) Panic() string { panic("boom") }

func (c *helloController) Routes() []Entry {
	typeRoute := route.Info{Path: "/hello"}

	return []Entry{
		{Method: "Index", TypeRoute: typeRoute, Route: route.Info{Path: "/index", Methods: []route.Method{route.POST}, ResponseBody: true}},
		{Method: "TestGet", TypeRoute: typeRoute, Route: route.Info{Path: "/testGet", Methods: []route.Method{route.GET}}, Params: []string{"strParam", "intParam", "floatParam", "doubleParam"}},
		{Method: "TestPost", TypeRoute: typeRoute, Route: route.Info{Path: "testPost", Methods: []route.Method{route.POST}}},
		{Method: "Fail", TypeRoute: typeRoute, Route: route.Info{Path: "/fail"}},
		{Method: "Panic", TypeRoute: typeRoute, Route: route.Info{Path: "/panic"}},
	}
}

// recorder collects interceptor calls in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// tracking returns an interceptor recording its hooks under name.
func tracking(rec *recorder, name string, proceed bool) Interceptor {
	return InterceptorFuncs{
		PreHandleFunc: func(*Request, *Response, *Binding) (bool, error) {
			rec.add(name + ".pre")
			return proceed, nil
		},
		PostHandleFunc: func(*Request, *Response, *Binding) error {
			rec.add(name + ".post")
			return nil
		},
		AfterCompletionFunc: func(_ *Request, _ *Response, _ *Binding, err error) error {
			if err != nil {
				rec.add(name + ".after!")
			} else {
				rec.add(name + ".after")
			}
			return nil
		},
	}
}

func newTestRequest(t *testing.T, method, target string, body io.Reader) *Request {
	t.Helper()

	r := httptest.NewRequest(method, target, body)
	req, err := NewRequest(r, 0)
	require.NoError(t, err)

	return req
}

func newFormRequest(t *testing.T, method, target, form string) *Request {
	t.Helper()

	r := httptest.NewRequest(method, target, strings.NewReader(form))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, err := NewRequest(r, 0)
	require.NoError(t, err)

	return req
}

func mustBuild(t *testing.T, entries ...Entry) *Table {
	t.Helper()

	table, err := Build(entries)
	require.NoError(t, err)

	return table
}

func serve(d *Dispatcher, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)

	return w
}

var _ http.Handler = (*Dispatcher)(nil)

func routeInfo(path string, methods ...route.Method) route.Info {
	return route.Info{Path: path, Methods: methods}
}
