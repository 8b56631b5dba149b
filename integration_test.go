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

//go:build integration

package dispatch_test

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/net/http2"

	"rivaas.dev/dispatch"
	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/interceptor/accesslog"
	"rivaas.dev/dispatch/interceptor/requestid"
	"rivaas.dev/dispatch/route"
)

type greeter struct{}

func (greeter) Routes() []dispatch.Entry {
	typeRoute := route.Info{Path: "/greet"}

	return []dispatch.Entry{
		{Method: "Hello", TypeRoute: typeRoute, Route: route.Info{Path: "/hello", Methods: []route.Method{route.GET}}, Params: []string{"name", "times"}},
		{Method: "Profile", TypeRoute: typeRoute, Route: route.Info{Path: "/profile", Methods: []route.Method{route.POST}, ResponseBody: true}, Params: []string{"name", "tags"}},
		{Method: "Fail", TypeRoute: typeRoute, Route: route.Info{Path: "/fail"}},
	}
}

func (greeter) Hello(name string, times int) string {
	if times < 1 {
		times = 1
	}

	return strings.Repeat("hello "+name+";", times)
}

func (greeter) Profile(name string, tags []string) map[string]any {
	return map[string]any{"name": name, "tags": tags}
}

func (greeter) Fail() (string, error) {
	return "", riverrors.WithStatus(errors.New("teapot"), http.StatusTeapot)
}

// logSink collects access log records.
type logSink struct {
	mu      sync.Mutex
	records []slog.Record
}

func (s *logSink) Enabled(context.Context, slog.Level) bool { return true }
func (s *logSink) WithAttrs([]slog.Attr) slog.Handler      { return s }
func (s *logSink) WithGroup(string) slog.Handler           { return s }

func (s *logSink) Handle(_ context.Context, r slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Message == "access" {
		s.records = append(s.records, r.Clone())
	}

	return nil
}

func (s *logSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// phases records interceptor hook calls.
type phases struct {
	mu    sync.Mutex
	calls []string
}

func (p *phases) add(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, s)
}

func (p *phases) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.calls...)
}

func tracker(p *phases, name string, proceed func(*dispatch.Request) bool) dispatch.Interceptor {
	return dispatch.InterceptorFuncs{
		PreHandleFunc: func(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding) (bool, error) {
			p.add(name + ".pre")
			if !proceed(req) {
				resp.SetStatus(http.StatusUnauthorized)
				_, _ = resp.WriteString("denied")
				return false, nil
			}
			return true, nil
		},
		PostHandleFunc: func(*dispatch.Request, *dispatch.Response, *dispatch.Binding) error {
			p.add(name + ".post")
			return nil
		},
		AfterCompletionFunc: func(_ *dispatch.Request, _ *dispatch.Response, _ *dispatch.Binding, err error) error {
			if err != nil {
				p.add(name + ".after:" + err.Error())
			} else {
				p.add(name + ".after")
			}
			return nil
		},
	}
}

func always(*dispatch.Request) bool { return true }

var _ = Describe("Dispatch Integration", func() {
	var (
		sink    *logSink
		calls   *phases
		server  *dispatch.Server
		baseURL string
		client  *http.Client
	)

	BeforeEach(func() {
		sink = &logSink{}
		calls = &phases{}

		table, err := dispatch.Build(dispatch.Collect(greeter{}))
		Expect(err).NotTo(HaveOccurred())

		d := dispatch.MustNew(table,
			dispatch.WithInterceptors(
				requestid.New(),
				accesslog.New(accesslog.WithLogger(slog.New(sink))),
				tracker(calls, "outer", always),
				tracker(calls, "guard", func(req *dispatch.Request) bool {
					return req.Header().Get("X-Deny") == ""
				}),
			),
			dispatch.WithErrorFormatter(riverrors.NewRFC9457("https://errors.example.com/")),
		)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		server = dispatch.NewServer(d, dispatch.WithH2C(true))
		go func() { _ = server.Serve(ln) }()

		baseURL = "http://" + ln.Addr().String()
		client = &http.Client{Timeout: 5 * time.Second}
	})

	AfterEach(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(server.Shutdown(ctx)).To(Succeed())
	})

	do := func(method, path string, body io.Reader, header http.Header) (*http.Response, string) {
		req, err := http.NewRequest(method, baseURL+path, body)
		Expect(err).NotTo(HaveOccurred())
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		return resp, string(data)
	}

	Describe("routing", func() {
		It("binds query parameters to a text handler", func() {
			resp, body := do(http.MethodGet, "/greet/hello?name=ada&times=2", nil, nil)

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(Equal("hello ada;hello ada;"))
			Expect(resp.Header.Get("Content-Type")).To(Equal(dispatch.ContentTypeHTML))
			Expect(resp.Header.Get(requestid.DefaultHeader)).NotTo(BeEmpty())
		})

		It("binds form parameters to a structured handler", func() {
			form := url.Values{"name": {"ada"}, "tags": {"x", "y"}}
			resp, body := do(http.MethodPost, "/greet/profile", strings.NewReader(form.Encode()),
				http.Header{"Content-Type": {"application/x-www-form-urlencoded"}})

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"name":"ada","tags":["x","y"]}`))
		})

		It("answers 404 without running interceptors", func() {
			resp, body := do(http.MethodGet, "/greet/missing", nil, nil)

			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(body).To(Equal("Not Found"))
			Expect(calls.list()).To(BeEmpty())
			Expect(sink.count()).To(BeZero())
		})

		It("answers 405 with the allowed methods", func() {
			resp, body := do(http.MethodPost, "/greet/hello", nil, nil)

			Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			Expect(resp.Header.Get("Allow")).To(Equal("GET"))
			Expect(body).To(ContainSubstring("Request method 'POST' not supported"))
		})

		It("rejects unconvertible parameters with 400", func() {
			resp, _ := do(http.MethodGet, "/greet/hello?times=many", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("interceptor chain", func() {
		It("runs pre in order and post and afterCompletion in reverse", func() {
			do(http.MethodGet, "/greet/hello?name=x", nil, nil)

			Expect(calls.list()).To(Equal([]string{
				"outer.pre", "guard.pre",
				"guard.post", "outer.post",
				"guard.after", "outer.after",
			}))
			Eventually(sink.count).Should(Equal(1))
		})

		It("short-circuits and completes only the applied interceptors", func() {
			resp, body := do(http.MethodGet, "/greet/hello", nil, http.Header{"X-Deny": {"1"}})

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(body).To(Equal("denied"))
			Expect(calls.list()).To(Equal([]string{"outer.pre", "guard.pre", "outer.after"}))
		})

		It("reports handler failures to afterCompletion", func() {
			resp, body := do(http.MethodGet, "/greet/fail", nil, nil)

			Expect(resp.StatusCode).To(Equal(http.StatusTeapot))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("application/problem+json"))
			Expect(body).To(ContainSubstring(`"status":418`))
			Expect(calls.list()).To(Equal([]string{
				"outer.pre", "guard.pre",
				"guard.after:teapot", "outer.after:teapot",
			}))
		})
	})

	Describe("transport", func() {
		It("keeps HTTP/1.1 connections alive unless asked to close", func() {
			resp, _ := do(http.MethodGet, "/greet/hello", nil, nil)
			Expect(resp.Header.Get("Connection")).To(Equal("keep-alive"))

			req, err := http.NewRequest(http.MethodGet, baseURL+"/greet/hello", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Close = true
			closed, err := client.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer closed.Body.Close()
			Expect(closed.Header.Get("Connection")).To(Equal("close"))
		})

		It("serves cleartext HTTP/2", func() {
			h2 := &http.Client{
				Timeout: 5 * time.Second,
				Transport: &http2.Transport{
					AllowHTTP: true,
					DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
						var d net.Dialer
						return d.DialContext(ctx, network, addr)
					},
				},
			}

			resp, err := h2.Get(baseURL + "/greet/hello?name=h2")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ProtoMajor).To(Equal(2))
			Expect(string(body)).To(Equal("hello h2;"))
			Expect(resp.Header.Get("Connection")).To(BeEmpty())
		})
	})
})
