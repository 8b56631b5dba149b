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

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultMaxBodyBytes bounds the buffered request body when no limit is
// configured.
const DefaultMaxBodyBytes int64 = 4 << 20

// ErrBodyTooLarge is returned by [NewRequest] when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("dispatch: request body too large")

// Request is a fully buffered inbound request. It is owned by one dispatch
// and is not safe for concurrent mutation, but its parameter map may be
// read from several goroutines.
type Request struct {
	raw    *http.Request
	ctx    context.Context
	body   []byte
	params struct {
		once   sync.Once
		values url.Values
		err    error
	}

	// parses counts parameter map computations.
	parses atomic.Int32
}

// NewRequest reads the body of r, up to maxBody bytes, and wraps it.
// A maxBody of zero or less selects [DefaultMaxBodyBytes].
func NewRequest(r *http.Request, maxBody int64) (*Request, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if int64(len(data)) > maxBody {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBody)
		}
		body = data
	}

	return newBufferedRequest(r, body), nil
}

// NewBufferedRequest wraps r with an already materialized body. The body
// of r is not read.
func NewBufferedRequest(r *http.Request, body []byte) *Request {
	return newBufferedRequest(r, body)
}

func newBufferedRequest(r *http.Request, body []byte) *Request {
	ctx := r.Context()
	clone := r.Clone(ctx)
	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.ContentLength = int64(len(body))

	return &Request{raw: clone, ctx: ctx, body: body}
}

// Method returns the request method.
func (r *Request) Method() string { return r.raw.Method }

// Path returns the URI path, without the query string.
func (r *Request) Path() string {
	if r.raw.URL == nil || r.raw.URL.Path == "" {
		return "/"
	}

	return r.raw.URL.Path
}

// URL returns the request URL.
func (r *Request) URL() *url.URL { return r.raw.URL }

// Header returns the request headers.
func (r *Request) Header() http.Header { return r.raw.Header }

// Body returns the buffered body.
func (r *Request) Body() []byte { return r.body }

// Context returns the request context.
func (r *Request) Context() context.Context { return r.ctx }

// SetContext replaces the request context, for example to carry a span.
func (r *Request) SetContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	r.ctx = ctx
	r.raw = r.raw.WithContext(ctx)
}

// HTTPRequest returns the underlying transport request. Its body reads the
// buffered bytes.
func (r *Request) HTTPRequest() *http.Request { return r.raw }

// KeepAlive reports whether the client negotiated a persistent connection.
// HTTP/1.1 and later keep the connection unless "Connection: close" is sent;
// HTTP/1.0 requires "Connection: keep-alive".
func (r *Request) KeepAlive() bool {
	conn := r.raw.Header.Get("Connection")
	if r.raw.ProtoAtLeast(1, 1) {
		return !headerHasToken(conn, "close")
	}

	return headerHasToken(conn, "keep-alive")
}

func headerHasToken(v, token string) bool {
	for part := range strings.SplitSeq(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}

	return false
}

// Param returns the first value of the named parameter.
func (r *Request) Param(name string) (string, bool) {
	vs := r.paramValues()[name]
	if len(vs) == 0 {
		return "", false
	}

	return vs[0], true
}

// ParamValues returns a copy of the values of the named parameter, query
// values first and then form body values.
func (r *Request) ParamValues(name string) []string {
	vs := r.paramValues()[name]
	if vs == nil {
		return nil
	}

	return append([]string(nil), vs...)
}

// Parameters returns a copy of the merged parameter map.
func (r *Request) Parameters() map[string][]string {
	src := r.paramValues()
	out := make(map[string][]string, len(src))
	for k, vs := range src {
		out[k] = append([]string(nil), vs...)
	}

	return out
}

// ParamsErr returns the error encountered while parsing the form body, if any.
// Query parameters remain available when the body is malformed.
func (r *Request) ParamsErr() error {
	r.paramValues()
	return r.params.err
}

func (r *Request) paramValues() url.Values {
	r.params.once.Do(func() {
		r.parses.Add(1)
		r.params.values, r.params.err = r.parseParams()
	})

	return r.params.values
}

func (r *Request) parseParams() (url.Values, error) {
	values := url.Values{}
	if r.raw.URL != nil {
		q, err := url.ParseQuery(r.raw.URL.RawQuery)
		if err != nil {
			return values, fmt.Errorf("failed to parse query: %w", err)
		}
		maps.Copy(values, q)
	}

	if !hasFormBody(r.raw.Method) || len(r.body) == 0 {
		return values, nil
	}

	mediaType, params, err := mime.ParseMediaType(r.raw.Header.Get("Content-Type"))
	if err != nil {
		return values, nil
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(r.body))
		if err != nil {
			return values, fmt.Errorf("failed to parse form body: %w", err)
		}
		for k, vs := range form {
			values[k] = append(values[k], vs...)
		}
	case "multipart/form-data":
		if err := readMultipartValues(r.body, params["boundary"], values); err != nil {
			return values, fmt.Errorf("failed to parse multipart body: %w", err)
		}
	}

	return values, nil
}

func hasFormBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// readMultipartValues appends the value fields of a multipart body. File
// parts are skipped.
func readMultipartValues(body []byte, boundary string, values url.Values) error {
	if boundary == "" {
		return errors.New("missing boundary")
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		name := part.FormName()
		if name == "" || part.FileName() != "" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return err
		}
		values[name] = append(values[name], string(data))
	}
}
