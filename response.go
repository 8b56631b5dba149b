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
	"net/http"
	"strconv"

	riverrors "rivaas.dev/dispatch/errors"
)

// Response is a fully buffered outbound response. Interceptors may write
// to it in PreHandle to produce the short-circuit response.
type Response struct {
	status int
	header http.Header
	body   bytes.Buffer
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{header: make(http.Header)}
}

// NewTextResponse returns a response with the given status and text body.
func NewTextResponse(status int, contentType, text string) *Response {
	resp := NewResponse()
	resp.SetStatus(status)
	resp.header.Set("Content-Type", contentType)
	resp.body.WriteString(text)

	return resp
}

func newErrorResponse(er riverrors.Response) *Response {
	resp := NewResponse()
	resp.SetStatus(er.Status)
	for k, vs := range er.Headers {
		for _, v := range vs {
			resp.header.Add(k, v)
		}
	}
	if er.ContentType != "" {
		resp.header.Set("Content-Type", er.ContentType)
	}
	resp.body.Write(er.Body)

	return resp
}

// Status returns the status code. An unset status reads as 200.
func (r *Response) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

// SetStatus sets the status code.
func (r *Response) SetStatus(code int) { r.status = code }

// Header returns the response headers.
func (r *Response) Header() http.Header { return r.header }

// Write appends p to the body.
func (r *Response) Write(p []byte) (int, error) { return r.body.Write(p) }

// WriteString appends s to the body.
func (r *Response) WriteString(s string) (int, error) { return r.body.WriteString(s) }

// SetBody replaces the body.
func (r *Response) SetBody(p []byte) {
	r.body.Reset()
	r.body.Write(p)
}

// Body returns the body bytes.
func (r *Response) Body() []byte { return r.body.Bytes() }

// merge copies the status, headers and body written to o into r, keeping
// headers of r that o does not set.
func (r *Response) merge(o *Response) {
	if o == nil || o == r {
		return
	}
	if o.status != 0 {
		r.status = o.status
	}
	for k, vs := range o.header {
		r.header[k] = append([]string(nil), vs...)
	}
	r.SetBody(o.Body())
}

// WriteTo hands the response to the transport. Content-Length always
// reflects the buffered body.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	h := w.Header()
	for k, vs := range r.header {
		h[k] = vs
	}
	h.Set("Content-Length", strconv.Itoa(r.body.Len()))
	w.WriteHeader(r.Status())

	_, err := w.Write(r.body.Bytes())

	return err
}
