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

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Formatter renders an error as a complete HTTP error response.
//
// instance identifies the request that failed, normally its path. It is
// used as the RFC 9457 "instance" member and ignored by other formats.
//
// Example:
//
//	resp := errors.NewRFC9457("https://api.example.com/problems").Format("/hello/testGet", err)
//	w.Header().Set("Content-Type", resp.ContentType)
//	w.WriteHeader(resp.Status)
//	w.Write(resp.Body)
type Formatter interface {
	Format(instance string, err error) Response
}

// Response is a rendered error.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the encoded response body.
	Body []byte

	// Headers contains additional headers to set, such as Allow.
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
// Example:
//
//	type ConversionError struct{ Param string }
//
//	func (e *ConversionError) Error() string   { return "cannot convert " + e.Param }
//	func (e *ConversionError) HTTPStatus() int { return http.StatusBadRequest }
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// ErrorHeaders allows errors to contribute response headers, for example
// the Allow header of a 405 response.
type ErrorHeaders interface {
	error
	Headers() http.Header
}

// New returns the formatter registered under name: "text", "simple" or
// "rfc9457". baseURL is only used by the RFC 9457 formatter.
func New(name, baseURL string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return NewText(), nil
	case "simple", "json":
		return NewSimple(), nil
	case "rfc9457", "problem":
		return NewRFC9457(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown error format %q", name)
	}
}

// NewRFC9457 creates a formatter producing RFC 9457 problem details. baseURL
// is prepended to error codes to build the problem "type" URI.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// NewSimple creates a formatter producing {"error": "..."} JSON bodies.
func NewSimple() *Simple {
	return &Simple{}
}

// NewText creates a formatter writing the error message as plain text.
func NewText() *Text {
	return &Text{}
}

// WithStatus wraps err so that it reports status as its HTTP status code.
// A nil err uses the status text as its message.
//
// Example:
//
//	return errors.WithStatus(err, http.StatusConflict)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}

	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

// StatusOf returns the HTTP status declared by err or any error it wraps,
// or 500 when none declares one.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		if s := typed.HTTPStatus(); s >= 400 && s < 600 {
			return s
		}
	}

	return http.StatusInternalServerError
}

// headersOf collects the headers declared by err, if any.
func headersOf(err error) http.Header {
	var h ErrorHeaders
	if errors.As(err, &h) {
		return h.Headers().Clone()
	}

	return nil
}

func resolveStatus(resolver func(error) int, err error) int {
	if resolver != nil {
		return resolver(err)
	}

	return StatusOf(err)
}
