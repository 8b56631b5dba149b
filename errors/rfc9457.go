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
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// RFC9457 formats errors as RFC 9457 problem details with Content-Type
// "application/problem+json".
type RFC9457 struct {
	// BaseURL is prepended to error codes to build the "type" URI.
	BaseURL string

	// TypeResolver overrides the "type" derived from [ErrorCode].
	TypeResolver func(err error) string

	// StatusResolver overrides the status derived from [ErrorType].
	StatusResolver func(err error) int

	// ErrorIDGenerator produces the "error_id" extension. Defaults to a
	// random 128-bit hex string.
	ErrorIDGenerator func() string

	// DisableErrorID omits the "error_id" extension.
	DisableErrorID bool
}

// ProblemDetail is an RFC 9457 problem detail object. Extensions are
// marshaled inline next to the standard members.
type ProblemDetail struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

var reservedMembers = map[string]struct{}{
	"type": {}, "title": {}, "status": {}, "detail": {}, "instance": {},
}

// MarshalJSON implements [json.Marshaler]. Extensions cannot overwrite the
// standard members.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		if _, reserved := reservedMembers[k]; !reserved {
			m[k] = v
		}
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}

	return json.Marshal(m)
}

// Problem builds the problem detail for err without encoding it.
func (f *RFC9457) Problem(instance string, err error) ProblemDetail {
	status := resolveStatus(f.StatusResolver, err)
	p := ProblemDetail{
		Type:       f.problemType(err),
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Instance:   instance,
		Extensions: map[string]any{},
	}

	if !f.DisableErrorID {
		gen := f.ErrorIDGenerator
		if gen == nil {
			gen = generateErrorID
		}
		p.Extensions["error_id"] = gen()
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		p.Extensions["errors"] = detailed.Details()
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		p.Extensions["code"] = coded.Code()
	}

	return p
}

// Format implements [Formatter].
func (f *RFC9457) Format(instance string, err error) Response {
	p := f.Problem(instance, err)

	data, mErr := json.Marshal(p)
	if mErr != nil {
		p.Extensions = nil
		data, _ = json.Marshal(p)
	}

	return Response{
		Status:      p.Status,
		ContentType: "application/problem+json;charset=UTF-8",
		Body:        data,
		Headers:     headersOf(err),
	}
}

func (f *RFC9457) problemType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		if f.BaseURL != "" {
			return strings.TrimSuffix(f.BaseURL, "/") + "/" + coded.Code()
		}

		return coded.Code()
	}

	return "about:blank"
}

func generateErrorID() string {
	b := make([]byte, 16) //nolint:makezero // crypto/rand.Read requires pre-allocated buffer
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("err-%d", time.Now().UnixNano())
	}

	return "err-" + hex.EncodeToString(b)
}
