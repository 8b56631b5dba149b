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

	json "github.com/goccy/go-json"
)

// Simple formats errors as small JSON objects:
//
//	{"error": "message", "code": "...", "details": {...}}
//
// code and details are present only when the error implements [ErrorCode]
// or [ErrorDetails].
type Simple struct {
	// StatusResolver overrides the status derived from [ErrorType].
	StatusResolver func(err error) int
}

// Format implements [Formatter].
func (f *Simple) Format(_ string, err error) Response {
	body := map[string]any{"error": err.Error()}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		body["details"] = detailed.Details()
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
	}

	data, mErr := json.Marshal(body)
	if mErr != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
	}

	return Response{
		Status:      resolveStatus(f.StatusResolver, err),
		ContentType: "application/json;charset=UTF-8",
		Body:        data,
		Headers:     headersOf(err),
	}
}
