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

// Text writes the error message verbatim as text/plain.
type Text struct {
	// StatusResolver overrides the status derived from [ErrorType].
	StatusResolver func(err error) int
}

// Format implements [Formatter].
func (f *Text) Format(_ string, err error) Response {
	return Response{
		Status:      resolveStatus(f.StatusResolver, err),
		ContentType: "text/plain;charset=UTF-8",
		Body:        []byte(err.Error()),
		Headers:     headersOf(err),
	}
}
