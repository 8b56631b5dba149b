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
	"fmt"
	"net/http"
	"reflect"

	"rivaas.dev/dispatch/codec"
)

// Content types written by the built-in return value handlers.
const (
	ContentTypeHTML = "text/html;charset=UTF-8"
	ContentTypeText = "text/plain;charset=UTF-8"
)

// ReturnValueHandler turns a handler result into a response.
type ReturnValueHandler interface {
	SupportsReturnType(rt ReturnType) bool
	HandleReturnValue(value any, rt ReturnType, req *Request) (*Response, error)
}

// ReturnValueHandlers is an ordered list of handlers; the first handler
// supporting a return type wins.
type ReturnValueHandlers struct {
	handlers []ReturnValueHandler
}

// NewReturnValueHandlers returns a chain over handlers, in order.
func NewReturnValueHandlers(handlers ...ReturnValueHandler) *ReturnValueHandlers {
	return &ReturnValueHandlers{handlers: handlers}
}

// DefaultReturnValueHandlers returns the built-in handlers with c as the
// body codec: direct responses, structured bodies, then views.
func DefaultReturnValueHandlers(c codec.Codec) []ReturnValueHandler {
	return []ReturnValueHandler{ResponseHandler{}, BodyHandler{Codec: c}, ViewHandler{}}
}

// Handlers returns the handlers in order.
func (h *ReturnValueHandlers) Handlers() []ReturnValueHandler { return h.handlers }

// HandleReturnValue renders value with the first supporting handler.
func (h *ReturnValueHandlers) HandleReturnValue(value any, rt ReturnType, req *Request) (*Response, error) {
	for _, handler := range h.handlers {
		if handler.SupportsReturnType(rt) {
			return handler.HandleReturnValue(value, rt, req)
		}
	}

	return nil, &UnsupportedReturnTypeError{Type: rt.Type, Method: rt.Method}
}

var responseType = reflect.TypeFor[*Response]()

// ResponseHandler passes through a *Response returned by the handler.
type ResponseHandler struct{}

// SupportsReturnType implements [ReturnValueHandler].
func (ResponseHandler) SupportsReturnType(rt ReturnType) bool {
	return rt.Type == responseType
}

// HandleReturnValue implements [ReturnValueHandler]. A nil response
// becomes an empty 200.
func (ResponseHandler) HandleReturnValue(value any, _ ReturnType, _ *Request) (*Response, error) {
	if resp, ok := value.(*Response); ok && resp != nil {
		return resp, nil
	}

	return NewResponse(), nil
}

// BodyHandler writes results of handlers marked as structured content.
// Text values are written verbatim, everything else through Codec. The
// codec content type is used in both cases.
type BodyHandler struct {
	Codec codec.Codec
}

// SupportsReturnType implements [ReturnValueHandler].
func (BodyHandler) SupportsReturnType(rt ReturnType) bool {
	return rt.Body
}

// HandleReturnValue implements [ReturnValueHandler].
func (h BodyHandler) HandleReturnValue(value any, _ ReturnType, _ *Request) (*Response, error) {
	c := h.Codec
	if c == nil {
		c = codec.JSON{}
	}

	resp := NewResponse()
	resp.Header().Set("Content-Type", c.ContentType())

	if text, ok := asText(value); ok {
		resp.WriteString(text)
		return resp, nil
	}
	if isNil(value) {
		return resp, nil
	}

	data, err := c.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T with %s codec: %w", value, c.Name(), err)
	}
	resp.SetBody(data)

	return resp, nil
}

// ViewHandler writes text results, and empty bodies for handlers without
// a value, as HTML.
type ViewHandler struct{}

// SupportsReturnType implements [ReturnValueHandler].
func (ViewHandler) SupportsReturnType(rt ReturnType) bool {
	return rt.Type == nil || isTextType(rt.Type)
}

// HandleReturnValue implements [ReturnValueHandler].
func (ViewHandler) HandleReturnValue(value any, rt ReturnType, _ *Request) (*Response, error) {
	resp := NewResponse()
	resp.Header().Set("Content-Type", ContentTypeHTML)

	if isNil(value) {
		return resp, nil
	}
	text, ok := asText(value)
	if !ok {
		return nil, &UnsupportedReturnTypeError{Type: reflect.TypeOf(value), Method: rt.Method}
	}
	resp.WriteString(text)

	return resp, nil
}

var (
	bytesType    = reflect.TypeFor[[]byte]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
)

func isTextType(t reflect.Type) bool {
	return t.Kind() == reflect.String || t == bytesType || t.Implements(stringerType)
}

func asText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		if isNil(v) {
			return "", false
		}
		return x.String(), true
	}

	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() == reflect.String {
		return rv.String(), true
	}

	return "", false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// notFoundResponse is written when no route matches the request path.
func notFoundResponse() *Response {
	return NewTextResponse(http.StatusNotFound, ContentTypeText, "Not Found")
}
