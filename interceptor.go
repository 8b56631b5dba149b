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

// Interceptor is a pipeline stage around handler invocation.
//
// For each request the dispatcher selects the interceptors whose Match
// returns true. PreHandle runs in registration order; returning false
// stops the pipeline and the handler is not invoked, in which case the
// interceptor is expected to have written resp. PostHandle runs in reverse
// order after a successful handler. AfterCompletion runs in reverse order
// for every interceptor whose PreHandle returned true, with the failure
// that ended the request, if any. AfterCompletion errors are logged and
// otherwise ignored.
type Interceptor interface {
	Match(req *Request) bool
	PreHandle(req *Request, resp *Response, b *Binding) (bool, error)
	PostHandle(req *Request, resp *Response, b *Binding) error
	AfterCompletion(req *Request, resp *Response, b *Binding, err error) error
}

// BaseInterceptor provides the default hooks: match everything, continue,
// do nothing. Embed it and override what is needed.
//
// Example:
//
//	type auditInterceptor struct {
//	    dispatch.BaseInterceptor
//	}
//
//	func (auditInterceptor) AfterCompletion(req *dispatch.Request, _ *dispatch.Response, _ *dispatch.Binding, err error) error {
//	    slog.Info("handled", "path", req.Path(), "error", err)
//	    return nil
//	}
type BaseInterceptor struct{}

func (BaseInterceptor) Match(*Request) bool                                   { return true }
func (BaseInterceptor) PreHandle(*Request, *Response, *Binding) (bool, error) { return true, nil }
func (BaseInterceptor) PostHandle(*Request, *Response, *Binding) error        { return nil }
func (BaseInterceptor) AfterCompletion(*Request, *Response, *Binding, error) error {
	return nil
}

// InterceptorFuncs builds an [Interceptor] from functions. A nil function
// takes the default behavior of [BaseInterceptor].
type InterceptorFuncs struct {
	MatchFunc           func(req *Request) bool
	PreHandleFunc       func(req *Request, resp *Response, b *Binding) (bool, error)
	PostHandleFunc      func(req *Request, resp *Response, b *Binding) error
	AfterCompletionFunc func(req *Request, resp *Response, b *Binding, err error) error
}

// Match implements [Interceptor].
func (f InterceptorFuncs) Match(req *Request) bool {
	if f.MatchFunc == nil {
		return true
	}

	return f.MatchFunc(req)
}

// PreHandle implements [Interceptor].
func (f InterceptorFuncs) PreHandle(req *Request, resp *Response, b *Binding) (bool, error) {
	if f.PreHandleFunc == nil {
		return true, nil
	}

	return f.PreHandleFunc(req, resp, b)
}

// PostHandle implements [Interceptor].
func (f InterceptorFuncs) PostHandle(req *Request, resp *Response, b *Binding) error {
	if f.PostHandleFunc == nil {
		return nil
	}

	return f.PostHandleFunc(req, resp, b)
}

// AfterCompletion implements [Interceptor].
func (f InterceptorFuncs) AfterCompletion(req *Request, resp *Response, b *Binding, err error) error {
	if f.AfterCompletionFunc == nil {
		return nil
	}

	return f.AfterCompletionFunc(req, resp, b, err)
}

// PathInterceptor restricts an interceptor to a set of exact paths.
func PathInterceptor(i Interceptor, paths ...string) Interceptor {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}

	return &pathInterceptor{Interceptor: i, paths: set}
}

type pathInterceptor struct {
	Interceptor
	paths map[string]struct{}
}

func (p *pathInterceptor) Match(req *Request) bool {
	if _, ok := p.paths[req.Path()]; !ok {
		return false
	}

	return p.Interceptor.Match(req)
}
