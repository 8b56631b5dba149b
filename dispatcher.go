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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"rivaas.dev/dispatch/codec"
	riverrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/logging"
)

// ErrNilTable is returned by [New] without a routing table.
var ErrNilTable = errors.New("dispatch: nil routing table")

// Dispatcher runs one request through lookup, the interceptor chain,
// argument resolution, invocation and return value handling.
//
// A Dispatcher is safe for concurrent use once created. Creating it freezes
// the routing table.
type Dispatcher struct {
	table          *Table
	interceptors   []Interceptor
	resolvers      *ArgumentResolvers
	returnHandlers *ReturnValueHandlers

	customResolvers []ArgumentResolver
	customHandlers  []ReturnValueHandler

	formatter    riverrors.Formatter
	bodyCodec    codec.Codec
	logger       *slog.Logger
	diagnostics  DiagnosticHandler
	maxBodyBytes int64
}

// New creates a dispatcher serving table.
//
// Example:
//
//	table, err := dispatch.Build(dispatch.Collect(&HelloController{}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err := dispatch.New(table,
//	    dispatch.WithInterceptors(requestid.New(), accesslog.New(logger)),
//	    dispatch.WithLogger(logger),
//	)
func New(table *Table, opts ...Option) (*Dispatcher, error) {
	if table == nil {
		return nil, ErrNilTable
	}

	d := &Dispatcher{
		table:        table,
		formatter:    riverrors.NewText(),
		bodyCodec:    codec.JSON{},
		logger:       logging.Nop(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	// The interceptor list is fixed from here on.
	d.interceptors = append([]Interceptor(nil), d.interceptors...)
	d.resolvers = NewArgumentResolvers(append(d.customResolvers, DefaultArgumentResolvers()...)...)
	d.returnHandlers = NewReturnValueHandlers(append(d.customHandlers, DefaultReturnValueHandlers(d.bodyCodec)...)...)
	table.Freeze()

	return d, nil
}

// MustNew is like [New] but panics on error.
func MustNew(table *Table, opts ...Option) *Dispatcher {
	d, err := New(table, opts...)
	if err != nil {
		panic(fmt.Sprintf("dispatch: %v", err))
	}

	return d
}

func (d *Dispatcher) validate() error {
	var errs []error
	if d.formatter == nil {
		errs = append(errs, errors.New("error formatter cannot be nil"))
	}
	if d.bodyCodec == nil {
		errs = append(errs, errors.New("body codec cannot be nil"))
	}
	if d.logger == nil {
		errs = append(errs, errors.New("logger cannot be nil"))
	}
	if d.maxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body bytes must be positive, got %d", d.maxBodyBytes))
	}
	for i, in := range d.interceptors {
		if in == nil {
			errs = append(errs, fmt.Errorf("interceptor %d is nil", i))
		}
	}

	return errors.Join(errs...)
}

// Table returns the routing table.
func (d *Dispatcher) Table() *Table { return d.table }

// Interceptors returns the registered interceptors in order.
func (d *Dispatcher) Interceptors() []Interceptor {
	return append([]Interceptor(nil), d.interceptors...)
}

// Dispatch handles req and returns the complete response. It never fails:
// every error becomes an error response.
func (d *Dispatcher) Dispatch(req *Request) *Response {
	resp := d.dispatch(req)

	if req.HTTPRequest().ProtoMajor < 2 {
		if req.KeepAlive() {
			resp.Header().Set("Connection", "keep-alive")
		} else {
			resp.Header().Set("Connection", "close")
		}
	}
	resp.Header().Set("Content-Length", strconv.Itoa(len(resp.Body())))

	return resp
}

func (d *Dispatcher) dispatch(req *Request) *Response {
	reg, ok := d.table.Lookup(req.Path())
	if !ok {
		d.logger.Debug("no route", "method", req.Method(), "path", req.Path())
		return notFoundResponse()
	}

	resp := NewResponse()
	if _, err := d.table.MatchMethod(reg.Descriptor, req.Method()); err != nil {
		d.writeError(req, resp, err)
		return resp
	}
	if _, err := reg.Binding.Materialize(); err != nil {
		d.writeError(req, resp, err)
		return resp
	}

	chain, err := d.chainFor(reg.Binding, req)
	if err != nil {
		d.writeError(req, resp, err)
		return resp
	}

	ok, err = chain.ApplyPreHandle(req, resp)
	if err != nil {
		d.fail(chain, req, resp, err)
		return resp
	}
	if !ok {
		return resp
	}

	out, err := d.handle(reg.Binding, req)
	if err != nil {
		d.fail(chain, req, resp, err)
		return resp
	}
	resp.merge(out)

	if err := chain.ApplyPostHandle(req, resp); err != nil {
		d.fail(chain, req, resp, err)
		return resp
	}
	chain.TriggerAfterCompletion(req, resp, nil)

	return resp
}

// chainFor selects the interceptors matching req, keeping registration order.
func (d *Dispatcher) chainFor(b *Binding, req *Request) (chain *ExecutionChain, err error) {
	defer func() {
		if p := recover(); p != nil {
			chain, err = nil, &InterceptorError{Phase: "match", Err: panicError(p)}
		}
	}()

	matched := make([]Interceptor, 0, len(d.interceptors))
	for _, in := range d.interceptors {
		if in.Match(req) {
			matched = append(matched, in)
		}
	}

	chain = NewExecutionChain(b, matched)
	chain.logger = d.logger
	chain.diagnostics = d.diagnostics

	return chain, nil
}

// handle resolves arguments, invokes the handler and renders its result.
func (d *Dispatcher) handle(b *Binding, req *Request) (resp *Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, &InvocationError{Method: b.Method(), Err: panicError(p), Panic: p}
		}
	}()

	args, err := d.resolvers.ResolveArguments(b, req)
	if err != nil {
		return nil, err
	}

	result, err := b.Invoke(args)
	if err != nil {
		return nil, err
	}

	return d.returnHandlers.HandleReturnValue(result, b.ReturnType(), req)
}

// fail renders err into resp and then runs AfterCompletion with it, so
// interceptors observe the final status.
func (d *Dispatcher) fail(chain *ExecutionChain, req *Request, resp *Response, err error) {
	d.writeError(req, resp, err)
	chain.TriggerAfterCompletion(req, resp, err)
}

func (d *Dispatcher) writeError(req *Request, resp *Response, err error) {
	rendered := d.formatter.Format(req.Path(), err)

	attrs := []any{"method", req.Method(), "path", req.Path(), "status", rendered.Status, "error", err}
	if rendered.Status >= http.StatusInternalServerError {
		d.logger.Error("dispatch failed", attrs...)
	} else {
		d.logger.Debug("dispatch rejected", attrs...)
	}

	resp.Header().Del("Content-Type")
	resp.merge(newErrorResponse(rendered))
}
