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

//go:build !integration

package dispatch

import (
	"context"
	"net/http"
	"net/netip"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveOne(t *testing.T, fn any, name, target string) (reflect.Value, error) {
	t.Helper()

	b, err := NewFuncBinding(fn, WithParamNames(name))
	require.NoError(t, err)

	args, err := NewArgumentResolvers(DefaultArgumentResolvers()...).
		ResolveArguments(b, newTestRequest(t, http.MethodGet, target, nil))
	if err != nil {
		return reflect.Value{}, err
	}

	return args[0], nil
}

func TestParamResolver_Conversions(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		fn     any
		target string
		want   any
	}{
		{name: "string", fn: func(string) {}, target: "/?v=abc", want: "abc"},
		{name: "empty string", fn: func(string) {}, target: "/?v=", want: ""},
		{name: "int", fn: func(int) {}, target: "/?v=42", want: 42},
		{name: "int8", fn: func(int8) {}, target: "/?v=-7", want: int8(-7)},
		{name: "uint16", fn: func(uint16) {}, target: "/?v=65535", want: uint16(65535)},
		{name: "float32", fn: func(float32) {}, target: "/?v=1.5", want: float32(1.5)},
		{name: "float64", fn: func(float64) {}, target: "/?v=2.25", want: 2.25},
		{name: "bool yes", fn: func(bool) {}, target: "/?v=yes", want: true},
		{name: "bool off", fn: func(bool) {}, target: "/?v=off", want: false},
		{name: "date", fn: func(time.Time) {}, target: "/?v=2024-01-15", want: day},
		{name: "duration", fn: func(time.Duration) {}, target: "/?v=1m30s", want: 90 * time.Second},
		{name: "text unmarshaler", fn: func(netip.Addr) {}, target: "/?v=10.0.0.1", want: netip.MustParseAddr("10.0.0.1")},
		{name: "absent int", fn: func(int) {}, target: "/", want: 0},
		{name: "empty int", fn: func(int) {}, target: "/?v=", want: 0},
		{name: "absent pointer", fn: func(*int) {}, target: "/", want: (*int)(nil)},
		{name: "slice", fn: func([]int) {}, target: "/?v=1&v=2&v=&v=3", want: []int{1, 2, 3}},
		{name: "absent slice", fn: func([]string) {}, target: "/", want: []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, err := resolveOne(t, tt.fn, "v", tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Interface())
		})
	}
}

func TestParamResolver_Pointer(t *testing.T) {
	t.Parallel()

	v, err := resolveOne(t, func(*int) {}, "v", "/?v=9")
	require.NoError(t, err)
	p, ok := v.Interface().(*int)
	require.True(t, ok)
	require.NotNil(t, p)
	assert.Equal(t, 9, *p)
}

func TestParamResolver_ConversionFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fn     any
		target string
	}{
		{name: "int", fn: func(int) {}, target: "/?v=abc"},
		{name: "int8 overflow", fn: func(int8) {}, target: "/?v=300"},
		{name: "bool", fn: func(bool) {}, target: "/?v=maybe"},
		{name: "time", fn: func(time.Time) {}, target: "/?v=yesterday"},
		{name: "slice element", fn: func([]int) {}, target: "/?v=1&v=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := resolveOne(t, tt.fn, "v", tt.target)

			var unresolvable *UnresolvableParameterError
			require.ErrorAs(t, err, &unresolvable)
			assert.Equal(t, 0, unresolvable.Index)
			assert.Equal(t, http.StatusBadRequest, unresolvable.HTTPStatus())

			var conv *ConversionError
			require.ErrorAs(t, err, &conv)
			assert.Equal(t, "v", conv.Name)
			assert.Contains(t, err.Error(), "Could not resolve parameter [0] in ")
		})
	}
}

func TestParamResolver_MissingName(t *testing.T) {
	t.Parallel()

	_, err := resolveOne(t, func(int) {}, "", "/?v=1")
	require.ErrorIs(t, err, ErrNoNamedValue)

	var unresolvable *UnresolvableParameterError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, http.StatusInternalServerError, unresolvable.HTTPStatus())
}

func TestArgumentResolvers_Unsupported(t *testing.T) {
	t.Parallel()

	b, err := NewFuncBinding(func(string, map[string]int) {}, WithParamNames("a", "b"))
	require.NoError(t, err)

	_, err = NewArgumentResolvers(DefaultArgumentResolvers()...).
		ResolveArguments(b, newTestRequest(t, http.MethodGet, "/?a=1", nil))

	var unresolvable *UnresolvableParameterError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, 1, unresolvable.Index)
	assert.Equal(t, b.Method(), unresolvable.Method)
	require.ErrorIs(t, err, ErrNoResolver)
}

func TestRequestResolver(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}

	var (
		gotReq  *Request
		gotHTTP *http.Request
		gotCtx  context.Context
	)
	b, err := NewFuncBinding(func(r *Request, hr *http.Request, ctx context.Context) {
		gotReq, gotHTTP, gotCtx = r, hr, ctx
	})
	require.NoError(t, err)

	req := newTestRequest(t, http.MethodGet, "/", nil)
	req.SetContext(context.WithValue(req.Context(), ctxKey{}, "v"))

	args, err := NewArgumentResolvers(DefaultArgumentResolvers()...).ResolveArguments(b, req)
	require.NoError(t, err)
	_, err = b.Invoke(args)
	require.NoError(t, err)

	assert.Same(t, req, gotReq)
	assert.Same(t, req.HTTPRequest(), gotHTTP)
	assert.Equal(t, "v", gotCtx.Value(ctxKey{}))
}

// countingResolver counts SupportsParameter calls.
type countingResolver struct {
	supports atomic.Int32
}

func (c *countingResolver) SupportsParameter(p *Parameter) bool {
	c.supports.Add(1)
	return p.Type.Kind() == reflect.String
}

func (c *countingResolver) ResolveArgument(*Parameter, *Request) (reflect.Value, error) {
	return reflect.ValueOf("fixed"), nil
}

func TestArgumentResolvers_CachePerParameter(t *testing.T) {
	t.Parallel()

	counting := &countingResolver{}
	resolvers := NewArgumentResolvers(counting)
	b, err := NewFuncBinding(func(a, b string) string { return a + b })
	require.NoError(t, err)
	req := newTestRequest(t, http.MethodGet, "/", nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			args, err := resolvers.ResolveArguments(b, req)
			assert.NoError(t, err)
			assert.Len(t, args, 2)
		}()
	}
	wg.Wait()

	before := counting.supports.Load()
	assert.GreaterOrEqual(t, before, int32(2))

	for range 10 {
		_, err := resolvers.ResolveArguments(b, req)
		require.NoError(t, err)
	}
	assert.Equal(t, before, counting.supports.Load())
	assert.True(t, resolvers.Supports(b.Parameters()[0]))
}

func TestDispatcher_CustomResolverTakesPrecedence(t *testing.T) {
	t.Parallel()

	table := mustBuild(t, Entry{
		Func:   func(s string) string { return s },
		Route:  routeInfo("/echo"),
		Params: []string{"s"},
	})
	d := MustNew(table, WithArgumentResolvers(&countingResolver{}))

	resp := d.Dispatch(newTestRequest(t, http.MethodGet, "/echo?s=query", nil))
	assert.Equal(t, "fixed", string(resp.Body()))
}
