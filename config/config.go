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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Option configures a [Config].
type Option func(c *Config) error

// Config loads values from an ordered list of sources, merges them (later
// sources win), and optionally binds the result onto a struct.
//
// Config is safe for concurrent use.
type Config struct {
	mu       sync.RWMutex
	values   map[string]any
	sources  []Source
	binding  any
	tagName  string
	validate *validator.Validate
	schema   *jsonschema.Schema
}

// New creates a Config. Errors from individual options are joined; the
// partially built Config is returned alongside them.
func New(options ...Option) (*Config, error) {
	c := &Config{
		values:   map[string]any{},
		tagName:  "config",
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	var errs error
	for _, opt := range options {
		if opt == nil {
			continue
		}
		errs = errors.Join(errs, opt(c))
	}

	return c, errs
}

// MustNew is like [New] but panics on error.
func MustNew(options ...Option) *Config {
	c, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}

	return c
}

// WithSource appends a custom source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return NewError("source", "add", errors.New("source is nil"))
		}
		c.sources = append(c.sources, src)

		return nil
	}
}

// WithFile appends a file source. The format is detected from the
// extension (.yaml, .yml, .toml, .json). Environment variables in path are
// expanded. A missing file is an error at load time.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		dec, err := decoderFor(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		c.sources = append(c.sources, &fileSource{path: path, decode: dec})

		return nil
	}
}

// WithOptionalFile is like [WithFile] but a missing file contributes nothing.
func WithOptionalFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		dec, err := decoderFor(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}
		c.sources = append(c.sources, &fileSource{path: path, decode: dec, optional: true})

		return nil
	}
}

// WithContent appends an in-memory source in the given format ("yaml",
// "toml" or "json").
func WithContent(data []byte, format string) Option {
	return func(c *Config) error {
		dec, err := decoderFor("content." + format)
		if err != nil {
			return NewError("content-source", "detect-format", err)
		}
		c.sources = append(c.sources, &fileSource{data: data, decode: dec})

		return nil
	}
}

// WithEnv appends a source reading environment variables that start with
// prefix. DISPATCH_SERVER_ADDR with prefix "DISPATCH_" sets server.addr.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, &envSource{prefix: prefix, environ: os.Environ})
		return nil
	}
}

// WithBinding binds loaded values onto v, which must be a pointer to a
// struct. Fields are matched by the "config" tag (see [WithTag]), zero
// fields receive their "default" tag value, and "validate" tags are checked.
// If v implements [Validator] it is called last.
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return NewError("binding", "setup", fmt.Errorf("binding must be a non-nil pointer to a struct, got %T", v))
		}
		c.binding = v

		return nil
	}
}

// WithTag changes the struct tag used for binding.
func WithTag(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewError("binding", "setup", errors.New("tag name cannot be empty"))
		}
		c.tagName = name

		return nil
	}
}

// Validator is implemented by bound structs that check themselves.
type Validator interface {
	Validate() error
}

// Load reads every source, merges the results and binds them. The
// previously loaded state is kept when any step fails.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	merged := map[string]any{}
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		values, err := src.Load(ctx)
		if err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}

		if err = mergo.Map(&merged, normalizeKeys(values), mergo.WithOverride); err != nil {
			return NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	if c.schema != nil {
		if err := c.validateSchema(merged); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		target := reflect.New(reflect.TypeOf(c.binding).Elem())
		if err := c.bindInto(merged, target.Interface()); err != nil {
			return err
		}
		reflect.ValueOf(c.binding).Elem().Set(target.Elem())
	}
	c.values = merged

	return nil
}

// MustLoad is like [Config.Load] but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

func (c *Config) bindInto(values map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          c.tagName,
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return NewError("binding", "bind", err)
	}
	if err = dec.Decode(values); err != nil {
		return NewError("binding", "bind", err)
	}

	if err = applyDefaults(reflect.ValueOf(target).Elem()); err != nil {
		return NewError("binding", "defaults", err)
	}

	if err = c.validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewFieldError("binding", verrs[0].Namespace(), "validate", err)
		}

		return NewError("binding", "validate", err)
	}

	if v, ok := target.(Validator); ok {
		if err = v.Validate(); err != nil {
			return NewError("binding", "validate", err)
		}
	}

	return nil
}

// Get returns the value at a dotted, case-insensitive key such as
// "server.addr", or nil.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var cur any = c.values
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}

	return cur
}

// Values returns a copy of the top level of the merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}

	return out
}

func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch nested := v.(type) {
		case map[string]any:
			v = normalizeKeys(nested)
		case map[any]any:
			conv := make(map[string]any, len(nested))
			for nk, nv := range nested {
				conv[fmt.Sprint(nk)] = nv
			}
			v = normalizeKeys(conv)
		}
		out[strings.ToLower(k)] = v
	}

	return out
}
