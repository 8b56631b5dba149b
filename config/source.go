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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"rivaas.dev/dispatch/codec"
)

// Source produces a tree of configuration values. Keys are normalized to
// lowercase by [Config.Load]. Load must be safe to call concurrently.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context) (map[string]any, error)

// Load implements [Source].
func (f SourceFunc) Load(ctx context.Context) (map[string]any, error) { return f(ctx) }

type decodeFunc func(data []byte, v *map[string]any) error

var extensionDecoders = map[string]decodeFunc{
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".toml": func(data []byte, v *map[string]any) error { return codec.TOML{}.Unmarshal(data, v) },
	".json": func(data []byte, v *map[string]any) error { return codec.JSON{}.Unmarshal(data, v) },
}

func decodeYAML(data []byte, v *map[string]any) error {
	return yaml.Unmarshal(data, v)
}

func decoderFor(path string) (decodeFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if dec, ok := extensionDecoders[ext]; ok {
		return dec, nil
	}

	return nil, fmt.Errorf("cannot detect format from extension %q", ext)
}

type fileSource struct {
	path     string
	data     []byte
	optional bool
	decode   decodeFunc
}

func (f *fileSource) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		data, err = os.ReadFile(f.path)
		if err != nil {
			if f.optional && errors.Is(err, fs.ErrNotExist) {
				return map[string]any{}, nil
			}

			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	values := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}
	if err := f.decode(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.describe(), err)
	}

	return values, nil
}

func (f *fileSource) describe() string {
	if f.path != "" {
		return f.path
	}

	return "content"
}

// envSource maps PREFIX_A_B=v to {"a": {"b": "v"}}. Empty segments from
// doubled underscores are skipped.
type envSource struct {
	prefix  string
	environ func() []string
}

func (e *envSource) Load(context.Context) (map[string]any, error) {
	values := map[string]any{}

	for _, kv := range e.environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, e.prefix) {
			continue
		}

		var parts []string
		for _, p := range strings.Split(strings.ToLower(strings.TrimPrefix(key, e.prefix)), "_") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}

		cur := values
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = strings.TrimSpace(val)
	}

	return values, nil
}
