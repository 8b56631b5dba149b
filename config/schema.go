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
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/dispatch/codec"
)

// WithJSONSchema validates the merged values against a JSON Schema before
// binding. Keys are lowercase at that point, so property names in the
// schema must be lowercase too.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return NewError("json-schema", "parse", err)
		}

		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource("inline.json", doc); err != nil {
			return NewError("json-schema", "compile", err)
		}
		compiled, err := compiler.Compile("inline.json")
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		c.schema = compiled

		return nil
	}
}

// validateSchema checks values after a JSON round trip, which turns the
// integer and map types produced by the decoders into JSON values.
func (c *Config) validateSchema(values map[string]any) error {
	data, err := codec.JSON{}.Marshal(values)
	if err != nil {
		return NewError("json-schema", "validate", fmt.Errorf("failed to encode values: %w", err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return NewError("json-schema", "validate", err)
	}
	if err = c.schema.Validate(doc); err != nil {
		return NewError("json-schema", "validate", err)
	}

	return nil
}
