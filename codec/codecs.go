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

package codec

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// JSON encodes with goccy/go-json. HTML characters are not escaped.
type JSON struct{}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json;charset=UTF-8" }

func (JSON) Marshal(v any) ([]byte, error) {
	return json.MarshalWithOption(v, json.DisableHTMLEscape())
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// YAML encodes with gopkg.in/yaml.v3.
type YAML struct{}

func (YAML) Name() string        { return "yaml" }
func (YAML) ContentType() string { return "application/yaml;charset=UTF-8" }

func (YAML) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAML) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// TOML encodes with BurntSushi/toml. Only maps and structs can be encoded
// at the top level.
type TOML struct{}

func (TOML) Name() string        { return "toml" }
func (TOML) ContentType() string { return "application/toml;charset=UTF-8" }

func (TOML) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (TOML) Unmarshal(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

// MsgPack encodes with vmihailenco/msgpack, using json struct tags as a
// fallback so the same types serialize consistently across codecs.
type MsgPack struct{}

func (MsgPack) Name() string        { return "msgpack" }
func (MsgPack) ContentType() string { return "application/msgpack" }

func (MsgPack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (MsgPack) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")

	return dec.Decode(v)
}

// Protobuf encodes proto messages in the binary wire format. Other values
// are converted through their JSON form into a google.protobuf.Value.
type Protobuf struct{}

func (Protobuf) Name() string        { return "protobuf" }
func (Protobuf) ContentType() string { return "application/x-protobuf" }

func (Protobuf) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}

	data, err := JSON{}.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err = json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	value, err := structpb.NewValue(generic)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %T to google.protobuf.Value: %w", v, err)
	}

	return proto.Marshal(value)
}

// Unmarshal requires v to be a proto message.
func (Protobuf) Unmarshal(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T is not a proto message", ErrUnsupportedTarget, v)
	}

	return proto.Unmarshal(data, m)
}
