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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type greeting struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Count int    `json:"count" yaml:"count" toml:"count"`
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"json", "JSON", "yaml", "toml", "msgpack", "protobuf"} {
		c, err := Lookup(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, c.ContentType())
	}

	_, err := Lookup("xml")
	require.ErrorIs(t, err, ErrUnknownCodec)
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Subset(t, Names(), []string{"json", "msgpack", "toml", "yaml"})
}

func TestJSON(t *testing.T) {
	t.Parallel()

	c := JSON{}
	assert.Equal(t, "application/json;charset=UTF-8", c.ContentType())

	body, err := c.Marshal(map[string]string{"name": "wjw", "html": "<b>"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"wjw","html":"<b>"}`, string(body))
	assert.Contains(t, string(body), "<b>")

	var got map[string]string
	require.NoError(t, c.Unmarshal(body, &got))
	assert.Equal(t, "wjw", got["name"])
}

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, c := range []Codec{JSON{}, YAML{}, TOML{}, MsgPack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()

			in := greeting{Name: "wjw", Count: 3}
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out greeting
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestTOML_RejectsScalar(t *testing.T) {
	t.Parallel()

	_, err := TOML{}.Marshal("123")
	require.Error(t, err)
}

func TestProtobuf(t *testing.T) {
	t.Parallel()

	c := Protobuf{}
	assert.Equal(t, "application/x-protobuf", c.ContentType())

	t.Run("message", func(t *testing.T) {
		t.Parallel()

		data, err := c.Marshal(wrapperspb.String("wjw"))
		require.NoError(t, err)

		var out wrapperspb.StringValue
		require.NoError(t, c.Unmarshal(data, &out))
		assert.Equal(t, "wjw", out.GetValue())
	})

	t.Run("plain value", func(t *testing.T) {
		t.Parallel()

		data, err := c.Marshal(greeting{Name: "wjw", Count: 3})
		require.NoError(t, err)

		var out structpb.Value
		require.NoError(t, c.Unmarshal(data, &out))
		fields := out.GetStructValue().GetFields()
		assert.Equal(t, "wjw", fields["name"].GetStringValue())
		assert.InDelta(t, 3.0, fields["count"].GetNumberValue(), 0)
	})

	t.Run("non message target", func(t *testing.T) {
		t.Parallel()

		var out greeting
		require.ErrorIs(t, c.Unmarshal(nil, &out), ErrUnsupportedTarget)
	})
}
