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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	data map[string]any
	err  error
}

func (s staticSource) Load(context.Context) (map[string]any, error) { return s.data, s.err }

func TestNew_MergesSourcesInOrderLaterWins(t *testing.T) {
	c, err := New(context.Background(),
		WithSource(staticSource{data: map[string]any{"server": map[string]any{"port": 8080, "host": "localhost"}}}),
		WithSource(staticSource{data: map[string]any{"server": map[string]any{"port": 9090}}}),
	)
	require.NoError(t, err)

	port, ok := c.Get("server.port")
	require.True(t, ok)
	assert.EqualValues(t, 9090, port)

	host, ok := c.Get("server.host")
	require.True(t, ok)
	assert.Equal(t, "localhost", host)
}

func TestNew_RejectsNilSource(t *testing.T) {
	_, err := New(context.Background(), WithSource(nil))
	assert.Error(t, err)
}

func TestNew_PropagatesSourceLoadError(t *testing.T) {
	_, err := New(context.Background(), WithSource(staticSource{err: assert.AnError}))
	assert.Error(t, err)
}

func TestGet_ReturnsFalseForMissingKey(t *testing.T) {
	c, err := New(context.Background(), WithSource(staticSource{data: map[string]any{}}))
	require.NoError(t, err)
	_, ok := c.Get("missing.key")
	assert.False(t, ok)
}

func TestGet_ReturnsFalseWhenTraversingThroughNonMap(t *testing.T) {
	c, err := New(context.Background(), WithSource(staticSource{data: map[string]any{"server": "not-a-map"}}))
	require.NoError(t, err)
	_, ok := c.Get("server.port")
	assert.False(t, ok)
}

type serverConfig struct {
	Port int    `config:"port"`
	Host string `config:"host"`
}

func TestBind_DecodesWeaklyTypedValues(t *testing.T) {
	c, err := New(context.Background(), WithSource(staticSource{
		data: map[string]any{"port": "8080", "host": "0.0.0.0"},
	}))
	require.NoError(t, err)

	var sc serverConfig
	require.NoError(t, c.Bind(&sc))
	assert.Equal(t, 8080, sc.Port)
	assert.Equal(t, "0.0.0.0", sc.Host)
}

func TestBind_HonorsCustomTagName(t *testing.T) {
	c, err := New(context.Background(),
		WithSource(staticSource{data: map[string]any{"port": 9000}}),
		WithTagName("yaml"),
	)
	require.NoError(t, err)

	var sc struct {
		Port int `yaml:"port"`
	}
	require.NoError(t, c.Bind(&sc))
	assert.Equal(t, 9000, sc.Port)
}

func TestBindKey_DecodesSubTree(t *testing.T) {
	c, err := New(context.Background(), WithSource(staticSource{
		data: map[string]any{"server": map[string]any{"port": 8080, "host": "localhost"}},
	}))
	require.NoError(t, err)

	var sc serverConfig
	require.NoError(t, c.BindKey("server", &sc))
	assert.Equal(t, 8080, sc.Port)
}

func TestBindKey_ErrorsWhenKeyMissing(t *testing.T) {
	c, err := New(context.Background(), WithSource(staticSource{data: map[string]any{}}))
	require.NoError(t, err)

	var sc serverConfig
	err = c.BindKey("missing", &sc)
	assert.Error(t, err)
}

func TestReload_ReflectsUpdatedSourceData(t *testing.T) {
	src := &mutableSource{data: map[string]any{"port": 1}}
	c, err := New(context.Background(), WithSource(src))
	require.NoError(t, err)

	v, _ := c.Get("port")
	assert.EqualValues(t, 1, v)

	src.data = map[string]any{"port": 2}
	require.NoError(t, c.Reload(context.Background()))

	v, _ = c.Get("port")
	assert.EqualValues(t, 2, v)
}

type mutableSource struct{ data map[string]any }

func (s *mutableSource) Load(context.Context) (map[string]any, error) { return s.data, nil }

func TestMustNew_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(context.Background(), WithSource(nil))
	})
}
