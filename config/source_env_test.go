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

func TestEnvSource_LoadNestsByUnderscore(t *testing.T) {
	t.Setenv("WIDGET_SERVER_PORT", "8080")
	t.Setenv("WIDGET_SERVER_HOST", "0.0.0.0")
	t.Setenv("UNRELATED_VAR", "ignored")

	src := NewEnvSource("WIDGET_")
	out, err := src.Load(context.Background())
	require.NoError(t, err)

	server, ok := out["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "8080", server["port"])
	assert.Equal(t, "0.0.0.0", server["host"])
	_, unrelated := out["unrelated_var"]
	_, outerUnrelated := out["var"]
	assert.False(t, unrelated)
	assert.False(t, outerUnrelated)
}

func TestEnvSource_IgnoresVarsWithoutPrefix(t *testing.T) {
	t.Setenv("OTHERAPP_PORT", "1234")
	src := NewEnvSource("WIDGET_")
	out, err := src.Load(context.Background())
	require.NoError(t, err)
	_, ok := out["port"]
	assert.False(t, ok)
}

func TestSetNested_BuildsNestedMapsFromPath(t *testing.T) {
	m := map[string]any{}
	setNested(m, []string{"a", "b", "c"}, "value")
	inner := m["a"].(map[string]any)["b"].(map[string]any)
	assert.Equal(t, "value", inner["c"])
}
