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

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToJSONOnStdout(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	assert.Equal(t, JSONHandler, l.handlerType)
}

func TestNew_RejectsNilOutput(t *testing.T) {
	_, err := New(WithOutput(nil))
	assert.Error(t, err)
}

func TestNew_RejectsUnknownHandlerType(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(WithOutput(&buf), WithHandlerType("bogus"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHandler)
}

func TestLogger_JSONOutputIncludesServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithService("widgets", "1.0.0", "prod"))
	require.NoError(t, err)

	l.Info("starting up")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "widgets", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "prod", entry["env"])
	assert.Equal(t, "starting up", entry["msg"])
}

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf))
	require.NoError(t, err)

	l.Info("login attempt", "password", "hunter2", "user", "alice")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "***REDACTED***", entry["password"])
	assert.Equal(t, "alice", entry["user"])
}

func TestLogger_LevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithLevel(LevelWarn))
	require.NoError(t, err)

	l.Info("should be dropped")
	assert.Empty(t, buf.String())

	l.Warn("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestLogger_TextHandlerProducesLogfmt(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithHandlerType(TextHandler))
	require.NoError(t, err)

	l.Error("failure", "code", 500)
	assert.Contains(t, buf.String(), "msg=failure")
	assert.Contains(t, buf.String(), "code=500")
}

func TestDefault_ReturnsSameInstanceAcrossCalls(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestMustNew_PanicsOnInvalidConfig(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(WithOutput(nil))
	})
}
