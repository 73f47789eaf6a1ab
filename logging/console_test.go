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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandler_WritesMessageAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithHandlerType(ConsoleHandler))
	require.NoError(t, err)

	l.Info("booting", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "booting")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "port=8080")
}

func TestConsoleHandler_RespectsLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithHandlerType(ConsoleHandler), WithLevel(LevelError))
	require.NoError(t, err)

	l.Warn("should be dropped")
	assert.Empty(t, buf.String())

	l.Error("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestConsoleHandler_WithAttrsMergesAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithHandlerType(ConsoleHandler), WithService("widgets", "", ""))
	require.NoError(t, err)

	l.Info("ready")
	assert.Contains(t, buf.String(), "service=widgets")
}
