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

package accesslog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velithon-go/velithon"
	"github.com/velithon-go/velithon/logging"
)

func newEngine(t *testing.T, buf *bytes.Buffer, opts ...Option) *velithon.Engine {
	t.Helper()
	l, err := logging.New(logging.WithOutput(buf))
	require.NoError(t, err)

	e := velithon.New()
	e.Use(New(append([]Option{WithLogger(l)}, opts...)...))
	e.Get("/widgets", func(c *velithon.Context) error { return c.NoContent() })
	e.Get("/boom", func(c *velithon.Context) error { return assert.AnError })
	return e
}

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestNew_LogsMethodPathAndStatus(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(t, &buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	entry := decodeLast(t, &buf)
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/widgets", entry["path"])
	assert.EqualValues(t, http.StatusNoContent, entry["status"])
}

func TestNew_ErrorResponsesLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(t, &buf)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	entry := decodeLast(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
}

func TestNew_ExcludedPathIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(t, &buf, WithExcludePaths("/widgets"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Empty(t, buf.String())
}

func TestNew_ExcludedPrefixIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	e := velithon.New()
	l, err := logging.New(logging.WithOutput(&buf))
	require.NoError(t, err)
	e.Use(New(WithLogger(l), WithExcludePrefixes("/internal")))
	e.Get("/internal/health", func(c *velithon.Context) error { return c.NoContent() })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/health", nil))

	assert.Empty(t, buf.String())
}

func TestNew_ErrorsOnlySkipsSuccessfulRequests(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(t, &buf, WithErrorsOnly(true))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Empty(t, buf.String())
}

func TestNew_ErrorsOnlyStillLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine(t, &buf, WithErrorsOnly(true))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.NotEmpty(t, buf.String())
}

func TestNew_SlowThresholdForcesLoggingDespiteErrorsOnly(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.WithOutput(&buf))
	require.NoError(t, err)

	e := velithon.New()
	e.Use(New(WithLogger(l), WithErrorsOnly(true), WithSlowThreshold(5*time.Millisecond)))
	e.Get("/slow", func(c *velithon.Context) error {
		time.Sleep(20 * time.Millisecond)
		return c.NoContent()
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow", nil))

	assert.NotEmpty(t, buf.String())
}

func TestNew_NilLoggerDoesNotPanic(t *testing.T) {
	e := velithon.New()
	e.Use(New())
	e.Get("/widgets", func(c *velithon.Context) error { return c.NoContent() })

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))
	})
}

func TestSampleByHash_EmptyIDAlwaysSamples(t *testing.T) {
	assert.True(t, sampleByHash("", 0.0))
}

func TestSampleByHash_RateOneAlwaysSamples(t *testing.T) {
	assert.True(t, sampleByHash("some-request-id", 1.0))
}
