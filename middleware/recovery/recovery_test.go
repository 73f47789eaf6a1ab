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

package recovery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velithon-go/velithon"
)

func TestNew_RecoversPanicAsDefault500(t *testing.T) {
	e := velithon.New()
	e.Use(New())
	e.Get("/boom", func(c *velithon.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestNew_NonPanickingHandlerPassesThroughUnaffected(t *testing.T) {
	e := velithon.New()
	e.Use(New())
	e.Get("/widgets", func(c *velithon.Context) error { return c.NoContent() })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNew_CustomHandlerOverridesResponse(t *testing.T) {
	e := velithon.New()
	e.Use(New(WithHandler(func(c *velithon.Context, err any) error {
		return c.String(http.StatusTeapot, "custom: %v", err)
	})))
	e.Get("/boom", func(c *velithon.Context) error { panic("oops") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "custom: oops", rec.Body.String())
}

func TestNew_LoggerCallbackReceivesRecoveredValueAndStack(t *testing.T) {
	e := velithon.New()
	var gotErr any
	var gotStack []byte
	e.Use(New(WithLogger(func(c *velithon.Context, err any, stack []byte) {
		gotErr = err
		gotStack = stack
	})))
	e.Get("/boom", func(c *velithon.Context) error { panic("logged-panic") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, "logged-panic", gotErr)
	assert.NotEmpty(t, gotStack)
}

func TestNew_StackTraceDisabledOmitsCapture(t *testing.T) {
	e := velithon.New()
	var gotStack []byte
	called := false
	e.Use(New(WithStackTrace(false), WithLogger(func(c *velithon.Context, err any, stack []byte) {
		called = true
		gotStack = stack
	})))
	e.Get("/boom", func(c *velithon.Context) error { panic("no-stack") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.True(t, called)
	assert.Empty(t, gotStack)
}

func TestNew_StackSizeTruncatesCapturedStack(t *testing.T) {
	e := velithon.New()
	var gotStack []byte
	e.Use(New(WithStackSize(16), WithLogger(func(c *velithon.Context, err any, stack []byte) {
		gotStack = stack
	})))
	e.Get("/boom", func(c *velithon.Context) error { panic("truncate-me") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.LessOrEqual(t, len(gotStack), 16)
}
