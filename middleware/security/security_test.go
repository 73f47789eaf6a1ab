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

package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/velithon-go/velithon"
)

func newEngine(opts ...Option) *velithon.Engine {
	e := velithon.New()
	e.Use(New(opts...))
	e.Get("/widgets", func(c *velithon.Context) error { return c.NoContent() })
	return e
}

func TestNew_AppliesDefaultHeaders(t *testing.T) {
	e := newEngine()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "includeSubDomains")
}

func TestNew_WithHSTSAddsPreloadWhenRequested(t *testing.T) {
	e := newEngine(WithHSTS(600, false, true))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	hsts := rec.Header().Get("Strict-Transport-Security")
	assert.Contains(t, hsts, "max-age=600")
	assert.Contains(t, hsts, "preload")
	assert.NotContains(t, hsts, "includeSubDomains")
}

func TestNew_ZeroHSTSMaxAgeOmitsHeader(t *testing.T) {
	e := newEngine(WithHSTS(0, false, false))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestNew_DisablingContentTypeNosniffOmitsHeader(t *testing.T) {
	e := newEngine(WithContentTypeNosniff(false))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestNew_CustomHeaderIsAdded(t *testing.T) {
	e := newEngine(WithCustomHeader("X-Custom", "value"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, "value", rec.Header().Get("X-Custom"))
}

func TestNew_PermissionsPolicySetWhenConfigured(t *testing.T) {
	e := newEngine(WithPermissionsPolicy("geolocation=()"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, "geolocation=()", rec.Header().Get("Permissions-Policy"))
}

func TestNew_CustomFrameOptionsOverridesDefault(t *testing.T) {
	e := newEngine(WithFrameOptions("SAMEORIGIN"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}
