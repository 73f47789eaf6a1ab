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

// Package cors implements Cross-Origin Resource Sharing response headers
// and preflight handling.
package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/velithon-go/velithon"
)

// Option configures New.
type Option func(*config)

type config struct {
	allowedOrigins    []string
	allowedMethods    []string
	allowedHeaders    []string
	exposedHeaders    []string
	allowCredentials  bool
	maxAge            int
	allowAllOrigins   bool
	allowOriginFunc   func(origin string) bool
}

func defaultConfig() *config {
	return &config{
		allowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
}

// WithAllowedOrigins sets the exact set of allowed origins.
func WithAllowedOrigins(origins []string) Option {
	return func(c *config) { c.allowedOrigins = origins; c.allowAllOrigins = false }
}

// WithAllowAllOrigins allows every origin ("*"). Insecure; for public APIs
// only.
func WithAllowAllOrigins(allow bool) Option { return func(c *config) { c.allowAllOrigins = allow } }

// WithAllowedMethods overrides the allowed method list.
func WithAllowedMethods(methods []string) Option {
	return func(c *config) { c.allowedMethods = methods }
}

// WithAllowedHeaders overrides the allowed request header list.
func WithAllowedHeaders(headers []string) Option {
	return func(c *config) { c.allowedHeaders = headers }
}

// WithExposedHeaders sets headers the client's JS may read.
func WithExposedHeaders(headers []string) Option {
	return func(c *config) { c.exposedHeaders = headers }
}

// WithAllowCredentials enables cookies/authorization on cross-origin
// requests. Incompatible with WithAllowAllOrigins.
func WithAllowCredentials(allow bool) Option { return func(c *config) { c.allowCredentials = allow } }

// WithMaxAge sets the preflight cache duration in seconds.
func WithMaxAge(seconds int) Option { return func(c *config) { c.maxAge = seconds } }

// WithAllowOriginFunc validates origins dynamically (e.g. a suffix match).
func WithAllowOriginFunc(fn func(origin string) bool) Option {
	return func(c *config) { c.allowOriginFunc = fn }
}

// New builds the CORS middleware: it short-circuits OPTIONS preflight
// requests with a 204 and the computed headers, and annotates every other
// cross-origin response with Access-Control-Allow-Origin and friends.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	allowedMethods := strings.Join(cfg.allowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.allowedHeaders, ", ")
	exposedHeaders := strings.Join(cfg.exposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.maxAge)

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			origin := c.Scope.Headers.Get("Origin")
			if origin == "" {
				return next(c)
			}

			allowOrigin := ""
			switch {
			case cfg.allowAllOrigins:
				allowOrigin = "*"
			case cfg.allowOriginFunc != nil:
				if cfg.allowOriginFunc(origin) {
					allowOrigin = origin
				}
			default:
				for _, o := range cfg.allowedOrigins {
					if o == origin {
						allowOrigin = origin
						break
					}
				}
			}
			if allowOrigin == "" {
				return next(c)
			}

			h := c.Sink().Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Add("Vary", "Origin")
			if cfg.allowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposedHeaders != "" {
				h.Set("Access-Control-Expose-Headers", exposedHeaders)
			}

			if c.Scope.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", allowedMethods)
				h.Set("Access-Control-Allow-Headers", allowedHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				return c.NoContent()
			}
			return next(c)
		}
	})
}
