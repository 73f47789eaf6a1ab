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

// Package methodoverride lets a client request a different HTTP method via
// a header or query parameter, for HTML forms that only submit GET/POST.
//
// Security: only enable this for clients you control. Never enable it for
// a public API without WithRequireCSRFVerified, since an attacker-controlled
// form could otherwise forge PUT/DELETE requests via a plain POST.
package methodoverride

import (
	"strings"

	"github.com/velithon-go/velithon"
)

// CSRFVerifiedKey is the Context value key another middleware (e.g. a CSRF
// checker) sets to true once it has verified the request's CSRF token.
const CSRFVerifiedKey = "methodoverride.csrf_verified"

// Option configures New.
type Option func(*config)

type config struct {
	header           string
	queryParam       string
	allow            map[string]bool
	onlyOn           map[string]bool
	requireCSRF      bool
	respectBody      bool
}

func defaultConfig() *config {
	return &config{
		header:      "X-HTTP-Method-Override",
		allow:       map[string]bool{"PUT": true, "PATCH": true, "DELETE": true},
		onlyOn:      map[string]bool{"POST": true},
		respectBody: false,
	}
}

// WithHeader overrides the header name carrying the desired method.
func WithHeader(name string) Option { return func(c *config) { c.header = name } }

// WithQueryParam additionally allows the override via a query parameter
// (e.g. "?_method=DELETE").
func WithQueryParam(name string) Option { return func(c *config) { c.queryParam = name } }

// WithAllow sets which override methods are honored (default PUT/PATCH/DELETE).
func WithAllow(methods ...string) Option {
	return func(c *config) {
		c.allow = map[string]bool{}
		for _, m := range methods {
			c.allow[strings.ToUpper(m)] = true
		}
	}
}

// WithOnlyOn restricts which original methods may be overridden (default POST).
func WithOnlyOn(methods ...string) Option {
	return func(c *config) {
		c.onlyOn = map[string]bool{}
		for _, m := range methods {
			c.onlyOn[strings.ToUpper(m)] = true
		}
	}
}

// WithRequireCSRFVerified requires CSRFVerifiedKey to be set true in the
// Context (by an earlier middleware) before an override is honored.
func WithRequireCSRFVerified(require bool) Option {
	return func(c *config) { c.requireCSRF = require }
}

// WithRespectContentLength skips the override when the request has no body,
// a weak signal that the client didn't actually mean to send a form.
func WithRespectContentLength(respect bool) Option {
	return func(c *config) { c.respectBody = respect }
}

// New builds the method-override middleware.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			original := c.Scope.Method
			if !cfg.onlyOn[strings.ToUpper(original)] {
				return next(c)
			}
			if cfg.requireCSRF {
				verified, _ := c.Get(CSRFVerifiedKey)
				if v, ok := verified.(bool); !ok || !v {
					return next(c)
				}
			}

			override := c.Scope.Headers.Get(cfg.header)
			if override == "" && cfg.queryParam != "" {
				override = c.Req.Query().Get(cfg.queryParam)
			}
			if override == "" {
				return next(c)
			}
			override = strings.ToUpper(strings.TrimSpace(override))
			if !cfg.allow[override] {
				return next(c)
			}
			if cfg.respectBody && c.Req.Raw().ContentLength == 0 {
				return next(c)
			}

			c.Set("methodoverride.original_method", original)
			c.Scope.Method = override
			return next(c)
		}
	})
}
