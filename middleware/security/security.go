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

// Package security sets the common defensive response headers: frame
// options, content-type sniffing, HSTS, CSP, referrer and permissions
// policy.
package security

import (
	"fmt"

	"github.com/velithon-go/velithon"
)

// Option configures New.
type Option func(*config)

type config struct {
	frameOptions          string
	contentTypeNosniff    bool
	xssProtection         string
	hstsMaxAge            int
	hstsIncludeSubdomains bool
	hstsPreload           bool
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string
	customHeaders         map[string]string
}

func defaultConfig() *config {
	return &config{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		xssProtection:         "1; mode=block",
		hstsMaxAge:            31536000,
		hstsIncludeSubdomains: true,
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
		customHeaders:         map[string]string{},
	}
}

// WithFrameOptions sets X-Frame-Options (default "DENY").
func WithFrameOptions(value string) Option { return func(c *config) { c.frameOptions = value } }

// WithContentTypeNosniff toggles X-Content-Type-Options: nosniff (default true).
func WithContentTypeNosniff(enabled bool) Option {
	return func(c *config) { c.contentTypeNosniff = enabled }
}

// WithXSSProtection sets X-XSS-Protection (default "1; mode=block").
func WithXSSProtection(value string) Option { return func(c *config) { c.xssProtection = value } }

// WithHSTS configures Strict-Transport-Security. maxAge is in seconds.
func WithHSTS(maxAge int, includeSubdomains, preload bool) Option {
	return func(c *config) {
		c.hstsMaxAge = maxAge
		c.hstsIncludeSubdomains = includeSubdomains
		c.hstsPreload = preload
	}
}

// WithContentSecurityPolicy sets the Content-Security-Policy header
// (default "default-src 'self'").
func WithContentSecurityPolicy(policy string) Option {
	return func(c *config) { c.contentSecurityPolicy = policy }
}

// WithReferrerPolicy sets Referrer-Policy (default
// "strict-origin-when-cross-origin").
func WithReferrerPolicy(policy string) Option {
	return func(c *config) { c.referrerPolicy = policy }
}

// WithPermissionsPolicy sets Permissions-Policy.
func WithPermissionsPolicy(policy string) Option {
	return func(c *config) { c.permissionsPolicy = policy }
}

// WithCustomHeader adds an arbitrary additional header.
func WithCustomHeader(name, value string) Option {
	return func(c *config) { c.customHeaders[name] = value }
}

// New builds the security-headers middleware. Headers are written before
// the rest of the chain runs so they're present even if a handler panics
// downstream and recovery writes the final response.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	hsts := ""
	if cfg.hstsMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.hstsMaxAge)
		if cfg.hstsIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.hstsPreload {
			hsts += "; preload"
		}
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			if cfg.frameOptions != "" {
				c.Header("X-Frame-Options", cfg.frameOptions)
			}
			if cfg.contentTypeNosniff {
				c.Header("X-Content-Type-Options", "nosniff")
			}
			if cfg.xssProtection != "" {
				c.Header("X-XSS-Protection", cfg.xssProtection)
			}
			if hsts != "" {
				c.Header("Strict-Transport-Security", hsts)
			}
			if cfg.contentSecurityPolicy != "" {
				c.Header("Content-Security-Policy", cfg.contentSecurityPolicy)
			}
			if cfg.referrerPolicy != "" {
				c.Header("Referrer-Policy", cfg.referrerPolicy)
			}
			if cfg.permissionsPolicy != "" {
				c.Header("Permissions-Policy", cfg.permissionsPolicy)
			}
			for name, value := range cfg.customHeaders {
				c.Header(name, value)
			}
			return next(c)
		}
	})
}
