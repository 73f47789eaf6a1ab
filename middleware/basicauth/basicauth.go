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

// Package basicauth implements RFC 7617 HTTP Basic authentication.
package basicauth

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/velithon-go/velithon"
)

// Option configures New.
type Option func(*config)

type config struct {
	users               map[string]string
	realm               string
	validator           func(username, password string) bool
	unauthorizedHandler func(c *velithon.Context) error
	skipPaths           map[string]bool
}

func defaultConfig() *config {
	return &config{
		users:               map[string]string{},
		realm:               "Restricted",
		unauthorizedHandler: defaultUnauthorizedHandler,
		skipPaths:           map[string]bool{},
	}
}

func defaultUnauthorizedHandler(c *velithon.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "unauthorized",
		"code":  "UNAUTHORIZED",
	})
}

// WithUsers sets the allowed username/password pairs, compared in constant
// time to resist timing attacks.
func WithUsers(users map[string]string) Option { return func(c *config) { c.users = users } }

// WithRealm sets the realm advertised in the WWW-Authenticate challenge.
func WithRealm(realm string) Option { return func(c *config) { c.realm = realm } }

// WithValidator sets a custom credential check (e.g. against a database),
// taking precedence over the static users map when set.
func WithValidator(fn func(username, password string) bool) Option {
	return func(c *config) { c.validator = fn }
}

// WithUnauthorizedHandler overrides the 401 response.
func WithUnauthorizedHandler(fn func(c *velithon.Context) error) Option {
	return func(c *config) { c.unauthorizedHandler = fn }
}

// WithSkipPaths exempts exact paths from authentication.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skipPaths[p] = true
		}
	}
}

// New builds the Basic Auth middleware.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			if cfg.skipPaths[c.Scope.Path] {
				return next(c)
			}

			username, password, ok := parseBasicAuth(c.Scope.Headers.Get("Authorization"))
			if !ok || !authenticate(cfg, username, password) {
				c.Header("WWW-Authenticate", `Basic realm="`+cfg.realm+`"`)
				return cfg.unauthorizedHandler(c)
			}
			c.Set("auth.username", username)
			return next(c)
		}
	})
}

func authenticate(cfg *config, username, password string) bool {
	if cfg.validator != nil {
		return cfg.validator(username, password)
	}
	want, ok := cfg.users[username]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}

func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
