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

// Package trailingslash normalizes a request path's trailing slash by
// redirecting before the Engine sees the request at all. It wraps the
// net/http.Handler the Engine produces, not the middleware chain, so a
// mismatched path is answered with a redirect and never reaches routing.
package trailingslash

import (
	"net/http"
	"strings"
)

// Policy defines how a trailing slash mismatch is resolved.
type Policy int

const (
	// PolicyRemove redirects "/users/" to "/users" (308). Root is untouched.
	PolicyRemove Policy = iota
	// PolicyAdd redirects "/users" to "/users/" (308). Root is untouched.
	PolicyAdd
	// PolicyStrict leaves the path as-is; mismatches fall through to the
	// router's own 404/405 handling.
	PolicyStrict
)

// Option configures Wrap.
type Option func(*config)

type config struct{ policy Policy }

func defaultConfig() *config { return &config{policy: PolicyRemove} }

// WithPolicy overrides the default PolicyRemove.
func WithPolicy(p Policy) Option { return func(c *config) { c.policy = p } }

// Wrap applies the configured trailing-slash policy ahead of h, redirecting
// with a 308 (Permanent Redirect, method- and body-preserving) when the
// incoming path doesn't match.
func Wrap(h http.Handler, opts ...Option) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" {
			h.ServeHTTP(w, r)
			return
		}

		hasSlash := strings.HasSuffix(path, "/")
		switch cfg.policy {
		case PolicyRemove:
			if hasSlash {
				redirect(w, r, strings.TrimSuffix(path, "/"))
				return
			}
		case PolicyAdd:
			if !hasSlash {
				redirect(w, r, path+"/")
				return
			}
		case PolicyStrict:
		}
		h.ServeHTTP(w, r)
	})
}

func redirect(w http.ResponseWriter, r *http.Request, newPath string) {
	u := *r.URL
	u.Path = newPath
	http.Redirect(w, r, u.String(), http.StatusPermanentRedirect)
}
