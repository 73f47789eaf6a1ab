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

// Package requestid lets an application override the adapter's built-in
// request-id assignment with its own header name or generator, for
// services that must propagate an id minted by an upstream gateway.
package requestid

import "github.com/velithon-go/velithon"

// Header is the conventional header carrying the request id, matching the
// adapter's own default.
const Header = "X-Request-ID"

// Option configures New.
type Option func(*config)

type config struct {
	header string
	gen    velithon.IDGenerator
}

// WithHeader overrides the header name used to read/write the request id.
func WithHeader(name string) Option { return func(c *config) { c.header = name } }

// WithGenerator overrides the id generator used when the header is absent.
func WithGenerator(gen velithon.IDGenerator) Option { return func(c *config) { c.gen = gen } }

// New builds a middleware that assigns c.Scope.RequestID from the incoming
// header, falling back to gen, and echoes it back on the response.
func New(opts ...Option) velithon.Middleware {
	cfg := &config{header: Header, gen: velithon.DefaultIDGenerator}
	for _, opt := range opts {
		opt(cfg)
	}
	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			id := c.Scope.Headers.Get(cfg.header)
			if id == "" {
				id = cfg.gen()
			}
			c.Scope.RequestID = id
			c.Header(cfg.header, id)
			return next(c)
		}
	})
}
