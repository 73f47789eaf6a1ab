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

// Package recovery lets a route group or sub-router apply its own panic
// handling policy (custom logger, custom response, stack trace on/off)
// layered on top of the engine's own top-level recovery in adapter.go,
// which only ever produces a generic 500.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/velithon-go/velithon"
)

// Option configures New.
type Option func(*config)

type config struct {
	stackTrace bool
	stackSize  int
	logger     func(c *velithon.Context, err any, stack []byte)
	handler    func(c *velithon.Context, err any) error
}

func defaultConfig() *config {
	return &config{
		stackTrace: true,
		stackSize:  4 << 10,
		logger:     nil,
		handler:    defaultHandler,
	}
}

func defaultHandler(c *velithon.Context, err any) error {
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": "internal server error",
		"code":  "INTERNAL_ERROR",
	})
}

// WithStackTrace toggles stack-trace capture on panic (default true).
func WithStackTrace(enabled bool) Option { return func(c *config) { c.stackTrace = enabled } }

// WithStackSize sets the maximum captured stack trace size in bytes
// (default 4KB).
func WithStackSize(size int) Option { return func(c *config) { c.stackSize = size } }

// WithLogger sets a callback invoked with the recovered value and captured
// stack before the handler writes its response.
func WithLogger(fn func(c *velithon.Context, err any, stack []byte)) Option {
	return func(c *config) { c.logger = fn }
}

// WithHandler overrides the response written after recovery (default: a
// generic 500 JSON body).
func WithHandler(fn func(c *velithon.Context, err any) error) Option {
	return func(c *config) { c.handler = fn }
}

// New builds a scoped recovery middleware. Panics it catches never reach
// the engine's own top-level recovery, so this policy fully replaces the
// generic one for whatever it's mounted on.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack []byte
					if cfg.stackTrace {
						stack = debug.Stack()
						if cfg.stackSize > 0 && len(stack) > cfg.stackSize {
							stack = stack[:cfg.stackSize]
						}
					}
					if cfg.logger != nil {
						cfg.logger(c, r, stack)
					}
					err = cfg.handler(c, r)
				}
			}()
			return next(c)
		}
	})
}
