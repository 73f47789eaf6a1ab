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

// Package timeout bounds how long a handler may run before the middleware
// gives up on it and writes a 408 response.
package timeout

import (
	"context"
	"net/http"

	"time"

	"github.com/velithon-go/velithon"
	"github.com/velithon-go/velithon/verrors"
)

// Option configures New.
type Option func(*config)

type config struct {
	timeout   time.Duration
	skipPaths map[string]bool
}

// WithSkipPaths exempts the given exact paths from the timeout.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skipPaths[p] = true
		}
	}
}

// New builds a middleware that runs the rest of the chain on a background
// goroutine and races it against timeout: if the handler doesn't finish in
// time, the middleware writes a 408 and abandons the goroutine (it may
// still complete and write to the now-ignored response later — callers
// whose handlers must observe cancellation should watch c.Req.Raw().Context()).
func New(timeout time.Duration, opts ...Option) velithon.Middleware {
	cfg := &config{timeout: timeout, skipPaths: map[string]bool{}}
	for _, opt := range opts {
		opt(cfg)
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			if cfg.skipPaths[c.Scope.Path] {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Req.Raw().Context(), cfg.timeout)
			defer cancel()
			*c.Req.Raw() = *c.Req.Raw().WithContext(ctx)

			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- verrors.InternalError(nil)
					}
				}()
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return writeTimeout(c)
			}
		}
	})
}

func writeTimeout(c *velithon.Context) error {
	return c.JSON(http.StatusRequestTimeout, map[string]any{
		"error": "request timeout",
		"code":  "TIMEOUT",
	})
}
