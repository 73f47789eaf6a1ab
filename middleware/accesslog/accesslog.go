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

// Package accesslog logs one structured line per request, after the
// handler has run so the final status and byte count are known.
package accesslog

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
	"time"

	"github.com/velithon-go/velithon"
	"github.com/velithon-go/velithon/logging"
)

// Option configures New.
type Option func(*config)

type config struct {
	logger          *logging.Logger
	excludePaths    map[string]bool
	excludePrefixes []string
	slowThreshold   time.Duration
	logErrorsOnly   bool
	sampleRate      float64
}

func defaultConfig() *config {
	return &config{
		excludePaths: map[string]bool{},
		sampleRate:   1.0,
	}
}

// WithLogger sets the structured logger entries are written to. Without
// one, New logs nothing.
func WithLogger(l *logging.Logger) Option { return func(c *config) { c.logger = l } }

// WithExcludePaths skips exact paths (e.g. health checks).
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips any path starting with one of prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(c *config) { c.excludePrefixes = append(c.excludePrefixes, prefixes...) }
}

// WithSlowThreshold forces logging (bypassing sampling) for any request
// slower than d.
func WithSlowThreshold(d time.Duration) Option { return func(c *config) { c.slowThreshold = d } }

// WithErrorsOnly restricts logging to 4xx/5xx responses and slow requests.
func WithErrorsOnly(only bool) Option { return func(c *config) { c.logErrorsOnly = only } }

// WithSampleRate logs only a deterministic fraction (0.0-1.0) of normal
// (non-error, non-slow) requests, selected by hashing the request id so a
// given request is sampled consistently across any retried log attempts.
func WithSampleRate(rate float64) Option { return func(c *config) { c.sampleRate = rate } }

// New builds the access-log middleware. It always runs the rest of the
// chain first, then decides whether to log based on the outcome: errors
// and slow requests are always logged, everything else is subject to
// sampling.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			path := c.Scope.Path
			if cfg.excludePaths[path] {
				return next(c)
			}
			for _, prefix := range cfg.excludePrefixes {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start)
			status := c.Sink().StatusCode()

			isError := status >= 400 || err != nil
			isSlow := cfg.slowThreshold > 0 && duration >= cfg.slowThreshold

			shouldLog := true
			if !isError && !isSlow {
				switch {
				case cfg.logErrorsOnly:
					shouldLog = false
				case cfg.sampleRate < 1.0:
					shouldLog = sampleByHash(c.RequestID(), cfg.sampleRate)
				}
			}
			if !shouldLog || cfg.logger == nil {
				return err
			}

			fields := []any{
				"method", c.Scope.Method,
				"path", path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"bytes_sent", c.Sink().Size(),
				"request_id", c.RequestID(),
				"client_ip", c.Req.ClientIP(),
			}
			if isError {
				cfg.logger.Error("request", fields...)
			} else {
				cfg.logger.Info("request", fields...)
			}
			return err
		}
	})
}

// sampleByHash deterministically maps id to [0,1) via its SHA-256 digest
// so the same request id always samples the same way.
func sampleByHash(id string, rate float64) bool {
	if id == "" {
		return true
	}
	sum := sha256.Sum256([]byte(id))
	n := binary.BigEndian.Uint32(sum[:4])
	return float64(n)/float64(^uint32(0)) < rate
}
