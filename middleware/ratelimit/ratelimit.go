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

// Package ratelimit implements a fixed-window limiter with a 20% burst
// allowance: a request is let through as long as the window's count stays
// at or below limit*1.2, so short bursts don't get rejected the instant
// they cross the nominal limit, while remaining/retry-after reporting is
// still computed against the base limit.
package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/velithon-go/velithon"
	"github.com/velithon-go/velithon/verrors"
)

// KeyFunc derives the rate-limit bucket key for a request (e.g. per-IP).
type KeyFunc func(*velithon.Context) string

// ByIP is the default KeyFunc: one bucket per client address.
func ByIP(c *velithon.Context) string { return c.Req.ClientIP() }

// Store tracks per-key request counts within a rolling window.
type Store interface {
	// Increment bumps key's counter and returns the new count plus the
	// seconds remaining until the window resets.
	Increment(key string, window time.Duration) (count int, ttlSeconds int)
}

// memoryStore is the default in-process Store, one bucket per key.
type memoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int
	expiresAt time.Time
}

// NewMemoryStore builds the default in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{buckets: map[string]*bucket{}}
}

func (s *memoryStore) Increment(key string, window time.Duration) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.buckets[key]
	if !ok || now.After(b.expiresAt) {
		b = &bucket{count: 0, expiresAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	ttl := int(time.Until(b.expiresAt).Seconds())
	if ttl < 0 {
		ttl = 0
	}
	return b.count, ttl
}

// Option configures New.
type Option func(*config)

type config struct {
	limit  int
	window time.Duration
	key    KeyFunc
	store  Store
}

// WithLimit sets the base number of requests allowed per window (default
// 100).
func WithLimit(n int) Option { return func(c *config) { c.limit = n } }

// WithWindow sets the fixed-window duration (default 1 minute).
func WithWindow(d time.Duration) Option { return func(c *config) { c.window = d } }

// WithKeyFunc overrides the bucket key derivation (default ByIP).
func WithKeyFunc(fn KeyFunc) Option { return func(c *config) { c.key = fn } }

// WithStore overrides the counting backend (default: in-memory).
func WithStore(s Store) Option { return func(c *config) { c.store = s } }

// New builds the rate-limiting middleware. A request whose bucket count
// exceeds limit * 1.2 is rejected with 429 and a Retry-After header; every
// request gets RateLimit-Limit/Remaining headers regardless of outcome.
func New(opts ...Option) velithon.Middleware {
	cfg := &config{limit: 100, window: time.Minute, key: ByIP, store: NewMemoryStore()}
	for _, opt := range opts {
		opt(cfg)
	}
	burstAllowance := int(float64(cfg.limit) * 0.2)
	effectiveLimit := cfg.limit + burstAllowance

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			key := cfg.key(c)
			count, ttl := cfg.store.Increment(key, cfg.window)

			remaining := cfg.limit - count
			if remaining < 0 {
				remaining = 0
			}
			h := c.Sink().Header()
			h.Set("RateLimit-Limit", strconv.Itoa(cfg.limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(ttl))

			if count > effectiveLimit {
				h.Set("Retry-After", strconv.Itoa(ttl))
				return verrors.RateLimited("rate limit exceeded")
			}
			return next(c)
		}
	})
}
