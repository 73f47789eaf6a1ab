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

// Package bodylimit caps request body size, rejecting oversized requests
// before a handler ever reads them.
package bodylimit

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/velithon-go/velithon"
)

// ErrBodyLimitExceeded is wrapped into the error returned by a limitedReader
// once more bytes than the configured limit have been read.
var ErrBodyLimitExceeded = errors.New("request body size exceeds limit")

// Option configures New.
type Option func(*config)

type config struct {
	limit     int64
	skipPaths map[string]bool
}

func defaultConfig() *config {
	return &config{limit: 2 << 20, skipPaths: map[string]bool{}} // 2MB
}

// WithLimit sets the maximum allowed body size in bytes.
func WithLimit(n int64) Option { return func(c *config) { c.limit = n } }

// WithSkipPaths exempts the given exact paths from the limit (e.g. upload
// endpoints with their own handling).
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skipPaths[p] = true
		}
	}
}

// limitedReader wraps a body reader, counting bytes actually read rather
// than trusting the Content-Length header, and errors once the caller tries
// to read past limit.
type limitedReader struct {
	reader io.ReadCloser
	limit  int64
	read   int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read >= lr.limit {
		return 0, io.EOF
	}
	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := lr.reader.Read(p)
	lr.read += int64(n)
	if lr.read >= lr.limit && err == nil {
		var extra [1]byte
		extraN, extraErr := lr.reader.Read(extra[:])
		if extraN > 0 {
			return n, fmt.Errorf("%w: %d bytes", ErrBodyLimitExceeded, lr.limit)
		}
		if extraErr == io.EOF {
			err = io.EOF
		}
	}
	return n, err
}

func (lr *limitedReader) Close() error { return lr.reader.Close() }

// New builds a middleware that rejects requests whose Content-Length
// exceeds limit outright, and wraps the body reader so a missing or lying
// Content-Length can't be used to smuggle an oversized payload past it.
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

			req := c.Req.Raw()
			if req.ContentLength > cfg.limit {
				return tooLarge(c, cfg.limit)
			}
			if req.Body != nil {
				req.Body = &limitedReader{reader: req.Body, limit: cfg.limit}
			}
			return next(c)
		}
	})
}

func tooLarge(c *velithon.Context, limit int64) error {
	return c.JSON(http.StatusRequestEntityTooLarge, map[string]any{
		"error":    "request entity too large",
		"max_size": formatSize(limit),
	})
}

func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1fGB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1fMB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1fKB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
