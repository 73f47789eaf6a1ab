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

// Package compression transparently gzip- or brotli-encodes responses based
// on the request's Accept-Encoding header, preferring brotli when the
// client advertises it.
package compression

import (
	"compress/gzip"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"

	"github.com/velithon-go/velithon"
)

// Option configures New.
type Option func(*config)

type config struct {
	gzipLevel           int
	brotliLevel         int
	excludePaths        map[string]bool
	excludeExtensions   map[string]bool
	excludeContentTypes map[string]bool
}

func defaultConfig() *config {
	return &config{
		gzipLevel:           gzip.DefaultCompression,
		brotliLevel:         brotli.DefaultCompression,
		excludePaths:        map[string]bool{},
		excludeExtensions:   map[string]bool{},
		excludeContentTypes: map[string]bool{},
	}
}

// WithGzipLevel sets the gzip compression level (0-9).
func WithGzipLevel(level int) Option { return func(c *config) { c.gzipLevel = level } }

// WithBrotliLevel sets the brotli compression level (0-11).
func WithBrotliLevel(level int) Option { return func(c *config) { c.brotliLevel = level } }

// WithExcludePaths exempts exact paths (e.g. already-compressed downloads).
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.excludePaths[p] = true
		}
	}
}

// WithExcludeExtensions exempts file extensions such as ".png" or ".zip".
func WithExcludeExtensions(exts ...string) Option {
	return func(c *config) {
		for _, e := range exts {
			c.excludeExtensions[e] = true
		}
	}
}

// WithExcludeContentTypes exempts response content types from compression.
func WithExcludeContentTypes(types ...string) Option {
	return func(c *config) {
		for _, t := range types {
			c.excludeContentTypes[t] = true
		}
	}
}

var gzipWriterPool = sync.Pool{New: func() any { return gzip.NewWriter(io.Discard) }}

// compressingSink wraps a velithon.ResponseSink, running every body write
// through an io.WriteCloser (a gzip.Writer or brotli.Writer) before it
// reaches the real sink. Content-Type exclusion is checked against the
// header map at the first write, since handlers usually set it right
// before writing the body rather than up front.
type compressingSink struct {
	velithon.ResponseSink
	newEncoder func(w io.Writer) io.WriteCloser
	cfg        *config
	enc        io.WriteCloser
	decided    bool
	active     bool
	encoding   string
}

func (s *compressingSink) decide() bool {
	if s.decided {
		return s.active
	}
	s.decided = true
	ct := s.Header().Get("Content-Type")
	for excluded := range s.cfg.excludeContentTypes {
		if ct != "" && strings.HasPrefix(ct, excluded) {
			s.active = false
			return false
		}
	}
	s.active = true
	s.Header().Del("Content-Length")
	s.Header().Set("Content-Encoding", s.encoding)
	s.Header().Add("Vary", "Accept-Encoding")
	return true
}

func (s *compressingSink) ResponseBytes(status int, body []byte) error {
	if !s.decide() {
		return s.ResponseSink.ResponseBytes(status, body)
	}
	var buf strings.Builder
	enc := s.newEncoder(&buf)
	if _, err := enc.Write(body); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return s.ResponseSink.ResponseBytes(status, []byte(buf.String()))
}

func (s *compressingSink) ResponseStart(status int) (velithon.ChunkWriter, error) {
	cw, err := s.ResponseSink.ResponseStart(status)
	if err != nil {
		return nil, err
	}
	if !s.decide() {
		return cw, nil
	}
	s.enc = s.newEncoder(chunkWriterAdapter{cw})
	return &compressingChunkWriter{enc: s.enc, inner: cw}, nil
}

// chunkWriterAdapter lets a ChunkWriter (which has both Write and Close)
// serve as the io.Writer a gzip/brotli encoder writes its compressed
// output into.
type chunkWriterAdapter struct{ velithon.ChunkWriter }

type compressingChunkWriter struct {
	enc   io.WriteCloser
	inner velithon.ChunkWriter
}

func (c *compressingChunkWriter) Write(p []byte) (int, error) { return c.enc.Write(p) }
func (c *compressingChunkWriter) Close() error {
	if err := c.enc.Close(); err != nil {
		return err
	}
	return c.inner.Close()
}

// New builds the compression middleware. It negotiates brotli over gzip
// when the client's Accept-Encoding lists both, skips excluded paths and
// extensions up front, and otherwise interposes a compressingSink ahead of
// the rest of the chain so every later Context write is transparently
// encoded.
func New(opts ...Option) velithon.Middleware {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return velithon.MiddlewareFunc(func(next velithon.Handler) velithon.Handler {
		return func(c *velithon.Context) error {
			if cfg.excludePaths[c.Scope.Path] {
				return next(c)
			}
			if cfg.excludeExtensions[path.Ext(c.Scope.Path)] {
				return next(c)
			}

			accept := c.Scope.Headers.Get("Accept-Encoding")
			switch {
			case strings.Contains(accept, "br"):
				c.SetSink(&compressingSink{
					ResponseSink: c.Sink(),
					cfg:          cfg,
					encoding:     "br",
					newEncoder: func(w io.Writer) io.WriteCloser {
						return brotli.NewWriterLevel(w, cfg.brotliLevel)
					},
				})
			case strings.Contains(accept, "gzip"):
				c.SetSink(&compressingSink{
					ResponseSink: c.Sink(),
					cfg:          cfg,
					encoding:     "gzip",
					newEncoder: func(w io.Writer) io.WriteCloser {
						if cfg.gzipLevel != gzip.DefaultCompression {
							if gw, err := gzip.NewWriterLevel(w, cfg.gzipLevel); err == nil {
								return gw
							}
						}
						gw := gzipWriterPool.Get().(*gzip.Writer)
						gw.Reset(w)
						return &pooledGzipWriter{Writer: gw}
					},
				})
			}
			return next(c)
		}
	})
}

// pooledGzipWriter returns its *gzip.Writer to the shared pool on Close.
type pooledGzipWriter struct{ *gzip.Writer }

func (w *pooledGzipWriter) Close() error {
	err := w.Writer.Close()
	gzipWriterPool.Put(w.Writer)
	return err
}
