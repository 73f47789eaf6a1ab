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

// Package velithon is a small, explicit web framework: a typed path
// compiler (package convertor), a registration-order router, nested-closure
// middleware composition, a reflection-driven parameter resolver (package
// resolver), a minimal DI container (package di), and a length-prefixed
// MessagePack RPC transport for service-to-service calls (package vsp).
package velithon

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/velithon-go/velithon/di"
	"github.com/velithon-go/velithon/logging"
	"github.com/velithon-go/velithon/verrors"
)

// Engine is the application entrypoint: it owns the router, the middleware
// stack, the DI container, and the default error Formatter. It implements
// http.Handler directly so it can be passed to http.ListenAndServe, an
// http.Server, or Run, which wraps it in h2c for plaintext HTTP/2 when
// WithH2C is set.
type Engine struct {
	Router    *Router
	Container *di.Container
	Logger    *logging.Logger

	formatter   verrors.Formatter
	idGenerator IDGenerator
	stack       *Stack
	enableH2C   bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithDefaultFormatter sets the app-level default Formatter. A route's own
// Formatter (see WithFormatter) takes precedence over it; there is no
// router-level Formatter.
func WithDefaultFormatter(f verrors.Formatter) Option {
	return func(e *Engine) { e.formatter = f }
}

// WithIDGenerator overrides the request-id generator (default:
// DefaultIDGenerator).
func WithIDGenerator(gen IDGenerator) Option {
	return func(e *Engine) { e.idGenerator = gen }
}

// WithLogger overrides the engine's structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.Logger = l }
}

// WithH2C enables HTTP/2 cleartext support on Run's listener.
//
// Only use in development or behind a trusted load balancer that
// terminates TLS and speaks h2c to the app — never on a public-facing
// server without TLS.
func WithH2C(enable bool) Option {
	return func(e *Engine) { e.enableH2C = enable }
}

// New builds an Engine with an empty root router.
func New(opts ...Option) *Engine {
	e := &Engine{
		Router:      NewRouter(""),
		Container:   di.NewContainer(),
		formatter:   verrors.DefaultFormatter{},
		idGenerator: DefaultIDGenerator,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stack = NewStack(e.dispatch)
	return e
}

// Use appends middleware to the engine's stack (outermost, in registration
// order — see Stack.Use for the identity-dedup rule).
func (e *Engine) Use(mw ...Middleware) *Engine {
	e.stack.Use(mw...)
	return e
}

// dispatch is the Router's terminal handler: it matches the route, attaches
// it to the Context for formatter/name lookups, and invokes the handler.
// A 404/405 becomes a *verrors.Velithon the adapter's writeError renders.
func (e *Engine) dispatch(c *Context) error {
	route, params, result, allowed := e.Router.Match(c.Scope.Method, c.Scope.Path)
	switch result {
	case MatchNone:
		return verrors.NotFound("no matching route for " + c.Scope.Path)
	case MatchWrongMethod:
		return verrors.MethodNotAllowed(allowed)
	}
	c.Scope.SetParams(params)
	c.Set(routeKey, route)
	return route.Handler(c)
}

// Get, Post, Put, Patch, and Delete register routes directly on the
// engine's root router, the common case for small applications.
func (e *Engine) Get(pattern string, h Handler, opts ...RouteOption) *Route {
	return e.Router.Get(pattern, h, opts...)
}
func (e *Engine) Post(pattern string, h Handler, opts ...RouteOption) *Route {
	return e.Router.Post(pattern, h, opts...)
}
func (e *Engine) Put(pattern string, h Handler, opts ...RouteOption) *Route {
	return e.Router.Put(pattern, h, opts...)
}
func (e *Engine) Patch(pattern string, h Handler, opts ...RouteOption) *Route {
	return e.Router.Patch(pattern, h, opts...)
}
func (e *Engine) Delete(pattern string, h Handler, opts ...RouteOption) *Route {
	return e.Router.Delete(pattern, h, opts...)
}

// Mount attaches a sub-router built separately (e.g. by a package that
// groups related routes), copying its routes into the engine's router with
// its prefix already baked into each pattern.
func (e *Engine) Mount(sub *Router) {
	e.Router.routes = append(e.Router.routes, sub.routes...)
	for name, route := range sub.named {
		e.Router.named[name] = route
	}
}

// Run starts an http.Server bound to addr. It blocks until the server
// stops or ctx is cancelled. If WithH2C was set, the handler is wrapped so
// HTTP/2 requests are accepted over plaintext as well as HTTP/1.1.
func (e *Engine) Run(ctx context.Context, addr string) error {
	var h http.Handler = e
	if e.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
