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

package velithon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/velithon-go/velithon/di"
	"github.com/velithon-go/velithon/verrors"
)

// Handler processes a Context. Returning a non-nil error aborts the chain;
// the dispatcher converts it into an error response via the active
// Formatter (§4.11, §7).
type Handler func(c *Context) error

// Context is the per-request handle passed to middleware and handlers. It
// bundles the Scope, the lazy Request view, and the ResponseSink, and
// carries the route's remaining middleware chain.
//
// A Context is only valid for the lifetime of one request and must not be
// retained past the handler's return.
type Context struct {
	Scope     *Scope
	Req       *Request
	sink      ResponseSink
	container *di.Container

	aborted  bool
	err      error
	chain    []Handler
	chainPos int
	values   map[string]any
	deferred []func()
}

// NewContext builds a Context around an already-populated Scope/Request/sink
// triple. Used directly by tests; production code goes through the adapter.
func NewContext(scope *Scope, req *Request, sink ResponseSink) *Context {
	return &Context{Scope: scope, Req: req, sink: sink}
}

// WithContainer attaches the DI container a resolver.Source's Resolve calls
// delegate to. The adapter sets this on every request's Context.
func (c *Context) WithContainer(container *di.Container) *Context {
	c.container = container
	return c
}

// --- resolver.Source implementation -------------------------------------

// PathParam implements resolver.Source.
func (c *Context) PathParam(name string) (any, bool) { return c.Scope.Param(name) }

// QueryParam implements resolver.Source.
func (c *Context) QueryParam(name string) (string, bool) {
	vs, ok := c.Req.Query()[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// HeaderParam implements resolver.Source.
func (c *Context) HeaderParam(name string) (string, bool) {
	v := c.Scope.Headers.Get(name)
	return v, v != ""
}

// CookieParam implements resolver.Source.
func (c *Context) CookieParam(name string) (string, bool) {
	v := c.Req.Cookie(name)
	return v, v != ""
}

// BodyBytes implements resolver.Source.
func (c *Context) BodyBytes() ([]byte, error) { return c.Req.Body() }

// Resolve implements resolver.Source by delegating to the attached DI
// container.
func (c *Context) Resolve(key string) (any, error) {
	if c.container == nil {
		return nil, fmt.Errorf("velithon: no DI container attached to this context")
	}
	return c.container.Resolve(context.Background(), key)
}

// Next invokes the next handler in the chain, if any and if the chain has
// not already been aborted. Middleware call Next to delegate to the rest of
// the stack; omitting the call short-circuits everything after it, which is
// the framework's only sanctioned short-circuit mechanism (§4.3 — no
// implicit reordering or skipping ever happens on the router's own
// initiative).
func (c *Context) Next() error {
	if c.aborted {
		return c.err
	}
	if c.chainPos >= len(c.chain) {
		return nil
	}
	h := c.chain[c.chainPos]
	c.chainPos++
	return h(c)
}

// Abort marks the chain as terminated with err (which may be nil for a
// clean abort, e.g. after writing a response directly). Subsequent Next
// calls become no-ops.
func (c *Context) Abort(err error) {
	c.aborted = true
	c.err = err
}

// Aborted reports whether Abort has been called.
func (c *Context) Aborted() bool { return c.aborted }

// Set stores a request-scoped value, e.g. one resolved by a DI provider or
// attached by middleware ahead of the handler.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = map[string]any{}
	}
	c.values[key] = value
}

// Get retrieves a request-scoped value set earlier in the chain.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Param returns a typed path capture by name (e.g. the int64 bound to
// {id:int}).
func (c *Context) Param(name string) (any, bool) { return c.Scope.Param(name) }

// OnClose registers a function to run after the response has been fully
// sent, in LIFO order — used for background tasks (§4.7) such as closing a
// request-scoped DI instance.
func (c *Context) OnClose(fn func()) {
	c.deferred = append(c.deferred, fn)
}

func (c *Context) runDeferred() {
	for i := len(c.deferred) - 1; i >= 0; i-- {
		c.deferred[i]()
	}
}

// Status sets the response status code without writing a body. Prefer the
// typed helpers (JSON, String, ...) which set both together.
func (c *Context) Status(code int) *Context {
	c.Set(statusKey, code)
	return c
}

const statusKey = "velithon.status"

func (c *Context) pendingStatus(fallback int) int {
	if v, ok := c.Get(statusKey); ok {
		if code, ok := v.(int); ok {
			return code
		}
	}
	return fallback
}

// Header sets a response header.
func (c *Context) Header(key, value string) *Context {
	c.sink.Header().Set(key, value)
	return c
}

// SetCookie attaches a Set-Cookie header using the standard http.Cookie
// attribute set (§4.7).
func (c *Context) SetCookie(cookie *http.Cookie) *Context {
	if v := cookie.String(); v != "" {
		c.sink.Header().Add("Set-Cookie", v)
	}
	return c
}

// JSON writes a JSON-encoded body with the given status.
func (c *Context) JSON(status int, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return verrors.InternalError(err)
	}
	c.sink.Header().Set("Content-Type", "application/json; charset=utf-8")
	return c.sink.ResponseBytes(status, data)
}

// String writes a plain-text body with the given status.
func (c *Context) String(status int, format string, args ...any) error {
	body := format
	if len(args) > 0 {
		body = fmt.Sprintf(format, args...)
	}
	c.sink.Header().Set("Content-Type", "text/plain; charset=utf-8")
	return c.sink.ResponseBytes(status, []byte(body))
}

// Bytes writes a raw body with an explicit content type.
func (c *Context) Bytes(status int, contentType string, body []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.sink.Header().Set("Content-Type", contentType)
	return c.sink.ResponseBytes(status, body)
}

// NoContent writes an empty 204 response.
func (c *Context) NoContent() error {
	return c.sink.ResponseBytes(http.StatusNoContent, nil)
}

// Stream begins a chunked response and hands the caller a ChunkWriter; the
// caller must Close it (§4.7's streaming/backpressure contract — writes
// block on the underlying transport exactly as http.Flusher does).
func (c *Context) Stream(status int, contentType string) (ChunkWriter, error) {
	if contentType != "" {
		c.sink.Header().Set("Content-Type", contentType)
	}
	return c.sink.ResponseStart(status)
}

// Error converts err into a *verrors.Velithon (via verrors.FromAny) and
// aborts the chain with it; the dispatcher's recovery layer writes the
// formatted response.
func (c *Context) Error(err error) error {
	v := verrors.FromAny(err)
	c.Abort(v)
	return v
}

// SetSink replaces the ResponseSink later middleware and handlers write
// through, letting a middleware interpose its own sink (e.g. one that
// compresses bytes before forwarding them) ahead of the rest of the chain.
func (c *Context) SetSink(sink ResponseSink) { c.sink = sink }

// Sink exposes the underlying ResponseSink for advanced use (hijacking,
// manual streaming).
func (c *Context) Sink() ResponseSink { return c.sink }

// RequestID surfaces the id assigned by the adapter (or a pluggable
// generator). nowFunc is the clock behind the unexported startedAt helper,
// kept in a package variable so tests in this package can stub time.
func (c *Context) RequestID() string { return c.Scope.RequestID }

var nowFunc = time.Now

func (c *Context) startedAt() time.Time { return nowFunc() }
