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
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/velithon-go/velithon/internal/gls"
	"github.com/velithon-go/velithon/logging"
	"github.com/velithon-go/velithon/verrors"
)

const requestIDHeader = "X-Request-ID"

// ServeHTTP is the Scope/Protocol adapter (§C4): it translates a raw
// net/http request into a Scope + Request + ResponseSink triple, pushes a
// request context frame (internal/gls) so ambient accessors work for the
// duration of the call, runs the built middleware stack, recovers from
// panics by synthesizing a 500 and logging at error level, and finally
// drains any OnClose callbacks.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scope := NewScope(ProtocolHTTP)
	scope.Method = r.Method
	scope.Path = r.URL.Path
	scope.RawQuery = r.URL.RawQuery
	scope.Headers = r.Header
	scope.RemoteAddr = r.RemoteAddr

	if id := r.Header.Get(requestIDHeader); id != "" {
		scope.RequestID = id
	} else {
		scope.RequestID = e.idGenerator()
	}
	w.Header().Set(requestIDHeader, scope.RequestID)

	sink := newHTTPSink(w)
	req := NewRequest(scope, r)
	ctx := NewContext(scope, req, sink).WithContainer(e.Container)

	gls.Push(ctx)
	defer gls.Pop()
	defer ctx.runDeferred()

	defer func() {
		if rec := recover(); rec != nil {
			e.logger().Error("panic recovered",
				"error", fmt.Sprint(rec),
				"request_id", scope.RequestID,
				"stack", string(debug.Stack()),
			)
			if !sink.Written() {
				e.writeError(ctx, verrors.InternalError(fmt.Errorf("panic: %v", rec)))
			}
		}
	}()

	handler := e.stack.Build()
	if err := handler(ctx); err != nil {
		e.writeError(ctx, verrors.FromAny(err))
		return
	}
}

// writeError renders err through the best-matching Formatter (the matched
// route's own, else the app-level one; routers carry no Formatter of their
// own) and writes it, unless a response was already sent.
func (e *Engine) writeError(c *Context, err *verrors.Velithon) {
	if c.sink.Written() {
		return
	}
	formatter := e.formatterFor(c)
	resp := formatter.FormatOne(err)
	for k, vs := range resp.Headers {
		for _, v := range vs {
			c.sink.Header().Add(k, v)
		}
	}
	if resp.ContentType != "" {
		c.sink.Header().Set("Content-Type", resp.ContentType+"; charset=utf-8")
	}
	_ = c.JSON(resp.Status, resp.Body)
}

func (e *Engine) formatterFor(c *Context) verrors.Formatter {
	if route, ok := c.Get(routeKey); ok {
		if r, ok := route.(*Route); ok && r.Formatter != nil {
			return r.Formatter
		}
	}
	if e.formatter != nil {
		return e.formatter
	}
	return verrors.DefaultFormatter{}
}

const routeKey = "velithon.route"

func (e *Engine) logger() *logging.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.Default()
}
