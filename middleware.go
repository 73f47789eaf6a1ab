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

import "reflect"

// Middleware wraps a Handler to produce a new Handler. The composition is a
// literal nested closure: Wrap(m1, Wrap(m2, ... Wrap(mN, router))) — each
// middleware decides for itself whether, when, and how many times to invoke
// next (§4.3). There is no implicit reordering, priority bucketing, or
// skipping by the stack itself; execution order is exactly registration
// order, outermost first.
type Middleware interface {
	Wrap(next Handler) Handler
}

// MiddlewareFunc adapts a plain function to the Middleware interface, the
// way http.HandlerFunc adapts a function to http.Handler.
type MiddlewareFunc func(next Handler) Handler

func (f MiddlewareFunc) Wrap(next Handler) Handler { return f(next) }

// Stack is an ordered list of middleware plus the terminal handler they
// wrap. It is built once (typically at first request, or eagerly at
// startup) and reused for every subsequent request — constructing the
// nested closures per request would defeat the point of composing them
// ahead of time.
type Stack struct {
	middlewares []Middleware
	built       Handler
	terminal    Handler
}

// NewStack creates a Stack around terminal (usually the router's Match +
// dispatch).
func NewStack(terminal Handler) *Stack {
	return &Stack{terminal: terminal}
}

// Use appends middleware to the stack, deduplicating by identity: if the
// same Middleware value (same underlying function pointer or pointer
// receiver) is added twice, only its first occurrence is kept, exactly as
// re-registering the same ASGI middleware callable twice in the original
// system was a no-op (§4.3). Invalidates any previously built chain.
func (s *Stack) Use(mw ...Middleware) *Stack {
	for _, m := range mw {
		if s.contains(m) {
			continue
		}
		s.middlewares = append(s.middlewares, m)
	}
	s.built = nil
	return s
}

func (s *Stack) contains(m Middleware) bool {
	for _, existing := range s.middlewares {
		if middlewareIdentity(existing) == middlewareIdentity(m) {
			return true
		}
	}
	return false
}

// middlewareIdentity returns a comparable key for deduplication. Function
// values, pointers, channels, maps, and slices compare by pointer; anything
// else (a plain struct value implementing Middleware) compares as an
// interface value, which is the best a generic stack can do without asking
// every Middleware to supply its own key.
func middlewareIdentity(m Middleware) any {
	v := reflect.ValueOf(m)
	switch v.Kind() {
	case reflect.Func, reflect.Ptr, reflect.Chan, reflect.Map, reflect.Slice, reflect.UnsafePointer:
		return v.Pointer()
	default:
		return m
	}
}

// Build composes the stack into a single Handler, caching the result. Build
// is idempotent: calling it again after the cache was invalidated by Use
// rebuilds it once and reuses the result for every request thereafter.
func (s *Stack) Build() Handler {
	if s.built != nil {
		return s.built
	}
	h := s.terminal
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i].Wrap(h)
	}
	s.built = h
	return h
}

// Len reports how many distinct middlewares are registered.
func (s *Stack) Len() int { return len(s.middlewares) }
