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
	"errors"

	"github.com/velithon-go/velithon/internal/gls"
)

// ErrOutsideContext is returned by CurrentContext when called from a
// goroutine that never had a request Context pushed onto it — the Go
// analogue of "working outside of request context" (§C8).
var ErrOutsideContext = errors.New("velithon: working outside of request context")

// CurrentContext returns the Context for the request being served on the
// calling goroutine. It exists for code that cannot receive a *Context as a
// parameter (e.g. a third-party callback invoked deep inside a library) and
// needs ambient access the way the original framework's task-local current
// app/request did; everywhere else, prefer taking *Context explicitly.
func CurrentContext() (*Context, error) {
	top, ok := gls.Top()
	if !ok {
		return nil, ErrOutsideContext
	}
	c, ok := top.(*Context)
	if !ok {
		return nil, ErrOutsideContext
	}
	return c, nil
}
