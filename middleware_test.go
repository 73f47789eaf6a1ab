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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingMiddleware(label string, trace *[]string) Middleware {
	return MiddlewareFunc(func(next Handler) Handler {
		return func(c *Context) error {
			*trace = append(*trace, label+":before")
			err := next(c)
			*trace = append(*trace, label+":after")
			return err
		}
	})
}

func TestStack_ComposesOutermostFirst(t *testing.T) {
	var trace []string
	terminal := func(c *Context) error {
		trace = append(trace, "terminal")
		return nil
	}

	stack := NewStack(terminal)
	stack.Use(recordingMiddleware("outer", &trace), recordingMiddleware("inner", &trace))

	handler := stack.Build()
	require.NoError(t, handler(&Context{}))

	assert.Equal(t, []string{"outer:before", "inner:before", "terminal", "inner:after", "outer:after"}, trace)
}

func TestStack_BuildCaches(t *testing.T) {
	calls := 0
	terminal := func(c *Context) error { return nil }
	stack := NewStack(terminal)
	stack.Use(MiddlewareFunc(func(next Handler) Handler {
		calls++
		return next
	}))

	first := stack.Build()
	second := stack.Build()

	assert.Equal(t, 1, calls)
	require.NotNil(t, first)
	require.NotNil(t, second)
}

func TestStack_UseDedupesSameFunctionPointer(t *testing.T) {
	terminal := func(c *Context) error { return nil }
	mw := recordingMiddleware("dup", &[]string{})

	stack := NewStack(terminal)
	stack.Use(mw, mw)

	assert.Equal(t, 1, stack.Len())
}
