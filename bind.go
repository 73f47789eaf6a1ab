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
	"reflect"

	"github.com/velithon-go/velithon/resolver"
	"github.com/velithon-go/velithon/verrors"
)

// Bind populates out (a pointer to a struct tagged with `path`, `query`,
// `header`, `cookie`, `json`, and `di`) from the request, running
// go-playground/validator struct-tag validation afterward and returning
// every failing field in one *verrors.Velithon (§7 — validation errors are
// collected, not fail-fast).
func (c *Context) Bind(out any) error {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct {
		panic("velithon: Bind requires a pointer to a struct")
	}
	spec, err := resolver.BuildStruct(t.Elem())
	if err != nil {
		return verrors.InternalError(err)
	}
	val, fieldErrs, err := spec.Bind(c)
	if err != nil {
		return err
	}
	if len(fieldErrs) > 0 {
		return verrors.ValidationFailed(fieldErrs...)
	}
	reflect.ValueOf(out).Elem().Set(val)
	return nil
}

// TypedHandler adapts a func(*Context, *P) (T, error) into a plain Handler:
// it binds P via Bind and, on success, writes whatever T the function
// returns (§C7's auto-wrapping of raw handler returns): a nil result becomes
// a 204, []byte an application/octet-stream body, a string a text/plain
// body, and anything else JSON, with status 200 unless the handler set
// another one via c.Status. Nothing is written if the handler already wrote
// a response itself.
func TypedHandler[P any, T any](fn func(c *Context, params *P) (T, error)) Handler {
	return func(c *Context) error {
		var params P
		if err := c.Bind(&params); err != nil {
			return err
		}
		result, err := fn(c, &params)
		if err != nil {
			return err
		}
		return writeAutoResponse(c, result)
	}
}

// writeAutoResponse implements §C7's return-value auto-wrapping: nil/no
// value becomes 204, []byte becomes octet-stream, string becomes
// text/plain, anything else is JSON-encoded.
func writeAutoResponse(c *Context, v any) error {
	if c.sink.Written() {
		return nil
	}
	switch val := v.(type) {
	case nil:
		return c.NoContent()
	case []byte:
		return c.Bytes(c.pendingStatus(200), "application/octet-stream", val)
	case string:
		return c.String(c.pendingStatus(200), "%s", val)
	default:
		return c.JSON(c.pendingStatus(200), val)
	}
}
