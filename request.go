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
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"
)

// ErrNotHijackable is returned when the underlying sink does not support
// hijacking (e.g. it is not backed by a real TCP connection).
var ErrNotHijackable = errors.New("velithon: response sink is not hijackable")

const defaultMaxMultipartMemory = 32 << 20 // 32 MiB

// Request is a lazy, cached view over a Scope and its raw *http.Request. It
// caches parsed query params, headers, body bytes, parsed JSON, parsed
// form, and files, and is destroyed together with its Scope.
//
// Exactly one Request exists per request: the adapter (Engine.ServeHTTP)
// builds it once, together with the Scope.
type Request struct {
	Scope *Scope
	raw   *http.Request

	once struct {
		query sync.Once
		body  sync.Once
		json  sync.Once
		form  sync.Once
	}

	query     url.Values
	bodyBytes []byte
	bodyErr   error
	jsonVal   any
	jsonErr   error
	form      *multipart.Form
	formErr   error
}

// NewRequest builds a Request wrapping scope and the raw HTTP request.
func NewRequest(scope *Scope, raw *http.Request) *Request {
	return &Request{Scope: scope, raw: raw}
}

// Raw returns the underlying *http.Request, for code that needs direct
// access (e.g. a reverse proxy handler).
func (r *Request) Raw() *http.Request { return r.raw }

// Method returns the HTTP method.
func (r *Request) Method() string { return r.Scope.Method }

// Path returns the request path.
func (r *Request) Path() string { return r.Scope.Path }

// Header looks up a header case-insensitively.
func (r *Request) Header(name string) string {
	return r.Scope.Headers.Get(name)
}

// Query returns the parsed query string, parsing it lazily once per
// request.
func (r *Request) Query() url.Values {
	r.once.query.Do(func() {
		r.query, _ = url.ParseQuery(r.Scope.RawQuery)
	})
	return r.query
}

// Body reads and caches the full request body. Subsequent calls return the
// cached bytes without re-reading the stream.
func (r *Request) Body() ([]byte, error) {
	r.once.body.Do(func() {
		if r.raw == nil || r.raw.Body == nil {
			return
		}
		r.bodyBytes, r.bodyErr = io.ReadAll(r.raw.Body)
	})
	return r.bodyBytes, r.bodyErr
}

// JSON parses the cached body as JSON exactly once per request and returns
// the decoded value (typically a map[string]any or []any).
func (r *Request) JSON() (any, error) {
	r.once.json.Do(func() {
		body, err := r.Body()
		if err != nil {
			r.jsonErr = err
			return
		}
		if len(body) == 0 {
			r.jsonErr = io.EOF
			return
		}
		r.jsonErr = json.Unmarshal(body, &r.jsonVal)
	})
	return r.jsonVal, r.jsonErr
}

// BindJSON decodes the cached body directly into out.
func (r *Request) BindJSON(out any) error {
	body, err := r.Body()
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(body, out)
}

// Form parses the body as multipart/form-data or
// application/x-www-form-urlencoded, caching the result.
func (r *Request) Form() (*multipart.Form, error) {
	r.once.form.Do(func() {
		if r.raw == nil {
			return
		}
		if err := r.raw.ParseMultipartForm(defaultMaxMultipartMemory); err != nil {
			if err == http.ErrNotMultipart {
				r.formErr = r.raw.ParseForm()
				return
			}
			r.formErr = err
			return
		}
		r.form = r.raw.MultipartForm
	})
	return r.form, r.formErr
}

// Cookie returns a named cookie value, or "" if absent.
func (r *Request) Cookie(name string) string {
	if r.raw == nil {
		return ""
	}
	c, err := r.raw.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// ClientIP returns the best-effort client address from Scope.
func (r *Request) ClientIP() string {
	return r.Scope.RemoteAddr
}
