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

// Package verrors implements the typed exception hierarchy of §4.11 and
// the pluggable ValidationErrorFormatter strategy of §7: typed errors carry
// a default message, a stable machine code, and an optional structured
// payload; the selected formatter turns them (or an opaque error) into a
// response body shape.
package verrors

import (
	"errors"
	"net/http"
)

// Code is a stable, machine-readable error identifier, independent of the
// human message (which callers may override).
type Code string

const (
	CodeBadRequest           Code = "bad_request"
	CodeValidationFailed     Code = "validation_failed"
	CodeUnauthorized         Code = "unauthorized"
	CodeForbidden            Code = "forbidden"
	CodeNotFound             Code = "not_found"
	CodeMethodNotAllowed     Code = "method_not_allowed"
	CodeUnsupportedMediaType Code = "unsupported_media_type"
	CodeRateLimited          Code = "rate_limited"
	CodeConflict             Code = "conflict"
	CodeInternalError        Code = "internal_error"
)

var defaultStatus = map[Code]int{
	CodeBadRequest:           http.StatusBadRequest,
	CodeValidationFailed:     http.StatusUnprocessableEntity,
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeNotFound:             http.StatusNotFound,
	CodeMethodNotAllowed:     http.StatusMethodNotAllowed,
	CodeUnsupportedMediaType: http.StatusUnsupportedMediaType,
	CodeRateLimited:          http.StatusTooManyRequests,
	CodeConflict:             http.StatusConflict,
	CodeInternalError:        http.StatusInternalServerError,
}

var defaultMessage = map[Code]string{
	CodeBadRequest:           "bad request",
	CodeValidationFailed:     "validation failed",
	CodeUnauthorized:         "unauthorized",
	CodeForbidden:            "forbidden",
	CodeNotFound:             "not found",
	CodeMethodNotAllowed:     "method not allowed",
	CodeUnsupportedMediaType: "unsupported media type",
	CodeRateLimited:          "too many requests",
	CodeConflict:             "conflict",
	CodeInternalError:        "internal error",
}

// FieldError is one entry of a structural validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Input   any    `json:"input,omitempty"`
}

// Velithon is the framework's typed exception. User code may construct one
// directly or via the per-kind constructors below.
type Velithon struct {
	Code    Code
	Status  int
	Message string
	Detail  any          // optional structured payload
	Fields  []FieldError // set for ValidationFailed
	cause   error
}

func (e *Velithon) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// HTTPStatus lets verrors.Velithon satisfy an ErrorType-style interface for
// formatters that check for a self-declared status.
func (e *Velithon) HTTPStatus() int { return e.Status }

// Unwrap exposes the wrapped cause, if any, for errors.Is/As.
func (e *Velithon) Unwrap() error { return e.cause }

func newError(code Code, msg string) *Velithon {
	status := defaultStatus[code]
	if msg == "" {
		msg = defaultMessage[code]
	}
	return &Velithon{Code: code, Status: status, Message: msg}
}

func BadRequest(msg string) *Velithon           { return newError(CodeBadRequest, msg) }
func Unauthorized(msg string) *Velithon         { return newError(CodeUnauthorized, msg) }
func Forbidden(msg string) *Velithon            { return newError(CodeForbidden, msg) }
func NotFound(msg string) *Velithon             { return newError(CodeNotFound, msg) }
func UnsupportedMediaType(msg string) *Velithon { return newError(CodeUnsupportedMediaType, msg) }
func RateLimited(msg string) *Velithon          { return newError(CodeRateLimited, msg) }
func Conflict(msg string) *Velithon             { return newError(CodeConflict, msg) }

// InternalError wraps cause as a 500, preserving it for logging via Unwrap.
func InternalError(cause error) *Velithon {
	e := newError(CodeInternalError, "")
	e.cause = cause
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// MethodNotAllowed reports a 405 with the aggregate Allow set from §4.2.
func MethodNotAllowed(allowed []string) *Velithon {
	e := newError(CodeMethodNotAllowed, "")
	e.Detail = allowed
	return e
}

// ValidationFailed wraps one or more field diagnostics.
func ValidationFailed(fields ...FieldError) *Velithon {
	e := newError(CodeValidationFailed, "")
	e.Fields = fields
	return e
}

// As reports whether err (or something it wraps) is a *Velithon, in the
// style of errors.As but returning the value directly for convenience.
func As(err error) (*Velithon, bool) {
	var v *Velithon
	ok := errors.As(err, &v)
	return v, ok
}

// FromAny converts any error into a *Velithon: passes through existing
// Velithon errors unchanged, and wraps everything else as InternalError,
// matching §7's "non-typed exceptions become InternalError" rule.
func FromAny(err error) *Velithon {
	if err == nil {
		return nil
	}
	if v, ok := As(err); ok {
		return v
	}
	if et, ok := err.(interface{ HTTPStatus() int }); ok {
		return &Velithon{Code: CodeInternalError, Status: et.HTTPStatus(), Message: err.Error()}
	}
	return InternalError(err)
}
