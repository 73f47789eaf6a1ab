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

package verrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadRequest_UsesDefaultMessageWhenEmpty(t *testing.T) {
	e := BadRequest("")
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "bad request", e.Error())
}

func TestBadRequest_KeepsCustomMessage(t *testing.T) {
	e := BadRequest("missing field x")
	assert.Equal(t, "missing field x", e.Error())
}

func TestMethodNotAllowed_CarriesAllowedListAsDetail(t *testing.T) {
	e := MethodNotAllowed([]string{"GET", "POST"})
	assert.Equal(t, http.StatusMethodNotAllowed, e.Status)
	assert.Equal(t, []string{"GET", "POST"}, e.Detail)
}

func TestValidationFailed_CarriesFields(t *testing.T) {
	e := ValidationFailed(FieldError{Field: "name", Message: "required"})
	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "name", e.Fields[0].Field)
}

func TestInternalError_PreservesCauseViaUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	e := InternalError(cause)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	assert.Equal(t, cause, errors.Unwrap(e))
	assert.Equal(t, "disk full", e.Detail)
}

func TestInternalError_NilCauseLeavesDetailNil(t *testing.T) {
	e := InternalError(nil)
	assert.Nil(t, e.Detail)
	assert.Nil(t, errors.Unwrap(e))
}

func TestAs_ReturnsVelithonUnchanged(t *testing.T) {
	e := NotFound("missing")
	v, ok := As(e)
	require.True(t, ok)
	assert.Same(t, e, v)
}

func TestAs_FalseForPlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}

func TestFromAny_NilReturnsNil(t *testing.T) {
	assert.Nil(t, FromAny(nil))
}

func TestFromAny_PassesThroughExistingVelithon(t *testing.T) {
	e := Forbidden("nope")
	assert.Same(t, e, FromAny(e))
}

func TestFromAny_WrapsPlainErrorAsInternalError(t *testing.T) {
	v := FromAny(errors.New("boom"))
	assert.Equal(t, CodeInternalError, v.Code)
	assert.Equal(t, http.StatusInternalServerError, v.Status)
}

type httpStatusError struct{ status int }

func (e *httpStatusError) Error() string   { return "custom" }
func (e *httpStatusError) HTTPStatus() int { return e.status }

func TestFromAny_HonorsSelfDeclaredHTTPStatus(t *testing.T) {
	v := FromAny(&httpStatusError{status: http.StatusTeapot})
	assert.Equal(t, http.StatusTeapot, v.Status)
	assert.Equal(t, "custom", v.Message)
}

func TestVelithon_ErrorFallsBackToCodeWhenMessageEmpty(t *testing.T) {
	e := &Velithon{Code: CodeConflict}
	assert.Equal(t, string(CodeConflict), e.Error())
}

func TestVelithon_HTTPStatusReflectsStatusField(t *testing.T) {
	e := &Velithon{Status: http.StatusConflict}
	assert.Equal(t, http.StatusConflict, e.HTTPStatus())
}
