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

import "net/http"

// Response is what a Formatter produces: everything the writer needs to
// emit an HTTP error response.
type Response struct {
	Status      int
	ContentType string
	Body        any
	Headers     http.Header
}

// Formatter converts a *Velithon error into response components. A
// Formatter can be attached at app or route granularity; the route's wins.
// Routers carry no Formatter of their own.
type Formatter interface {
	// FormatOne formats a single failure.
	FormatOne(err *Velithon) Response
	// FormatMany merges multiple failures (e.g. several field errors
	// collected from one resolver pass) into one response.
	FormatMany(errs []*Velithon) Response
}

// SimpleFormatter renders flat, single-message bodies:
// {"detail": "<msg>"}. Grounded on the teacher's errors.Simple formatter.
type SimpleFormatter struct{}

func (SimpleFormatter) FormatOne(err *Velithon) Response {
	return Response{
		Status:      statusOr(err, http.StatusInternalServerError),
		ContentType: "application/json",
		Body:        map[string]any{"detail": err.Error()},
	}
}

func (f SimpleFormatter) FormatMany(errs []*Velithon) Response {
	if len(errs) == 0 {
		return Response{Status: http.StatusOK}
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return Response{
		Status:      statusOr(errs[0], http.StatusInternalServerError),
		ContentType: "application/json",
		Body:        map[string]any{"detail": msgs},
	}
}

// DefaultFormatter renders the detailed per-field diagnostic list described
// in §7: {"error": {"code": ..., "message": ..., "fields": [...]}}.
type DefaultFormatter struct{}

func (DefaultFormatter) FormatOne(err *Velithon) Response {
	body := map[string]any{
		"code":    err.Code,
		"message": err.Error(),
	}
	if len(err.Fields) > 0 {
		body["fields"] = err.Fields
	}
	if err.Detail != nil {
		body["detail"] = err.Detail
	}
	return Response{
		Status:      statusOr(err, http.StatusInternalServerError),
		ContentType: "application/json",
		Body:        map[string]any{"error": body},
	}
}

func (f DefaultFormatter) FormatMany(errs []*Velithon) Response {
	if len(errs) == 0 {
		return Response{Status: http.StatusOK}
	}
	if len(errs) == 1 {
		return f.FormatOne(errs[0])
	}
	var fields []FieldError
	for _, e := range errs {
		fields = append(fields, e.Fields...)
	}
	merged := &Velithon{Code: errs[0].Code, Status: errs[0].Status, Message: errs[0].Message, Fields: fields}
	return f.FormatOne(merged)
}

// JSONSchemaFormatter renders JSON-Schema-flavored diagnostics, using the
// "instancePath"/"schemaPath" vocabulary instead of bare field names.
type JSONSchemaFormatter struct{}

type jsonSchemaIssue struct {
	InstancePath string `json:"instancePath"`
	SchemaPath   string `json:"schemaPath"`
	Message      string `json:"message"`
}

func (JSONSchemaFormatter) FormatOne(err *Velithon) Response {
	issues := toJSONSchemaIssues(err.Fields)
	if len(issues) == 0 {
		issues = []jsonSchemaIssue{{InstancePath: "", SchemaPath: "#", Message: err.Error()}}
	}
	return Response{
		Status:      statusOr(err, http.StatusInternalServerError),
		ContentType: "application/json",
		Body:        map[string]any{"errors": issues},
	}
}

func (f JSONSchemaFormatter) FormatMany(errs []*Velithon) Response {
	if len(errs) == 0 {
		return Response{Status: http.StatusOK}
	}
	var issues []jsonSchemaIssue
	for _, e := range errs {
		issues = append(issues, toJSONSchemaIssues(e.Fields)...)
	}
	return Response{
		Status:      statusOr(errs[0], http.StatusInternalServerError),
		ContentType: "application/json",
		Body:        map[string]any{"errors": issues},
	}
}

func toJSONSchemaIssues(fields []FieldError) []jsonSchemaIssue {
	issues := make([]jsonSchemaIssue, len(fields))
	for i, f := range fields {
		issues[i] = jsonSchemaIssue{
			InstancePath: "/" + f.Field,
			SchemaPath:   "#/properties/" + f.Field,
			Message:      f.Message,
		}
	}
	return issues
}

func statusOr(err *Velithon, fallback int) int {
	if err == nil {
		return fallback
	}
	if err.Status != 0 {
		return err.Status
	}
	return fallback
}
