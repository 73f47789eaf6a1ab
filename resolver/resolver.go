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

// Package resolver implements the parameter-binding layer of §C5.
//
// The original system built its ParameterSpec by inspecting a handler's
// Python signature, where every parameter carries its own name and
// annotation at runtime. Go's reflect package erases argument names from
// compiled functions, so there is nothing to introspect on a bare
// func(id int64, name string) — the names simply aren't there at runtime.
// The idiomatic Go replacement (matching Design Notes §9's own suggestion
// to "replace every per-request inspect.signature call with an array
// iteration") is to bind a single params struct per handler instead of
// positional scalars: struct fields keep their names and carry explicit
// `path`, `query`, `header`, `cookie`, `json`, and `di` tags, and the
// ParamSpec for that struct type is still derived exactly once, at
// registration time, and cached by type.
package resolver

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/velithon-go/velithon/verrors"
)

// Kind classifies where a struct field's value comes from.
type Kind int

const (
	KindPath Kind = iota
	KindQuery
	KindHeader
	KindCookie
	KindBody
	KindDependency
)

// Source abstracts the request data a resolver pulls from, so this package
// has no dependency on the root velithon package (which imports resolver).
// *velithon.Context implements this interface.
type Source interface {
	PathParam(name string) (any, bool)
	QueryParam(name string) (string, bool)
	HeaderParam(name string) (string, bool)
	CookieParam(name string) (string, bool)
	BodyBytes() ([]byte, error)
	Resolve(key string) (any, error)
}

// Dependency marks a struct field as DI-resolved. Embed it with a `di:"key"`
// tag naming the provider to resolve.
type Dependency struct{}

var dependencyType = reflect.TypeOf(Dependency{})

// FieldSpec describes one bindable field of a params struct.
type FieldSpec struct {
	Index    int
	Name     string // tag-declared or field name, lowercased
	Kind     Kind
	Type     reflect.Type
	Required bool
	DepKey   string
}

// StructSpec is the cached binding plan for one params struct type.
type StructSpec struct {
	Type   reflect.Type
	Fields []FieldSpec
	// HasBody is true when any field binds from the JSON body; such
	// structs are decoded with one json.Unmarshal pass rather than
	// field-by-field.
	HasBody bool
}

var (
	structCache sync.Map // map[reflect.Type]*StructSpec

	validatorMu sync.Mutex
	tagValidate *validator.Validate
)

func sharedValidator() *validator.Validate {
	validatorMu.Lock()
	defer validatorMu.Unlock()
	if tagValidate == nil {
		tagValidate = validator.New(validator.WithRequiredStructEnabled())
	}
	return tagValidate
}

// BuildStruct derives (or returns the cached) StructSpec for t, which must
// be a struct type (or pointer to one).
func BuildStruct(t reflect.Type) (*StructSpec, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("resolver: %s is not a struct", t)
	}
	if cached, ok := structCache.Load(t); ok {
		return cached.(*StructSpec), nil
	}

	spec := &StructSpec{Type: t}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type == dependencyType {
			continue // marker only; handled as a whole-struct dependency below
		}
		fs := classifyField(i, f)
		if fs.Kind == KindBody {
			spec.HasBody = true
		}
		spec.Fields = append(spec.Fields, fs)
	}
	structCache.Store(t, spec)
	return spec, nil
}

func classifyField(index int, f reflect.StructField) FieldSpec {
	if key, ok := f.Tag.Lookup("di"); ok {
		return FieldSpec{Index: index, Name: key, Kind: KindDependency, Type: f.Type, DepKey: key}
	}
	if name, ok := f.Tag.Lookup("path"); ok {
		return FieldSpec{Index: index, Name: name, Kind: KindPath, Type: f.Type, Required: true}
	}
	if name, ok := f.Tag.Lookup("header"); ok {
		return FieldSpec{Index: index, Name: name, Kind: KindHeader, Type: f.Type}
	}
	if name, ok := f.Tag.Lookup("cookie"); ok {
		return FieldSpec{Index: index, Name: name, Kind: KindCookie, Type: f.Type}
	}
	if name, ok := f.Tag.Lookup("query"); ok {
		return FieldSpec{Index: index, Name: name, Kind: KindQuery, Type: f.Type}
	}
	if name, ok := f.Tag.Lookup("json"); ok {
		name = strings.Split(name, ",")[0]
		if name == "" || name == "-" {
			name = strings.ToLower(f.Name)
		}
		return FieldSpec{Index: index, Name: name, Kind: KindBody, Type: f.Type}
	}
	// No explicit tag: structs/pointers-to-struct default to the JSON body
	// (the common case for a POST payload); scalars default to a
	// lowercased-field-name query lookup.
	base := f.Type
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct && base != reflect.TypeOf(struct{}{}) {
		return FieldSpec{Index: index, Name: strings.ToLower(f.Name), Kind: KindBody, Type: f.Type}
	}
	return FieldSpec{Index: index, Name: strings.ToLower(f.Name), Kind: KindQuery, Type: f.Type}
}

// Bind populates a new instance of spec.Type from src and validates it via
// struct tags, returning field errors rather than failing fast so every
// bad field is reported in one response (§7).
func (spec *StructSpec) Bind(src Source) (reflect.Value, []verrors.FieldError, error) {
	out := reflect.New(spec.Type)
	elem := out.Elem()
	var fieldErrs []verrors.FieldError

	if spec.HasBody {
		if err := bindBodyFields(spec, elem, src); err != nil {
			return reflect.Value{}, nil, err
		}
	}

	for _, fs := range spec.Fields {
		if fs.Kind == KindBody {
			continue // already populated by the whole-body decode above
		}
		if err := bindField(elem.Field(fs.Index), fs, src, &fieldErrs); err != nil {
			return reflect.Value{}, nil, err
		}
	}

	if fe := validateStruct(out.Interface()); len(fe) > 0 {
		fieldErrs = append(fieldErrs, fe...)
	}
	return elem, fieldErrs, nil
}

func bindBodyFields(spec *StructSpec, elem reflect.Value, src Source) error {
	body, err := src.BodyBytes()
	if err != nil {
		return verrors.BadRequest("could not read request body: " + err.Error())
	}
	if len(body) == 0 {
		return nil
	}
	ptr := elem.Addr().Interface()
	if err := json.Unmarshal(body, ptr); err != nil {
		return verrors.BadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func bindField(fv reflect.Value, fs FieldSpec, src Source, fieldErrs *[]verrors.FieldError) error {
	switch fs.Kind {
	case KindDependency:
		v, err := src.Resolve(fs.DepKey)
		if err != nil {
			return err
		}
		return assign(fv, v, fs)
	case KindPath:
		raw, ok := src.PathParam(fs.Name)
		if !ok {
			*fieldErrs = append(*fieldErrs, verrors.FieldError{Field: fs.Name, Message: "missing path parameter", Type: "required"})
			return nil
		}
		if s, isString := raw.(string); isString {
			return assignString(fv, s, fs, fieldErrs)
		}
		return assign(fv, raw, fs)
	case KindHeader:
		raw, _ := src.HeaderParam(fs.Name)
		return assignString(fv, raw, fs, fieldErrs)
	case KindCookie:
		raw, _ := src.CookieParam(fs.Name)
		return assignString(fv, raw, fs, fieldErrs)
	default: // KindQuery
		raw, ok := src.QueryParam(fs.Name)
		if !ok {
			return nil
		}
		return assignString(fv, raw, fs, fieldErrs)
	}
}

func assign(fv reflect.Value, raw any, fs FieldSpec) error {
	if raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	return assignString(fv, fmt.Sprint(raw), fs, &[]verrors.FieldError{})
}

// assignString coerces raw into fv using spf13/cast, the same
// scalar-coercion library the config layer uses for env/flag binding.
func assignString(fv reflect.Value, raw string, fs FieldSpec, fieldErrs *[]verrors.FieldError) error {
	if raw == "" {
		return nil
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := cast.ToInt64E(raw)
		if err != nil {
			*fieldErrs = append(*fieldErrs, badCast(fs, raw, err))
			return nil
		}
		fv.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := cast.ToUint64E(raw)
		if err != nil {
			*fieldErrs = append(*fieldErrs, badCast(fs, raw, err))
			return nil
		}
		fv.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			*fieldErrs = append(*fieldErrs, badCast(fs, raw, err))
			return nil
		}
		fv.SetFloat(v)
	case reflect.Bool:
		v, err := cast.ToBoolE(raw)
		if err != nil {
			*fieldErrs = append(*fieldErrs, badCast(fs, raw, err))
			return nil
		}
		fv.SetBool(v)
	default:
		*fieldErrs = append(*fieldErrs, verrors.FieldError{Field: fs.Name, Message: "unsupported field type " + fv.Type().String()})
	}
	return nil
}

func badCast(fs FieldSpec, raw string, err error) verrors.FieldError {
	return verrors.FieldError{Field: fs.Name, Message: err.Error(), Type: fs.Type.Kind().String(), Input: raw}
}

// validateStruct runs go-playground/validator struct-tag validation,
// converting its FieldError list into the framework's own shape.
func validateStruct(s any) []verrors.FieldError {
	err := sharedValidator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []verrors.FieldError{{Message: err.Error()}}
	}
	out := make([]verrors.FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = verrors.FieldError{
			Field:   fe.Field(),
			Message: fe.Error(),
			Type:    fe.Tag(),
			Input:   fe.Value(),
		}
	}
	return out
}
