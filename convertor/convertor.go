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

// Package convertor compiles path patterns such as "/users/{id:int}" into
// matchers with typed captures, and formats captures back into a concrete
// path for URL generation.
package convertor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Convertor parses a single path segment into a typed value and formats a
// typed value back into its path representation.
type Convertor interface {
	// Name is the convertor token used in a pattern, e.g. "int".
	Name() string
	// Regex is the fragment used to recognize a candidate segment. It must
	// not contain capturing groups.
	Regex() string
	// SpansSlash reports whether this convertor may consume literal "/"
	// characters (only "path" does, and only as the final segment).
	SpansSlash() bool
	// Parse converts the raw segment text into a typed value.
	Parse(raw string) (any, error)
	// Format renders a typed value back into its path representation, used
	// by the reverse-routing (url_for) path.
	Format(value any) (string, error)
}

var registry = map[string]Convertor{}

func register(c Convertor) {
	registry[c.Name()] = c
}

// Lookup returns the convertor registered under name, or false if unknown.
func Lookup(name string) (Convertor, bool) {
	c, ok := registry[name]
	return c, ok
}

func init() {
	register(strConvertor{})
	register(intConvertor{})
	register(floatConvertor{})
	register(uuidConvertor{})
	register(pathConvertor{})
}

// strConvertor is the default convertor: any non-empty run without "/".
type strConvertor struct{}

func (strConvertor) Name() string  { return "str" }
func (strConvertor) Regex() string { return `[^/]+` }
func (strConvertor) SpansSlash() bool { return false }
func (strConvertor) Parse(raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("convertor str: empty segment")
	}
	return raw, nil
}
func (strConvertor) Format(value any) (string, error) {
	return fmt.Sprint(value), nil
}

// intConvertor matches -?\d+ and converts to a signed integer.
type intConvertor struct{}

func (intConvertor) Name() string     { return "int" }
func (intConvertor) Regex() string    { return `-?\d+` }
func (intConvertor) SpansSlash() bool { return false }

var intRe = regexp.MustCompile(`^-?\d+$`)

func (intConvertor) Parse(raw string) (any, error) {
	if !intRe.MatchString(raw) {
		return nil, fmt.Errorf("convertor int: %q is not an integer", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("convertor int: %w", err)
	}
	return v, nil
}
func (intConvertor) Format(value any) (string, error) {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("convertor int: cannot format %T as int", value)
	}
}

// floatConvertor matches -?\d+(\.\d+)? and converts to a float64.
type floatConvertor struct{}

func (floatConvertor) Name() string     { return "float" }
func (floatConvertor) Regex() string    { return `-?\d+(?:\.\d+)?` }
func (floatConvertor) SpansSlash() bool { return false }

var floatRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

func (floatConvertor) Parse(raw string) (any, error) {
	if !floatRe.MatchString(raw) {
		return nil, fmt.Errorf("convertor float: %q is not a float", raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("convertor float: %w", err)
	}
	return v, nil
}
func (floatConvertor) Format(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	default:
		return "", fmt.Errorf("convertor float: cannot format %T as float", value)
	}
}

// uuidConvertor matches canonical 8-4-4-4-12 hex UUIDs.
type uuidConvertor struct{}

func (uuidConvertor) Name() string  { return "uuid" }
func (uuidConvertor) Regex() string { return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}` }
func (uuidConvertor) SpansSlash() bool { return false }

var uuidRe = regexp.MustCompile(`^` + uuidConvertor{}.Regex() + `$`)

func (uuidConvertor) Parse(raw string) (any, error) {
	if !uuidRe.MatchString(raw) {
		return nil, fmt.Errorf("convertor uuid: %q is not a canonical UUID", raw)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("convertor uuid: %w", err)
	}
	return id, nil
}
func (uuidConvertor) Format(value any) (string, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String(), nil
	case string:
		if _, err := uuid.Parse(v); err != nil {
			return "", fmt.Errorf("convertor uuid: %w", err)
		}
		return v, nil
	default:
		return "", fmt.Errorf("convertor uuid: cannot format %T as uuid", value)
	}
}

// pathConvertor matches any remaining text, including "/". It must be the
// last segment of a pattern.
type pathConvertor struct{}

func (pathConvertor) Name() string     { return "path" }
func (pathConvertor) Regex() string    { return `.+` }
func (pathConvertor) SpansSlash() bool { return true }
func (pathConvertor) Parse(raw string) (any, error) {
	return raw, nil
}
func (pathConvertor) Format(value any) (string, error) {
	return fmt.Sprint(value), nil
}

// Names returns the registered convertor names, for diagnostics.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// ValidIdentifier reports whether s is a valid capture name: starts with a
// letter or underscore, followed by letters, digits, or underscores.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 {
			if !isLetter {
				return false
			}
			continue
		}
		if !isLetter && !isDigit {
			return false
		}
	}
	return true
}

// normalize trims surrounding whitespace from a raw pattern token body, used
// while splitting "{name:convertor}" segments.
func normalize(s string) string {
	return strings.TrimSpace(s)
}
