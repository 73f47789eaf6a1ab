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

package convertor

import (
	"fmt"
	"strings"
)

// SyntaxError reports a precise pattern-compilation failure: the byte
// position of the bad token and what was wrong with it.
type SyntaxError struct {
	Pattern  string
	Position int
	Token    string
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("convertor: invalid pattern %q at position %d (token %q): %s",
		e.Pattern, e.Position, e.Token, e.Reason)
}

// segmentKind distinguishes literal path text from a named capture.
type segmentKind uint8

const (
	segmentLiteral segmentKind = iota
	segmentCapture
)

// Segment is one compiled element of a path pattern.
type Segment struct {
	Kind      segmentKind
	Literal   string
	Name      string
	Convertor Convertor
}

// IsCapture reports whether this segment captures a named, typed value.
func (s Segment) IsCapture() bool { return s.Kind == segmentCapture }

// Pattern is a compiled path pattern: an ordered list of literal text and
// typed captures, plus a reverse formatter for URL generation.
type Pattern struct {
	Raw      string
	Segments []Segment
}

// IsStatic reports whether the pattern has no capture segments at all, so
// it matches exactly one literal path. Callers can use this to build an
// exact-match fast path ahead of the general segment-by-segment scan.
func (p *Pattern) IsStatic() bool {
	for _, seg := range p.Segments {
		if seg.IsCapture() {
			return false
		}
	}
	return true
}

// Compile parses pattern into an ordered Segment list. Pattern syntax is
// literal text interspersed with "{name}" (implicit str convertor) or
// "{name:convertor}" tokens. Only the "path" convertor may span "/", and
// only when it is the final segment.
func Compile(pattern string) (*Pattern, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, &SyntaxError{Pattern: pattern, Position: 0, Token: pattern, Reason: "pattern must start with '/'"}
	}

	var segments []Segment
	i := 0
	n := len(pattern)
	var literal strings.Builder

	flushLiteral := func() {
		if literal.Len() > 0 {
			segments = append(segments, Segment{Kind: segmentLiteral, Literal: literal.String()})
			literal.Reset()
		}
	}

	for i < n {
		c := pattern[i]
		if c == '{' {
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return nil, &SyntaxError{Pattern: pattern, Position: i, Token: pattern[i:], Reason: "unterminated '{' token"}
			}
			end += i
			token := pattern[i+1 : end]
			flushLiteral()

			name := token
			convName := "str"
			if idx := strings.IndexByte(token, ':'); idx >= 0 {
				name = normalize(token[:idx])
				convName = normalize(token[idx+1:])
			}
			name = normalize(name)

			if !ValidIdentifier(name) {
				return nil, &SyntaxError{Pattern: pattern, Position: i, Token: token, Reason: fmt.Sprintf("invalid capture name %q", name)}
			}
			conv, ok := Lookup(convName)
			if !ok {
				return nil, &SyntaxError{Pattern: pattern, Position: i, Token: token, Reason: fmt.Sprintf("unknown convertor %q", convName)}
			}
			if conv.SpansSlash() && end+1 != n {
				return nil, &SyntaxError{Pattern: pattern, Position: i, Token: token, Reason: "the 'path' convertor must be the last segment"}
			}

			segments = append(segments, Segment{Kind: segmentCapture, Name: name, Convertor: conv})
			i = end + 1
			continue
		}
		if c == '}' {
			return nil, &SyntaxError{Pattern: pattern, Position: i, Token: "}", Reason: "unmatched '}'"}
		}
		literal.WriteByte(c)
		i++
	}
	flushLiteral()

	if err := checkDuplicateNames(pattern, segments); err != nil {
		return nil, err
	}

	return &Pattern{Raw: pattern, Segments: segments}, nil
}

// Match attempts to match path against the pattern, returning typed
// captures on success. path is the raw request path; Match splits it into
// "/"-separated segments with SplitPath itself.
func (p *Pattern) Match(path string) (map[string]any, bool) {
	pathSegs := SplitPath(path)
	captures := make(map[string]any, len(p.Segments))

	si := 0 // index into pathSegs
	for pi := 0; pi < len(p.Segments); pi++ {
		seg := p.Segments[pi]
		switch seg.Kind {
		case segmentLiteral:
			litSegs := SplitPath(seg.Literal)
			for _, ls := range litSegs {
				if si >= len(pathSegs) || pathSegs[si] != ls {
					return nil, false
				}
				si++
			}
		case segmentCapture:
			if seg.Convertor.SpansSlash() {
				if si >= len(pathSegs) {
					return nil, false
				}
				rest := strings.Join(pathSegs[si:], "/")
				v, err := seg.Convertor.Parse(rest)
				if err != nil {
					return nil, false
				}
				captures[seg.Name] = v
				si = len(pathSegs)
				continue
			}
			if si >= len(pathSegs) {
				return nil, false
			}
			v, err := seg.Convertor.Parse(pathSegs[si])
			if err != nil {
				return nil, false
			}
			captures[seg.Name] = v
			si++
		}
	}

	if si != len(pathSegs) {
		return nil, false
	}
	return captures, true
}

// SplitPath splits a "/"-separated path into non-empty segments.
func SplitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func checkDuplicateNames(pattern string, segments []Segment) error {
	seen := map[string]bool{}
	for _, s := range segments {
		if !s.IsCapture() {
			continue
		}
		if seen[s.Name] {
			return &SyntaxError{Pattern: pattern, Position: 0, Token: s.Name, Reason: "duplicate capture name"}
		}
		seen[s.Name] = true
	}
	return nil
}

// Names returns the ordered list of capture names in the pattern.
func (p *Pattern) Names() []string {
	var names []string
	for _, s := range p.Segments {
		if s.IsCapture() {
			names = append(names, s.Name)
		}
	}
	return names
}

// Format renders the pattern back into a concrete path using the supplied
// capture values (used for url_for / reverse routing). Missing required
// captures or extra unknown params are both errors.
func (p *Pattern) Format(params map[string]any) (string, error) {
	var b strings.Builder
	used := make(map[string]bool, len(params))

	for _, s := range p.Segments {
		switch s.Kind {
		case segmentLiteral:
			b.WriteString(s.Literal)
		case segmentCapture:
			v, ok := params[s.Name]
			if !ok {
				return "", fmt.Errorf("convertor: missing required parameter %q for pattern %q", s.Name, p.Raw)
			}
			formatted, err := s.Convertor.Format(v)
			if err != nil {
				return "", fmt.Errorf("convertor: parameter %q: %w", s.Name, err)
			}
			b.WriteString(formatted)
			used[s.Name] = true
		}
	}

	for k := range params {
		if !used[k] {
			return "", fmt.Errorf("convertor: unknown parameter %q for pattern %q", k, p.Raw)
		}
	}

	return b.String(), nil
}
