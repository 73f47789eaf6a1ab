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

package config

import (
	"context"
	"os"
	"strings"
)

// EnvSource loads configuration from environment variables carrying a
// given prefix, turning NAME_SERVER_PORT into the nested key path
// "server.port" once the prefix is stripped.
type EnvSource struct {
	prefix string
}

// NewEnvSource builds an EnvSource reading only variables starting with
// prefix (the prefix itself is stripped before splitting into a key path).
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{prefix: prefix}
}

// Load implements Source.
func (e *EnvSource) Load(_ context.Context) (map[string]any, error) {
	out := map[string]any{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, e.prefix) {
			continue
		}
		path := strings.Split(strings.ToLower(strings.TrimPrefix(name, e.prefix)), "_")
		setNested(out, path, value)
	}
	return out, nil
}

func setNested(m map[string]any, path []string, value string) {
	cursor := m
	for i, part := range path {
		if i == len(path)-1 {
			cursor[part] = value
			return
		}
		next, ok := cursor[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cursor[part] = next
		}
		cursor = next
	}
}
