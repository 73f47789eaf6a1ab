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

// Package config layers configuration from multiple sources (files, then
// environment variables, applied in registration order so later sources
// win) into a single merged map, and binds that map onto application
// structs.
package config

import (
	"context"
	"fmt"
	"sync"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
)

// Source loads one layer of configuration data.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Option configures New.
type Option func(*Config) error

// Config merges layered sources into one map[string]any and binds it onto
// structs via mapstructure, tagged "config" by default.
//
// Config is safe for concurrent use after New has returned.
type Config struct {
	mu      sync.RWMutex
	values  map[string]any
	sources []Source
	tagName string
}

// WithSource appends a configuration layer. Sources are loaded in the
// order they were added; a later source's keys override an earlier one's.
func WithSource(s Source) Option {
	return func(c *Config) error {
		if s == nil {
			return fmt.Errorf("config: source cannot be nil")
		}
		c.sources = append(c.sources, s)
		return nil
	}
}

// WithTagName overrides the struct tag Bind looks for (default "config").
func WithTagName(tag string) Option {
	return func(c *Config) error {
		c.tagName = tag
		return nil
	}
}

// New builds and loads a Config from opts' sources.
func New(ctx context.Context, opts ...Option) (*Config, error) {
	c := &Config{tagName: "config", values: map[string]any{}}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New but panics on error, for program startup paths where a
// bad configuration is always fatal.
func MustNew(ctx context.Context, opts ...Option) *Config {
	c, err := New(ctx, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) reload(ctx context.Context) error {
	merged := map[string]any{}
	for _, src := range c.sources {
		layer, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("config: load source: %w", err)
		}
		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return fmt.Errorf("config: merge layer: %w", err)
		}
	}
	c.mu.Lock()
	c.values = merged
	c.mu.Unlock()
	return nil
}

// Reload re-reads every source and replaces the merged values, for
// picking up changes without restarting the process.
func (c *Config) Reload(ctx context.Context) error { return c.reload(ctx) }

// Get returns the raw value at a dotted key path (e.g. "server.port"), or
// nil and false if not present.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lookup(c.values, key)
}

func lookup(m map[string]any, key string) (any, bool) {
	cursor := any(m)
	for _, part := range splitDotted(key) {
		asMap, ok := cursor.(map[string]any)
		if !ok {
			return nil, false
		}
		cursor, ok = asMap[part]
		if !ok {
			return nil, false
		}
	}
	return cursor, true
}

func splitDotted(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	return append(parts, key[start:])
}

// Bind decodes the full merged configuration into out, which must be a
// pointer to a struct. Fields are matched by the "config" tag (or
// WithTagName's override), with weakly-typed conversion (e.g. a string env
// var binding onto an int field).
func (c *Config) Bind(out any) error {
	c.mu.RLock()
	values := c.values
	tag := c.tagName
	c.mu.RUnlock()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          tag,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("config: build decoder: %w", err)
	}
	return decoder.Decode(values)
}

// BindKey decodes the sub-tree at key into out, for binding one component's
// section of a larger configuration file.
func (c *Config) BindKey(key string, out any) error {
	raw, ok := c.Get(key)
	if !ok {
		return fmt.Errorf("config: key %q not found", key)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          c.tagName,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("config: build decoder: %w", err)
	}
	return decoder.Decode(raw)
}
