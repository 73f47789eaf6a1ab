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

// Package di implements a small dependency-injection container (§C6):
// singleton and factory providers, resolved by a string key, with per-key
// locking so concurrent first-resolutions of the same singleton converge on
// one instance, and cycle detection that reports the full dependency chain.
// There is no separate async-factory kind: every Provider is a blocking
// function that receives a context.Context.
package di

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Provider builds a value of the keyed dependency. ctx carries cancellation
// for providers that do I/O (e.g. opening a DB connection).
type Provider func(ctx context.Context, c *Container) (any, error)

// lifetime controls how a Provider's result is cached.
type lifetime int

const (
	lifetimeFactory lifetime = iota
	lifetimeSingleton
)

type registration struct {
	provider Provider
	lifetime lifetime

	mu       sync.Mutex
	built    bool
	instance any
	err      error
}

// CycleError reports a dependency cycle, with the full chain that produced
// it (e.g. "a -> b -> c -> a").
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("di: dependency cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// Container is a registry of keyed providers.
type Container struct {
	mu   sync.RWMutex
	regs map[string]*registration

	resolving sync.Map // not read: the resolution chain travels in ctx under chainKey
}

// NewContainer builds an empty Container.
func NewContainer() *Container {
	return &Container{regs: map[string]*registration{}}
}

// Register adds a factory provider under key: every Resolve call invokes
// provider again.
func (c *Container) Register(key string, provider Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[key] = &registration{provider: provider, lifetime: lifetimeFactory}
}

// RegisterSingleton adds a provider under key whose first successful result
// is cached and returned by every later Resolve. A failed build is not
// cached: the next Resolve runs the provider again.
func (c *Container) RegisterSingleton(key string, provider Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[key] = &registration{provider: provider, lifetime: lifetimeSingleton}
}

// RegisterValue registers an already-constructed value as a singleton.
func (c *Container) RegisterValue(key string, value any) {
	c.RegisterSingleton(key, func(context.Context, *Container) (any, error) {
		return value, nil
	})
}

type resolutionState struct {
	chain []string
}

type chainKey struct{}

// Resolve builds (or returns the cached instance of) the dependency
// registered under key. A provider that calls Resolve on a key already in
// its own resolution chain gets a *CycleError naming the full chain.
func (c *Container) Resolve(ctx context.Context, key string) (any, error) {
	c.mu.RLock()
	reg, ok := c.regs[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("di: no provider registered for %q", key)
	}

	state, _ := ctx.Value(chainKey{}).(*resolutionState)
	if state == nil {
		state = &resolutionState{}
		ctx = context.WithValue(ctx, chainKey{}, state)
	} else {
		for _, k := range state.chain {
			if k == key {
				return nil, &CycleError{Chain: append(append([]string{}, state.chain...), key)}
			}
		}
	}
	state.chain = append(state.chain, key)
	defer func() { state.chain = state.chain[:len(state.chain)-1] }()

	if reg.lifetime == lifetimeFactory {
		return reg.provider(ctx, c)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.built {
		return reg.instance, reg.err
	}
	reg.instance, reg.err = reg.provider(ctx, c)
	if reg.err == nil {
		reg.built = true
	}
	return reg.instance, reg.err
}

// MustResolve is Resolve, panicking on error — for use at startup wiring
// code where a missing/cyclic provider is a programming error.
func (c *Container) MustResolve(ctx context.Context, key string) any {
	v, err := c.Resolve(ctx, key)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether key has a registered provider.
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.regs[key]
	return ok
}
