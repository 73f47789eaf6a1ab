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

// Package mesh implements the service registry and load-balanced peer
// selection used by the VSP client (§C10): instances register under a
// service name, unhealthy instances are skipped at selection time, and a
// pluggable Balancer picks among the remaining healthy instances.
package mesh

import (
	"fmt"
	"sync"
	"time"
)

// Instance is one registered endpoint of a named service.
type Instance struct {
	Name   string
	Host   string
	Port   int
	Weight int

	mu              sync.RWMutex
	healthy         bool
	lastHealthCheck time.Time
}

// NewInstance builds a healthy Instance with weight defaulted to 1.
func NewInstance(name, host string, port int, weight int) *Instance {
	if weight <= 0 {
		weight = 1
	}
	return &Instance{Name: name, Host: host, Port: port, Weight: weight, healthy: true, lastHealthCheck: time.Now()}
}

// Addr is host:port, the key used to dedupe and to key transport pools.
func (i *Instance) Addr() string { return fmt.Sprintf("%s:%d", i.Host, i.Port) }

func (i *Instance) MarkHealthy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.healthy = true
	i.lastHealthCheck = time.Now()
}

func (i *Instance) MarkUnhealthy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.healthy = false
	i.lastHealthCheck = time.Now()
}

func (i *Instance) Healthy() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.healthy
}

// Balancer selects one instance from a healthy pool.
type Balancer interface {
	Select(instances []*Instance) *Instance
}

// Registry groups Instances by service name and hands out a Balancer's
// pick among the healthy ones.
type Registry struct {
	mu       sync.RWMutex
	services map[string][]*Instance
	balancer Balancer
}

// NewRegistry builds a Registry using balancer for selection, defaulting to
// round-robin.
func NewRegistry(balancer Balancer) *Registry {
	if balancer == nil {
		balancer = NewRoundRobin()
	}
	return &Registry{services: map[string][]*Instance{}, balancer: balancer}
}

// Register adds inst under its service name, ignoring a duplicate
// host:port already registered for that name.
func (r *Registry) Register(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.services[inst.Name] {
		if existing.Addr() == inst.Addr() {
			return
		}
	}
	r.services[inst.Name] = append(r.services[inst.Name], inst)
}

// Deregister removes the instance at addr from name's pool, if present.
func (r *Registry) Deregister(name, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.services[name]
	for i, inst := range list {
		if inst.Addr() == addr {
			r.services[name] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Query returns a healthy instance of name chosen by the registry's
// Balancer, or false if none are registered/healthy.
func (r *Registry) Query(name string) (*Instance, bool) {
	r.mu.RLock()
	all := r.services[name]
	r.mu.RUnlock()

	healthy := make([]*Instance, 0, len(all))
	for _, inst := range all {
		if inst.Healthy() {
			healthy = append(healthy, inst)
		}
	}
	if len(healthy) == 0 {
		return nil, false
	}
	return r.balancer.Select(healthy), true
}

// Instances returns every registered instance of name, healthy or not —
// used by the health-check prober.
func (r *Registry) Instances(name string) []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, len(r.services[name]))
	copy(out, r.services[name])
	return out
}

// ServiceNames lists every registered service name, for the prober's sweep.
func (r *Registry) ServiceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	return names
}
