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

package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstance_NewInstanceDefaultsWeightToOne(t *testing.T) {
	inst := NewInstance("svc", "127.0.0.1", 8080, 0)
	assert.Equal(t, 1, inst.Weight)
	assert.True(t, inst.Healthy())
	assert.Equal(t, "127.0.0.1:8080", inst.Addr())
}

func TestInstance_MarkHealthyUnhealthyToggles(t *testing.T) {
	inst := NewInstance("svc", "127.0.0.1", 8080, 1)
	inst.MarkUnhealthy()
	assert.False(t, inst.Healthy())
	inst.MarkHealthy()
	assert.True(t, inst.Healthy())
}

func TestRegistry_RegisterDedupesSameAddr(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(NewInstance("svc", "127.0.0.1", 8080, 1))
	r.Register(NewInstance("svc", "127.0.0.1", 8080, 1))
	assert.Len(t, r.Instances("svc"), 1)
}

func TestRegistry_RegisterKeepsDistinctAddrs(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(NewInstance("svc", "127.0.0.1", 8080, 1))
	r.Register(NewInstance("svc", "127.0.0.1", 8081, 1))
	assert.Len(t, r.Instances("svc"), 2)
}

func TestRegistry_DeregisterRemovesInstance(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(NewInstance("svc", "127.0.0.1", 8080, 1))
	r.Deregister("svc", "127.0.0.1:8080")
	assert.Empty(t, r.Instances("svc"))
}

func TestRegistry_QuerySkipsUnhealthyInstances(t *testing.T) {
	r := NewRegistry(nil)
	healthy := NewInstance("svc", "127.0.0.1", 8080, 1)
	unhealthy := NewInstance("svc", "127.0.0.1", 8081, 1)
	unhealthy.MarkUnhealthy()
	r.Register(healthy)
	r.Register(unhealthy)

	inst, ok := r.Query("svc")
	require.True(t, ok)
	assert.Equal(t, healthy.Addr(), inst.Addr())
}

func TestRegistry_QueryReturnsFalseWhenNoneHealthy(t *testing.T) {
	r := NewRegistry(nil)
	inst := NewInstance("svc", "127.0.0.1", 8080, 1)
	inst.MarkUnhealthy()
	r.Register(inst)

	_, ok := r.Query("svc")
	assert.False(t, ok)
}

func TestRegistry_ServiceNamesListsAllRegistered(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(NewInstance("a", "127.0.0.1", 8080, 1))
	r.Register(NewInstance("b", "127.0.0.1", 8081, 1))
	assert.ElementsMatch(t, []string{"a", "b"}, r.ServiceNames())
}
