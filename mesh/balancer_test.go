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

func TestRoundRobin_CyclesInOrder(t *testing.T) {
	instances := []*Instance{
		NewInstance("svc", "127.0.0.1", 8080, 1),
		NewInstance("svc", "127.0.0.1", 8081, 1),
		NewInstance("svc", "127.0.0.1", 8082, 1),
	}
	b := NewRoundRobin()

	var picked []string
	for i := 0; i < 6; i++ {
		picked = append(picked, b.Select(instances).Addr())
	}
	assert.Equal(t, []string{
		instances[0].Addr(), instances[1].Addr(), instances[2].Addr(),
		instances[0].Addr(), instances[1].Addr(), instances[2].Addr(),
	}, picked)
}

func TestRoundRobin_SingleInstanceAlwaysPicked(t *testing.T) {
	inst := NewInstance("svc", "127.0.0.1", 8080, 1)
	b := NewRoundRobin()
	for i := 0; i < 3; i++ {
		assert.Same(t, inst, b.Select([]*Instance{inst}))
	}
}

func TestRandom_PicksFromProvidedSet(t *testing.T) {
	instances := []*Instance{
		NewInstance("svc", "127.0.0.1", 8080, 1),
		NewInstance("svc", "127.0.0.1", 8081, 1),
	}
	b := NewRandom()
	for i := 0; i < 20; i++ {
		picked := b.Select(instances)
		require.Contains(t, instances, picked)
	}
}

func TestWeighted_NeverPicksZeroWeightWhenOthersHaveWeight(t *testing.T) {
	zero := NewInstance("svc", "127.0.0.1", 8080, 1)
	zero.Weight = 0
	heavy := NewInstance("svc", "127.0.0.1", 8081, 100)
	b := NewWeighted()

	for i := 0; i < 50; i++ {
		picked := b.Select([]*Instance{zero, heavy})
		assert.Equal(t, heavy.Addr(), picked.Addr())
	}
}

func TestWeighted_FallsBackToFirstWhenTotalWeightNonPositive(t *testing.T) {
	inst := NewInstance("svc", "127.0.0.1", 8080, 1)
	inst.Weight = 0
	b := NewWeighted()
	assert.Same(t, inst, b.Select([]*Instance{inst}))
}
