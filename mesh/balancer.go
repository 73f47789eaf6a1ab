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
	"crypto/rand"
	"math/big"
	"sync/atomic"
)

// RoundRobin cycles through the healthy instance list in order.
type RoundRobin struct {
	counter uint64
}

func NewRoundRobin() *RoundRobin { return &RoundRobin{} }

func (b *RoundRobin) Select(instances []*Instance) *Instance {
	n := atomic.AddUint64(&b.counter, 1)
	return instances[(n-1)%uint64(len(instances))]
}

// Random picks uniformly at random among the healthy instances — the
// original client's strategy for picking among pooled transports.
type Random struct{}

func NewRandom() Random { return Random{} }

func (Random) Select(instances []*Instance) *Instance {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(instances))))
	if err != nil {
		return instances[0]
	}
	return instances[idx.Int64()]
}

// Weighted picks an instance with probability proportional to its Weight.
type Weighted struct{}

func NewWeighted() Weighted { return Weighted{} }

func (Weighted) Select(instances []*Instance) *Instance {
	total := 0
	for _, inst := range instances {
		total += inst.Weight
	}
	if total <= 0 {
		return instances[0]
	}
	pick, err := rand.Int(rand.Reader, big.NewInt(int64(total)))
	if err != nil {
		return instances[0]
	}
	target := pick.Int64()
	for _, inst := range instances {
		target -= int64(inst.Weight)
		if target < 0 {
			return inst
		}
	}
	return instances[len(instances)-1]
}
