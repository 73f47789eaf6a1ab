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
	"context"
	"time"
)

// Prober is a single round-trip probe of an instance (typically the VSP
// client's "health" RPC endpoint).
type Prober func(ctx context.Context, inst *Instance) error

// HealthCheckInterval matches the original VSPClient.health_check loop's
// 5-second cadence.
const HealthCheckInterval = 5 * time.Second

// RunHealthChecks probes every instance of every registered service every
// HealthCheckInterval until ctx is cancelled, marking each healthy or
// unhealthy based on the probe's result.
func RunHealthChecks(ctx context.Context, registry *Registry, probe Prober) {
	ticker := time.NewTicker(HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range registry.ServiceNames() {
				for _, inst := range registry.Instances(name) {
					probeCtx, cancel := context.WithTimeout(ctx, HealthCheckInterval)
					err := probe(probeCtx, inst)
					cancel()
					if err != nil {
						inst.MarkUnhealthy()
					} else {
						inst.MarkHealthy()
					}
				}
			}
		}
	}
}
