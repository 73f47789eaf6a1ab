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

package vsp

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velithon-go/velithon/mesh"
)

func registryFor(t *testing.T, name, addr string) *mesh.Registry {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	r := mesh.NewRegistry(nil)
	r.Register(mesh.NewInstance(name, host, port, 1))
	return r
}

func TestClient_Call_RoundTripsThroughServer(t *testing.T) {
	srv := NewServer("echo")
	srv.Register("Echo", func(ctx context.Context, body any) (any, error) {
		return map[string]any{"echo": body}, nil
	})
	addr, stop := startTestServer(t, srv)
	defer stop()

	client := NewClient("caller", registryFor(t, "echo", addr))
	result, err := client.Call(context.Background(), "echo", "Echo", map[string]any{"x": int64(1)})
	require.NoError(t, err)

	body := result.(map[string]any)
	echoed := body["echo"].(map[string]any)
	assert.EqualValues(t, 1, echoed["x"])
}

func TestClient_Call_NoHealthyInstanceReturnsErr(t *testing.T) {
	client := NewClient("caller", mesh.NewRegistry(nil))
	_, err := client.Call(context.Background(), "missing", "Echo", nil)
	assert.ErrorIs(t, err, ErrNoHealthyInstance)
}

func TestClient_Call_RPCErrorBecomesErrRPC(t *testing.T) {
	srv := NewServer("echo")
	srv.Register("Fail", func(ctx context.Context, body any) (any, error) {
		return nil, assert.AnError
	})
	addr, stop := startTestServer(t, srv)
	defer stop()

	client := NewClient("caller", registryFor(t, "echo", addr))
	_, err := client.Call(context.Background(), "echo", "Fail", nil)
	require.Error(t, err)
	var rpcErr *ErrRPC
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, assert.AnError.Error(), rpcErr.Message)
}

func TestClient_Call_TimeoutClosesPool(t *testing.T) {
	registry := mesh.NewRegistry(nil)
	inst := mesh.NewInstance("slow", "127.0.0.1", 9999, 1)
	registry.Register(inst)
	client := NewClient("caller", registry)

	clientConn, serverConn := net.Pipe()
	client.dialer = func(ctx context.Context, addr string) (net.Conn, error) {
		return clientConn, nil
	}
	go func() {
		for {
			if _, err := ReadFrame(serverConn); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Call(ctx, "slow", "Slow", nil)
	require.Error(t, err)
	var timeoutErr *ErrTimeout
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "slow", timeoutErr.Service)
	assert.Equal(t, "Slow", timeoutErr.Endpoint)

	assert.False(t, inst.Healthy())

	client.poolsMu.Lock()
	p := client.pools["127.0.0.1:9999"]
	client.poolsMu.Unlock()
	require.NotNil(t, p)
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Empty(t, p.conns)
}

func TestClient_EnsureConn_CapsPoolAtMaxTransports(t *testing.T) {
	srv := NewServer("echo")
	srv.Register("Echo", func(ctx context.Context, body any) (any, error) { return body, nil })
	addr, stop := startTestServer(t, srv)
	defer stop()

	client := NewClient("caller", registryFor(t, "echo", addr))
	for i := 0; i < MaxTransportsPerService+3; i++ {
		_, err := client.Call(context.Background(), "echo", "Echo", map[string]any{"i": i})
		require.NoError(t, err)
	}

	client.poolsMu.Lock()
	p := client.pools[addr]
	client.poolsMu.Unlock()
	require.NotNil(t, p)
	p.mu.Lock()
	defer p.mu.Unlock()
	assert.LessOrEqual(t, len(p.conns), MaxTransportsPerService)
}
