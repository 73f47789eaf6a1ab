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
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/velithon-go/velithon/mesh"
)

const (
	// MaxTransportsPerService bounds the connection pool kept open to any
	// one service instance.
	MaxTransportsPerService = 5
	// CallTimeout bounds how long Call waits for a response before giving
	// up and tearing down the connection pool it used.
	CallTimeout = 10 * time.Second

	backoffInitial = 1 * time.Second
	backoffMax     = 8 * time.Second
)

// ErrRPC wraps an error message returned in a response frame's body.
type ErrRPC struct{ Message string }

func (e *ErrRPC) Error() string { return e.Message }

// ErrTimeout reports a Call that didn't receive a response within
// CallTimeout (or ctx's own deadline, whichever is sooner).
type ErrTimeout struct {
	Service   string
	Endpoint  string
	RequestID string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("vsp: call %s/%s (request %s) timed out", e.Service, e.Endpoint, e.RequestID)
}

// ErrNoHealthyInstance is returned when the registry has no healthy
// instance for a requested service.
var ErrNoHealthyInstance = errors.New("vsp: no healthy instance for service")

// trackedConn marks itself dead once readLoop observes the peer closing it,
// so ensureConn can prune it from the pool without a fragile liveness probe.
type trackedConn struct {
	net.Conn
	dead atomic.Bool
}

type pool struct {
	mu      sync.Mutex
	conns   []*trackedConn
	backoff time.Duration
}

// pendingCall is how Client routes an async response back to its waiting
// Call goroutine.
type pendingCall struct {
	resultCh chan *Message
}

// Client dials, pools, and calls VSP endpoints on services discovered
// through a mesh.Registry, matching the original VSPClient's transport
// pooling (max 5 connections per instance, randomly selected) and 10s
// request timeout with exponential backoff applied to the next connection
// attempt after a transient failure.
type Client struct {
	registry *Registry
	dialer   func(ctx context.Context, addr string) (net.Conn, error)

	poolsMu sync.Mutex
	pools   map[string]*pool

	pendingMu sync.Mutex
	pending   map[string]*pendingCall

	serviceName string // this client's own identity, used as the header's Service field
}

// Registry is the subset of mesh.Registry the client needs, named locally
// so this package's public surface documents its own dependency instead of
// forcing callers to read mesh.Registry's full API.
type Registry = mesh.Registry

// NewClient builds a Client that looks up peers in registry and dials them
// with net.Dialer by default.
func NewClient(serviceName string, registry *Registry) *Client {
	return &Client{
		registry:    registry,
		serviceName: serviceName,
		dialer: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
		pools:   map[string]*pool{},
		pending: map[string]*pendingCall{},
	}
}

func (c *Client) poolFor(addr string) *pool {
	c.poolsMu.Lock()
	defer c.poolsMu.Unlock()
	p, ok := c.pools[addr]
	if !ok {
		p = &pool{backoff: backoffInitial}
		c.pools[addr] = p
	}
	return p
}

func (c *Client) ensureConn(ctx context.Context, addr string) (*trackedConn, error) {
	p := c.poolFor(addr)
	p.mu.Lock()
	defer p.mu.Unlock()

	live := p.conns[:0]
	for _, tc := range p.conns {
		if !tc.dead.Load() {
			live = append(live, tc)
		}
	}
	p.conns = live

	for len(p.conns) < MaxTransportsPerService {
		conn, err := c.dialer(ctx, addr)
		if err != nil {
			time.Sleep(p.backoff)
			p.backoff = nextBackoff(p.backoff)
			return nil, fmt.Errorf("vsp: failed to connect to %s: %w", addr, err)
		}
		p.backoff = backoffInitial
		tc := &trackedConn{Conn: conn}
		p.conns = append(p.conns, tc)
		go c.readLoop(tc)
	}
	return c.pickRandom(p.conns), nil
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > backoffMax {
		return backoffMax
	}
	return d
}

func (c *Client) pickRandom(conns []*trackedConn) *trackedConn {
	if len(conns) == 1 {
		return conns[0]
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(conns))))
	if err != nil {
		return conns[0]
	}
	return conns[idx.Int64()]
}

// readLoop drains response frames from conn for as long as it stays open,
// routing each to its waiting Call via the pending map, and marks conn
// dead once the peer closes it so ensureConn prunes it from the pool.
func (c *Client) readLoop(conn *trackedConn) {
	defer conn.dead.Store(true)
	for {
		msg, err := ReadFrame(conn)
		if err != nil {
			_ = conn.Close()
			return
		}
		if !msg.Header.IsResponse {
			continue
		}
		c.pendingMu.Lock()
		call, ok := c.pending[msg.Header.RequestID]
		c.pendingMu.Unlock()
		if ok {
			select {
			case call.resultCh <- msg:
			default:
			}
		}
	}
}

// Call performs a synchronous RPC: it resolves a healthy instance of
// service via the registry, reuses (or grows) its connection pool, sends
// the request, and waits up to CallTimeout for the matching response.
func (c *Client) Call(ctx context.Context, service, endpoint string, body any) (any, error) {
	inst, ok := c.registry.Query(service)
	if !ok {
		return nil, ErrNoHealthyInstance
	}
	addr := inst.Addr()

	conn, err := c.ensureConn(ctx, addr)
	if err != nil {
		inst.MarkUnhealthy()
		return nil, err
	}

	requestID := uuid.NewString()
	call := &pendingCall{resultCh: make(chan *Message, 1)}
	c.pendingMu.Lock()
	c.pending[requestID] = call
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, requestID)
		c.pendingMu.Unlock()
	}()

	msg := NewMessage(requestID, service, endpoint, body, false)
	if err := WriteFrame(conn, msg); err != nil {
		return nil, fmt.Errorf("vsp: failed to send request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	select {
	case resp := <-call.resultCh:
		if errMsg, ok := extractError(resp.Body); ok {
			return nil, &ErrRPC{Message: errMsg}
		}
		return resp.Body, nil
	case <-timeoutCtx.Done():
		c.closePool(addr)
		inst.MarkUnhealthy()
		return nil, &ErrTimeout{Service: service, Endpoint: endpoint, RequestID: requestID}
	}
}

func extractError(body any) (string, bool) {
	m, ok := body.(map[string]any)
	if !ok {
		return "", false
	}
	if e, ok := m["error"]; ok {
		return fmt.Sprint(e), true
	}
	return "", false
}

func (c *Client) closePool(addr string) {
	c.poolsMu.Lock()
	p, ok := c.pools[addr]
	c.poolsMu.Unlock()
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.conns {
		_ = conn.Close()
	}
	p.conns = nil
}

// Heartbeat sends a "ping" to service every 10 seconds until ctx is
// cancelled, returning as soon as a single ping fails — mirroring the
// original client's send_heartbeat loop, which breaks on the first
// VSPError rather than retrying.
func (c *Client) Heartbeat(ctx context.Context, service string) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Call(ctx, service, "ping", map[string]any{}); err != nil {
				return
			}
		}
	}
}
