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

// Package vsp implements the length-prefixed, MessagePack-encoded RPC
// transport used for service-to-service calls (§C9): a 4-byte big-endian
// length prefix followed by a msgpack-encoded Message, a bounded worker
// queue per server, and a client connection pool. Health-aware instance
// selection lives in the separate mesh package; Registry here is an alias
// of mesh.Registry.
package vsp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMessageTooLarge guards against a corrupt or hostile length prefix
// before allocating a receive buffer for it.
var ErrMessageTooLarge = errors.New("vsp: message exceeds maximum frame size")

// MaxFrameSize is the default bound on a single frame's body length,
// independent of the process's available memory. Callers who need a
// larger limit can use ReadFrameLimit directly, or Server.WithMaxFrameSize.
const MaxFrameSize = 16 << 20 // 16 MiB

// Header is the envelope carried by every Message.
type Header struct {
	RequestID  string `msgpack:"request_id"`
	Service    string `msgpack:"service"`
	Endpoint   string `msgpack:"endpoint"`
	IsResponse bool   `msgpack:"is_response"`
}

// Message is one VSP frame: a header plus an arbitrary msgpack-encodable
// body, typically a map[string]any of RPC arguments or results.
type Message struct {
	Header Header `msgpack:"header"`
	Body   any    `msgpack:"body"`
}

// NewMessage builds a request (or, with isResponse=true, a response)
// message.
func NewMessage(requestID, service, endpoint string, body any, isResponse bool) *Message {
	return &Message{
		Header: Header{RequestID: requestID, Service: service, Endpoint: endpoint, IsResponse: isResponse},
		Body:   body,
	}
}

// Encode serializes m to msgpack bytes, without the length prefix.
func (m *Message) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("vsp: message serialization failed: %w", err)
	}
	return data, nil
}

// Decode deserializes msgpack bytes into m.
func (m *Message) Decode(data []byte) error {
	if err := msgpack.Unmarshal(data, m); err != nil {
		return fmt.Errorf("vsp: message deserialization failed: %w", err)
	}
	return nil
}

// WriteFrame writes the 4-byte big-endian length prefix followed by m's
// encoded bytes to w.
func WriteFrame(w io.Writer, m *Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFrame reads one length-prefixed frame from r and decodes it, rejecting
// frames larger than MaxFrameSize.
func ReadFrame(r io.Reader) (*Message, error) {
	return ReadFrameLimit(r, MaxFrameSize)
}

// ReadFrameLimit is ReadFrame with an explicit maximum frame size, for
// callers that need a limit other than the package default.
func ReadFrameLimit(r io.Reader, maxSize uint32) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > maxSize {
		return nil, ErrMessageTooLarge
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	m := &Message{}
	if err := m.Decode(body); err != nil {
		return nil, err
	}
	return m, nil
}
