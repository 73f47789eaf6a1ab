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

package velithon

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces a new request id on every call. The adapter calls it
// once per incoming request unless the client already supplied an
// X-Request-ID header.
type IDGenerator func() string

// UUIDGenerator returns request ids as canonical UUIDv4 strings.
func UUIDGenerator() string { return uuid.NewString() }

// ULIDGenerator returns request ids as lexicographically sortable ULIDs,
// useful when request ids double as a coarse ordering key in logs.
func ULIDGenerator() string {
	return ulid.Make().String()
}

var defaultIDCounter uint64

// DefaultIDGenerator is the framework's zero-configuration generator: a
// random prefix, the current millisecond timestamp, and a monotonic
// counter ("{randPrefix}-{ms timestamp}-{counter}"), without pulling in a
// UUID dependency unless the caller opts in. The id has three fields; it
// carries no thread-slot field.
func DefaultIDGenerator() string {
	prefix := randomHex(4)
	ts := time.Now().UnixMilli()
	counter := atomic.AddUint64(&defaultIDCounter, 1)
	return fmt.Sprintf("%s-%d-%d", prefix, ts, counter%math.MaxUint32)
}

func randomHex(n int) string {
	const alphabet = "0123456789abcdef"
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = alphabet[0]
			continue
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf)
}
