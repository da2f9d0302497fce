// Copyright 2024 The Sparse Merkle Tree Authors.
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

package smt

// Hash is the opaque, fixed-width output of a Hasher. It is stored as a
// string rather than a byte slice so that it can be used directly as a map
// key; callers should treat the contents as opaque binary, not text.
type Hash string

// Bytes returns the raw bytes of the hash.
func (h Hash) Bytes() []byte {
	return []byte(h)
}

// HashFromBytes wraps a raw digest as a Hash without copying semantics
// beyond what the string conversion requires.
func HashFromBytes(b []byte) Hash {
	return Hash(b)
}

// Hasher is the hashing capability a tree is built on. Implementations
// must be collision-resistant and must always return a digest of exactly
// Size() bytes. smt does not ship a default Hasher; see smt/hash/sha3256
// and smt/hash/coniks for ready-to-use implementations.
type Hasher interface {
	// Hash returns the digest of data.
	Hash(data []byte) Hash
	// Size returns the fixed digest length in bytes.
	Size() int
}
