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

// Package sha3256 is a smt.Hasher backed by SHA3-256.
package sha3256

import (
	"golang.org/x/crypto/sha3"

	"github.com/smt-go/sparsemerkle/smt"
)

const size = 32

// Hasher implements smt.Hasher using SHA3-256.
type Hasher struct{}

// New returns a SHA3-256 smt.Hasher.
func New() Hasher {
	return Hasher{}
}

// Hash returns the SHA3-256 digest of data.
func (Hasher) Hash(data []byte) smt.Hash {
	sum := sha3.Sum256(data)
	return smt.HashFromBytes(sum[:])
}

// Size returns the fixed digest width, 32 bytes.
func (Hasher) Size() int {
	return size
}
