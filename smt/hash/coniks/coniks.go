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

// Package coniks is a smt.Hasher backed by SHA-512/256, the digest the
// CONIKS key transparency design uses for its Merkle tree. Unlike the
// original CONIKS tree hash, which folds the leaf's index and depth into
// every hash to bind a node to its position, this Hasher only ever sees
// plain content bytes: position is already bound implicitly by where a
// hash sits in the recursive left||right structure a sparse Merkle tree
// builds on top of it, so mixing it in a second time here would be
// redundant.
package coniks

import (
	"crypto/sha512"

	"github.com/smt-go/sparsemerkle/smt"
)

const size = 32

// Hasher implements smt.Hasher using SHA-512/256.
type Hasher struct{}

// New returns a SHA-512/256 smt.Hasher.
func New() Hasher {
	return Hasher{}
}

// Hash returns the SHA-512/256 digest of data.
func (Hasher) Hash(data []byte) smt.Hash {
	sum := sha512.Sum512_256(data)
	return smt.HashFromBytes(sum[:])
}

// Size returns the fixed digest width, 32 bytes.
func (Hasher) Size() int {
	return size
}
