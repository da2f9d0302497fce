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

import "crypto/sha256"

// testHasher is a minimal Hasher fixture for this package's internal
// tests. It is not exported: callers of smt pick a real Hasher from
// smt/hash/sha3256 or smt/hash/coniks instead.
type testHasher struct{}

func (testHasher) Hash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return HashFromBytes(sum[:])
}

func (testHasher) Size() int {
	return sha256.Size
}
