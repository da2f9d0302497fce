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

// nullHashCache holds the precomputed hash of the all-empty subtree at
// every depth of a tree, from the leaf level (depth D) up to the root
// (depth 0). null[D] is the hash of the empty leaf; null[k] for k < D is
// the hash of an Inner node whose two children are both null[k+1].
//
// Computing the cache costs D+1 hashes and happens once, at tree
// construction; lookups against it replace the usual "does this pointer
// exist" check that a non-sparse tree would need.
type nullHashCache struct {
	// byDepth[k] is null[k], indexed 0..=depth.
	byDepth []Hash
}

func newNullHashCache(h Hasher, depth int) *nullHashCache {
	byDepth := make([]Hash, depth+1)

	byDepth[depth] = h.Hash(nil)

	for k := depth - 1; k >= 0; k-- {
		sibling := byDepth[k+1]
		byDepth[k] = newInnerNode(sibling, sibling).identity(h)
	}

	return &nullHashCache{byDepth: byDepth}
}

// at returns null[k].
func (c *nullHashCache) at(k int) Hash {
	return c.byDepth[k]
}

// root returns null[0], the hash of a freshly constructed, empty tree.
func (c *nullHashCache) root() Hash {
	return c.byDepth[0]
}

// isNullAt reports whether hash is exactly null[k].
func (c *nullHashCache) isNullAt(hash Hash, k int) bool {
	return c.byDepth[k] == hash
}
