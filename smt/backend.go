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

// BackingStore is the content-addressed, reference-counted key-value
// capability a tree persists to. Implementations live under
// smt/backend/...; this package only consumes the interface.
//
// Two hashes are never passed to Get or Remove by this package: the
// hasher's null-leaf sentinel (Hasher.Hash(nil)) and, transitively, any
// null hash at any depth. Implementations are free to treat lookups of
// those hashes as "absent" without a special case, since this package
// never calls Get/Remove with them in the first place.
type BackingStore interface {
	// Get fetches the encoded node bytes stored under hash. It returns
	// ok == false if no such entry exists.
	Get(hash Hash) (encoded []byte, ok bool, err error)

	// Insert hashes encoded (skipping its one-byte node-type tag),
	// stores (hash -> encoded) if not already present, increments that
	// hash's reference count, and returns the hash.
	Insert(encoded []byte) (Hash, error)

	// Remove decrements the reference count at hash. When the count
	// reaches zero the entry is dropped. Removing an absent hash is a
	// no-op.
	Remove(hash Hash) error

	// Contains reports whether hash currently has a live entry.
	Contains(hash Hash) (bool, error)
}
