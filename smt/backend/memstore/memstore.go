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

// Package memstore is an in-process smt.BackingStore. It keeps every
// node in a map guarded by a mutex, with a reference count per entry so
// a node shared by more than one path in the tree survives until every
// path that uses it has been removed.
package memstore

import (
	"sync"

	"github.com/smt-go/sparsemerkle/smt"
)

type entry struct {
	encoded []byte
	refs    int
}

// Store is a smt.BackingStore backed by an in-memory, reference-counted
// map. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	hasher smt.Hasher
	nodes  map[smt.Hash]*entry
}

// New returns an empty Store. hasher must be the same Hasher the tree
// using this Store is built with, since Insert recomputes a node's key
// from its encoded bytes rather than trusting a caller-supplied hash.
func New(hasher smt.Hasher) *Store {
	return &Store{
		hasher: hasher,
		nodes:  make(map[smt.Hash]*entry),
	}
}

// Get implements smt.BackingStore.
func (s *Store) Get(hash smt.Hash) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.nodes[hash]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.encoded...), true, nil
}

// Insert implements smt.BackingStore. The null-leaf sentinel is never
// actually reachable here in practice (smt.NodeStorage short-circuits
// it before it gets this far), but Insert still guards against it so a
// Store used directly, outside the smt package, cannot be made to
// violate the invariant that nothing is ever stored under that hash.
func (s *Store) Insert(encoded []byte) (smt.Hash, error) {
	if len(encoded) == 0 {
		return "", smt.ErrCorruptedNode
	}
	hash := s.hasher.Hash(encoded[1:])
	if hash == s.hasher.Hash(nil) {
		return hash, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.nodes[hash]; ok {
		e.refs++
		return hash, nil
	}
	s.nodes[hash] = &entry{encoded: append([]byte(nil), encoded...), refs: 1}
	return hash, nil
}

// Remove implements smt.BackingStore.
func (s *Store) Remove(hash smt.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.nodes[hash]
	if !ok {
		return nil
	}
	e.refs--
	if e.refs <= 0 {
		delete(s.nodes, hash)
	}
	return nil
}

// Contains implements smt.BackingStore.
func (s *Store) Contains(hash smt.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[hash]
	return ok, nil
}

// Len returns the number of distinct nodes currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}
