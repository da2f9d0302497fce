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

import (
	"math"

	lru "github.com/hashicorp/golang-lru"
)

// pendingState tracks what a NodeStorage entry needs to do at commit
// time: nothing (it mirrors the backing store), get inserted, or get
// removed.
type pendingState int

const (
	stateUnchanged pendingState = iota
	stateInserted
	stateRemoved
)

type storageEntry struct {
	n     node
	state pendingState
}

// NodeStorage is the in-process staging area between a tree handle and
// its BackingStore. Nodes read during a traversal are cached as
// Unchanged; nodes produced by insert/remove are staged as Inserted or
// Removed until Commit (or a caller-driven rollback) resolves them.
//
// Unchanged entries live in an LRU, which a caller can size so a
// long-lived reader does not grow without bound; Inserted and Removed
// entries are never evicted
// before they are drained, since doing so would silently lose a pending
// mutation.
type NodeStorage struct {
	store    BackingStore
	hasher   Hasher
	pending  map[Hash]storageEntry
	cache    *lru.Cache // Hash -> node, Unchanged entries only
	nullLeaf Hash       // hasher.Hash(nil); never staged, see stageInsert
}

// NewNodeStorage creates an empty NodeStorage backed by store. cacheSize
// bounds the number of read-only (Unchanged) nodes retained in memory; a
// non-positive value disables the bound (retains everything).
func NewNodeStorage(store BackingStore, hasher Hasher, cacheSize int) *NodeStorage {
	if cacheSize <= 0 {
		cacheSize = math.MaxInt32
	}
	cache, _ := lru.New(cacheSize)
	return &NodeStorage{
		store:    store,
		hasher:   hasher,
		pending:  make(map[Hash]storageEntry),
		cache:    cache,
		nullLeaf: hasher.Hash(nil),
	}
}

// load returns the node stored under hash, consulting the pending set,
// then the Unchanged cache, then the backing store. recorder, if
// non-nil, observes every fetch that actually reaches the backing store.
func (s *NodeStorage) load(hash Hash, recorder *Recorder) (node, error) {
	if entry, ok := s.pending[hash]; ok {
		if entry.state == stateRemoved {
			return node{}, newHashError(ErrKindNodeNotFound, hash)
		}
		return entry.n, nil
	}
	if v, ok := s.cache.Get(hash); ok {
		return v.(node), nil
	}

	encoded, ok, err := s.store.Get(hash)
	if err != nil {
		return node{}, err
	}
	if !ok {
		return node{}, newHashError(ErrKindNodeNotFound, hash)
	}
	n, err := decodeNode(encoded, s.hasher.Size())
	if err != nil {
		return node{}, newWrappedError(ErrKindCorruptedNode, hash, err)
	}

	s.cache.Add(hash, n)
	if recorder != nil {
		recorder.record(hash, encoded)
	}
	return n, nil
}

// stageInsert stages n for insertion and returns its identity hash. If n
// was pending removal, that removal is cancelled and the entry reverts
// to Unchanged instead, matching the rule that a node staged as both
// inserted and removed within the same transaction nets to nothing.
//
// A Value node whose bytes hash to the null-leaf sentinel (the empty
// value, hash(nil)) is never staged: it is indistinguishable from an
// absent leaf, so persisting it would mean storing a node under the one
// hash every backing store must treat as "nothing lives here".
func (s *NodeStorage) stageInsert(n node) Hash {
	hash := n.identity(s.hasher)
	if hash == s.nullLeaf {
		return hash
	}
	if entry, ok := s.pending[hash]; ok && entry.state == stateRemoved {
		delete(s.pending, hash)
		s.cache.Add(hash, n)
		return hash
	}
	s.pending[hash] = storageEntry{n: n, state: stateInserted}
	return hash
}

// stageRemove stages hash for removal. A pending insertion of the same
// hash is cancelled outright rather than turned into a removal, since
// the net effect of inserting then removing within one transaction is
// "never happened".
func (s *NodeStorage) stageRemove(hash Hash) {
	if hash == s.nullLeaf {
		return
	}
	if entry, ok := s.pending[hash]; ok && entry.state == stateInserted {
		delete(s.pending, hash)
		return
	}
	s.pending[hash] = storageEntry{state: stateRemoved}
	s.cache.Remove(hash)
}

// discard drops all staged insertions and removals without touching the
// backing store, rolling a partially built mutation back to Unchanged.
func (s *NodeStorage) discard() {
	s.pending = make(map[Hash]storageEntry)
}

// drainPending yields the net insertions and removals accumulated since
// the last commit/discard, and clears the pending set.
func (s *NodeStorage) drainPending() (inserted map[Hash]node, removed []Hash) {
	inserted = make(map[Hash]node)
	for hash, entry := range s.pending {
		switch entry.state {
		case stateInserted:
			inserted[hash] = entry.n
			s.cache.Add(hash, entry.n)
		case stateRemoved:
			removed = append(removed, hash)
		}
	}
	s.pending = make(map[Hash]storageEntry)
	return inserted, removed
}
