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

// Package snappystore decorates any smt.BackingStore with Snappy
// compression of the bytes actually written to it, the same compression
// goleveldb applies to its own blocks by default and that shows up
// throughout this corpus's storage-engine dependency graphs.
//
// A node's identity hash is always computed over its uncompressed
// payload — compressing first would make a node's address depend on the
// codec, which is exactly what the core package's hash-skip-the-tag
// convention is designed to avoid. So this Store keeps its own index
// from a node's true hash to whatever hash the inner store assigned the
// compressed bytes, and translates between the two on every call.
//
// That index is itself persisted into inner, under a content hash of
// its own (IndexHash). A caller wrapping a real on-disk backend —
// bolt/leveldb/sql — must save IndexHash the same way it already saves
// the tree's root, and pass it back to Open the next time the process
// starts: without it, the compressed bytes are still sitting in inner's
// file, but nothing in this Store's memory knows how to find them.
package snappystore

import (
	"sort"
	"sync"

	"github.com/golang/snappy"

	"github.com/smt-go/sparsemerkle/smt"
)

const indexTag byte = 0xff

// Store wraps inner, compressing every value before it reaches inner and
// decompressing every value read back out.
type Store struct {
	inner  smt.BackingStore
	hasher smt.Hasher

	mu        sync.Mutex
	index     map[smt.Hash]smt.Hash // true identity hash -> inner store's hash of the compressed blob
	indexHash smt.Hash              // hash under which the serialized index above currently lives in inner
}

// EmptyIndexHash is the IndexHash of a Store that has never compressed
// anything: the sentinel meaning "nothing to resume from."
func EmptyIndexHash(hasher smt.Hasher) smt.Hash {
	return hasher.Hash(nil)
}

// Open wraps inner with Snappy compression, resuming the true-hash ->
// inner-hash index that was last persisted at indexHash (as returned by
// a prior Store's IndexHash). Pass EmptyIndexHash(hasher) for a Store
// that has never compressed anything yet, i.e. the same role NullRoot
// plays for a tree with no entries. hasher must match the Hasher the
// tree using this Store is built with.
func Open(inner smt.BackingStore, hasher smt.Hasher, indexHash smt.Hash) (*Store, error) {
	s := &Store{
		inner:  inner,
		hasher: hasher,
		index:  make(map[smt.Hash]smt.Hash),
	}

	empty := EmptyIndexHash(hasher)
	if indexHash == empty {
		s.indexHash = empty
		return s, nil
	}

	encoded, ok, err := inner.Get(indexHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, smt.ErrNodeNotFound
	}
	index, err := decodeIndex(encoded, hasher.Size())
	if err != nil {
		return nil, err
	}
	s.index = index
	s.indexHash = indexHash
	return s, nil
}

// New wraps inner with Snappy compression and an index with nothing
// resumed into it. Equivalent to Open(inner, hasher,
// EmptyIndexHash(hasher)), which cannot fail.
func New(inner smt.BackingStore, hasher smt.Hasher) *Store {
	s, _ := Open(inner, hasher, EmptyIndexHash(hasher))
	return s
}

// IndexHash returns the hash under which this Store's current
// true-hash -> inner-hash mapping is persisted in inner. A caller that
// wants to resume this Store's compressed entries after a process
// restart must save this value (the same way it already saves the
// tree's root) and pass it to Open.
func (s *Store) IndexHash() smt.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexHash
}

// Get implements smt.BackingStore.
func (s *Store) Get(hash smt.Hash) ([]byte, bool, error) {
	s.mu.Lock()
	innerHash, ok := s.index[hash]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	compressed, ok, err := s.inner.Get(innerHash)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(compressed) == 0 {
		return nil, false, smt.ErrCorruptedNode
	}

	payload, err := snappy.Decode(nil, compressed[1:])
	if err != nil {
		return nil, false, err
	}
	encoded := make([]byte, 1+len(payload))
	encoded[0] = compressed[0]
	copy(encoded[1:], payload)
	return encoded, true, nil
}

// Contains implements smt.BackingStore.
func (s *Store) Contains(hash smt.Hash) (bool, error) {
	s.mu.Lock()
	innerHash, ok := s.index[hash]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return s.inner.Contains(innerHash)
}

// Insert implements smt.BackingStore. The hash it returns is always the
// true, uncompressed identity hash, never the inner store's hash of the
// compressed bytes.
func (s *Store) Insert(encoded []byte) (smt.Hash, error) {
	if len(encoded) == 0 {
		return "", smt.ErrCorruptedNode
	}
	trueHash := s.hasher.Hash(encoded[1:])
	if trueHash == s.hasher.Hash(nil) {
		return trueHash, nil
	}

	compressedPayload := snappy.Encode(nil, encoded[1:])
	compressedBlob := make([]byte, 1+len(compressedPayload))
	compressedBlob[0] = encoded[0]
	copy(compressedBlob[1:], compressedPayload)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, alreadyIndexed := s.index[trueHash]

	innerHash, err := s.inner.Insert(compressedBlob)
	if err != nil {
		return "", err
	}
	s.index[trueHash] = innerHash

	if !alreadyIndexed {
		if err := s.persistIndexLocked(); err != nil {
			return "", err
		}
	}
	return trueHash, nil
}

// Remove implements smt.BackingStore.
func (s *Store) Remove(hash smt.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	innerHash, ok := s.index[hash]
	if !ok {
		return nil
	}

	if err := s.inner.Remove(innerHash); err != nil {
		return err
	}
	still, err := s.inner.Contains(innerHash)
	if err != nil {
		return err
	}
	if still {
		return nil
	}

	delete(s.index, hash)
	return s.persistIndexLocked()
}

// persistIndexLocked re-serializes the current index and stores it in
// inner under a fresh content hash, replacing whatever lived at the
// previous one. Callers must hold s.mu.
func (s *Store) persistIndexLocked() error {
	encoded := encodeIndex(s.index, s.hasher.Size())
	newHash, err := s.inner.Insert(encoded)
	if err != nil {
		return err
	}

	old := s.indexHash
	s.indexHash = newHash
	if old == "" || old == newHash || old == EmptyIndexHash(s.hasher) {
		return nil
	}
	return s.inner.Remove(old)
}

// encodeIndex serializes index as an indexTag byte followed by each
// entry's true hash and inner hash, back to back, sorted by true hash
// so that the same index always serializes to the same bytes. size is
// the hasher's fixed digest width.
func encodeIndex(index map[smt.Hash]smt.Hash, size int) []byte {
	keys := make([]smt.Hash, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	buf := make([]byte, 1, 1+len(keys)*2*size)
	buf[0] = indexTag
	for _, k := range keys {
		buf = append(buf, k.Bytes()...)
		buf = append(buf, index[k].Bytes()...)
	}
	return buf
}

// decodeIndex parses the encoding encodeIndex produces.
func decodeIndex(encoded []byte, size int) (map[smt.Hash]smt.Hash, error) {
	if len(encoded) == 0 || encoded[0] != indexTag {
		return nil, smt.ErrCorruptedNode
	}
	body := encoded[1:]
	if size <= 0 || len(body)%(2*size) != 0 {
		return nil, smt.ErrCorruptedNode
	}

	index := make(map[smt.Hash]smt.Hash, len(body)/(2*size))
	for i := 0; i < len(body); i += 2 * size {
		trueHash := smt.HashFromBytes(body[i : i+size])
		innerHash := smt.HashFromBytes(body[i+size : i+2*size])
		index[trueHash] = innerHash
	}
	return index, nil
}
