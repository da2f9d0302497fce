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

// Package leveldbstore is a smt.BackingStore over a goleveldb database,
// grounded in the teacher's own LevelDBStorage: open a DB file, encode
// the refcount alongside the node bytes, close on Close.
package leveldbstore

import (
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/smt-go/sparsemerkle/smt"
)

// Store is a smt.BackingStore backed by a single goleveldb database.
// Every value is the node's encoded bytes followed by an 8-byte
// big-endian refcount.
type Store struct {
	db     *leveldb.DB
	hasher smt.Hasher
}

// Open opens (creating if absent) the leveldb database at path.
func Open(path string, hasher smt.Hasher) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: opening %s: %w", path, err)
	}
	return &Store{db: db, hasher: hasher}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func packEntry(encoded []byte, refcount uint64) []byte {
	out := make([]byte, len(encoded)+8)
	copy(out, encoded)
	binary.BigEndian.PutUint64(out[len(encoded):], refcount)
	return out
}

func unpackEntry(packed []byte) (encoded []byte, refcount uint64) {
	n := len(packed) - 8
	return packed[:n], binary.BigEndian.Uint64(packed[n:])
}

// Get implements smt.BackingStore.
func (s *Store) Get(hash smt.Hash) ([]byte, bool, error) {
	packed, err := s.db.Get(hash.Bytes(), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leveldbstore: get: %w", err)
	}
	encoded, _ := unpackEntry(packed)
	return encoded, true, nil
}

// Contains implements smt.BackingStore.
func (s *Store) Contains(hash smt.Hash) (bool, error) {
	return s.db.Has(hash.Bytes(), nil)
}

// Insert implements smt.BackingStore.
func (s *Store) Insert(encoded []byte) (smt.Hash, error) {
	if len(encoded) == 0 {
		return "", smt.ErrCorruptedNode
	}
	hash := s.hasher.Hash(encoded[1:])
	if hash == s.hasher.Hash(nil) {
		return hash, nil
	}

	packed, err := s.db.Get(hash.Bytes(), nil)
	var refcount uint64
	switch err {
	case nil:
		_, refcount = unpackEntry(packed)
	case leveldb.ErrNotFound:
		refcount = 0
	default:
		return "", fmt.Errorf("leveldbstore: insert: reading existing entry: %w", err)
	}

	if err := s.db.Put(hash.Bytes(), packEntry(encoded, refcount+1), nil); err != nil {
		return "", fmt.Errorf("leveldbstore: insert: %w", err)
	}
	return hash, nil
}

// Remove implements smt.BackingStore.
func (s *Store) Remove(hash smt.Hash) error {
	packed, err := s.db.Get(hash.Bytes(), nil)
	if err == leveldb.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("leveldbstore: remove: %w", err)
	}

	encoded, refcount := unpackEntry(packed)
	if refcount <= 1 {
		if err := s.db.Delete(hash.Bytes(), nil); err != nil {
			return fmt.Errorf("leveldbstore: remove: %w", err)
		}
		return nil
	}
	return s.db.Put(hash.Bytes(), packEntry(encoded, refcount-1), nil)
}
