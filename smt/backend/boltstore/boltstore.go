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

// Package boltstore is a smt.BackingStore over a single go.etcd.io/bbolt
// bucket, in the same open-a-file/keep-a-bucket style the teacher uses
// for its SQL and LevelDB backends, adapted to bbolt's transaction API.
package boltstore

import (
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/smt-go/sparsemerkle/smt"
)

var bucketName = []byte("smt_nodes")

// Store is a smt.BackingStore backed by a bbolt database file. Every
// value is the node's encoded bytes followed by an 8-byte big-endian
// refcount.
type Store struct {
	db     *bolt.DB
	hasher smt.Hasher
}

// Open opens (creating if absent) the bbolt database at path and
// ensures the node bucket exists.
func Open(path string, hasher smt.Hasher) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: creating bucket: %w", err)
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
	var encoded []byte
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		packed := tx.Bucket(bucketName).Get(hash.Bytes())
		if packed == nil {
			return nil
		}
		found = true
		e, _ := unpackEntry(packed)
		encoded = append([]byte(nil), e...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("boltstore: get: %w", err)
	}
	return encoded, found, nil
}

// Contains implements smt.BackingStore.
func (s *Store) Contains(hash smt.Hash) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketName).Get(hash.Bytes()) != nil
		return nil
	})
	return found, err
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

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		var refcount uint64
		if packed := b.Get(hash.Bytes()); packed != nil {
			_, refcount = unpackEntry(packed)
		}
		return b.Put(hash.Bytes(), packEntry(encoded, refcount+1))
	})
	if err != nil {
		return "", fmt.Errorf("boltstore: insert: %w", err)
	}
	return hash, nil
}

// Remove implements smt.BackingStore.
func (s *Store) Remove(hash smt.Hash) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		packed := b.Get(hash.Bytes())
		if packed == nil {
			return nil
		}
		encoded, refcount := unpackEntry(packed)
		if refcount <= 1 {
			return b.Delete(hash.Bytes())
		}
		return b.Put(hash.Bytes(), packEntry(encoded, refcount-1))
	})
	if err != nil {
		return fmt.Errorf("boltstore: remove: %w", err)
	}
	return nil
}
