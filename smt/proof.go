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
	"encoding/binary"
	"fmt"
)

// StorageProof is a self-contained bundle of encoded nodes captured by a
// Recorder. Given the root the recorded reads were made against, a
// verifier can turn a StorageProof into a read-only BackingStore and
// re-execute those same reads without access to the original store.
type StorageProof struct {
	nodes [][]byte
}

// NewStorageProof wraps an already-collected set of encoded nodes as a
// StorageProof, deduplicating by content.
func NewStorageProof(nodes [][]byte) *StorageProof {
	seen := make(map[string]struct{}, len(nodes))
	out := make([][]byte, 0, len(nodes))
	for _, n := range nodes {
		k := string(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return &StorageProof{nodes: out}
}

// Empty reports whether the proof carries no nodes.
func (p *StorageProof) Empty() bool {
	return p == nil || len(p.nodes) == 0
}

// Len returns the number of distinct nodes in the proof.
func (p *StorageProof) Len() int {
	if p == nil {
		return 0
	}
	return len(p.nodes)
}

// MarshalBinary encodes the proof as a length-prefixed sequence of byte
// strings: for each node, a 4-byte big-endian length followed by that
// many bytes.
func (p *StorageProof) MarshalBinary() ([]byte, error) {
	size := 0
	for _, n := range p.nodes {
		size += 4 + len(n)
	}
	out := make([]byte, 0, size)
	var lenBuf [4]byte
	for _, n := range p.nodes {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(n)))
		out = append(out, lenBuf[:]...)
		out = append(out, n...)
	}
	return out, nil
}

// UnmarshalBinary decodes a proof produced by MarshalBinary.
func (p *StorageProof) UnmarshalBinary(data []byte) error {
	var nodes [][]byte
	for len(data) > 0 {
		if len(data) < 4 {
			return fmt.Errorf("smt: truncated storage proof length prefix")
		}
		n := binary.BigEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < n {
			return fmt.Errorf("smt: truncated storage proof entry")
		}
		nodes = append(nodes, append([]byte(nil), data[:n]...))
		data = data[n:]
	}
	p.nodes = nodes
	return nil
}

// IntoBackingStore builds a read-only BackingStore from the proof's
// nodes. hasher is used to recompute each node's key from its bytes
// exactly the way a live Insert would, so the returned store is keyed
// identically to the one the proof was recorded against. Get reports
// hashes not present in the proof as absent, so a tree read that needs
// one fails with ErrNodeNotFound; mutating calls always fail, since a
// StorageProof-backed store is read-only.
func (p *StorageProof) IntoBackingStore(hasher Hasher) BackingStore {
	byHash := make(map[Hash][]byte, len(p.nodes))
	for _, encoded := range p.nodes {
		if len(encoded) == 0 {
			continue
		}
		hash := hasher.Hash(encoded[1:])
		byHash[hash] = encoded
	}
	return &proofStore{nodes: byHash}
}

// proofStore is the read-only BackingStore a StorageProof unpacks into.
type proofStore struct {
	nodes map[Hash][]byte
}

func (s *proofStore) Get(hash Hash) ([]byte, bool, error) {
	encoded, ok := s.nodes[hash]
	return encoded, ok, nil
}

func (s *proofStore) Contains(hash Hash) (bool, error) {
	_, ok := s.nodes[hash]
	return ok, nil
}

func (s *proofStore) Insert(encoded []byte) (Hash, error) {
	return "", newMsgError(ErrKindNodeNotFound, "storage proof backing store is read-only")
}

func (s *proofStore) Remove(hash Hash) error {
	return newMsgError(ErrKindNodeNotFound, "storage proof backing store is read-only")
}
