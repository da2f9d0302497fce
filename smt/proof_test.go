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

package smt_test

import (
	"testing"

	"github.com/smt-go/sparsemerkle/smt"
)

func TestStorageProofMarshalRoundTrip(t *testing.T) {
	nodes := [][]byte{
		{0x00, 'a', 'b', 'c'},
		{0x01, 1, 2, 3, 4, 5, 6, 7, 8},
	}
	p := smt.NewStorageProof(nodes)

	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var p2 smt.StorageProof
	if err := p2.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if p2.Len() != p.Len() {
		t.Fatalf("round-tripped proof has %d nodes, want %d", p2.Len(), p.Len())
	}
}

func TestStorageProofDeduplicates(t *testing.T) {
	node := []byte{0x00, 'x'}
	p := smt.NewStorageProof([][]byte{node, append([]byte{}, node...), node})
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (duplicate entries should collapse)", p.Len())
	}
}

func TestStorageProofEmpty(t *testing.T) {
	var p *smt.StorageProof
	if !p.Empty() {
		t.Fatal("nil *StorageProof.Empty() = false, want true")
	}
	p = smt.NewStorageProof(nil)
	if !p.Empty() {
		t.Fatal("StorageProof with no nodes: Empty() = false, want true")
	}
}

func TestStorageProofUnmarshalTruncated(t *testing.T) {
	var p smt.StorageProof
	if err := p.UnmarshalBinary([]byte{0, 0, 0}); err == nil {
		t.Fatal("UnmarshalBinary with a truncated length prefix: want error, got nil")
	}
	if err := p.UnmarshalBinary([]byte{0, 0, 0, 5, 1, 2}); err == nil {
		t.Fatal("UnmarshalBinary with a truncated entry: want error, got nil")
	}
}
