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

package snappystore_test

import (
	"testing"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/backend/backendtest"
	"github.com/smt-go/sparsemerkle/smt/backend/memstore"
	"github.com/smt-go/sparsemerkle/smt/backend/snappystore"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
)

func TestSnappystoreConformance(t *testing.T) {
	backendtest.Run(t, func() smt.BackingStore {
		h := sha3256.New()
		return snappystore.New(memstore.New(h), h)
	})
}

// A second Store resuming from a first Store's IndexHash, but wrapping
// the very same inner BackingStore, stands in for the ordinary lifecycle
// of a process that persists to a real on-disk backend, commits, exits,
// and is later restarted: the inner store's bytes survive on their own,
// but this Store's in-memory index does not, so the index hash is the
// thing that has to be carried across that boundary.
func TestSnappystoreIndexSurvivesReopen(t *testing.T) {
	h := sha3256.New()
	inner := memstore.New(h)

	first, err := snappystore.Open(inner, h, snappystore.EmptyIndexHash(h))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	hash, err := first.Insert(append([]byte{0x00}, []byte("hello")...))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	savedIndexHash := first.IndexHash()
	if savedIndexHash == snappystore.EmptyIndexHash(h) {
		t.Fatal("IndexHash after a real insert still reads as empty")
	}

	resumed, err := snappystore.Open(inner, h, savedIndexHash)
	if err != nil {
		t.Fatalf("Open (resumed): %v", err)
	}
	got, ok, err := resumed.Get(hash)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !ok {
		t.Fatal("Get after reopen: not found, want the node inserted before the simulated restart")
	}
	if string(got) != "\x00hello" {
		t.Fatalf("Get after reopen = %q, want %q", got, "\x00hello")
	}

	// A fresh Store that does NOT resume from the saved index hash can't
	// see the node, even though inner still holds its bytes. This is the
	// documented failure mode the index hash exists to prevent, not a bug
	// in this assertion.
	fresh, err := snappystore.Open(inner, h, snappystore.EmptyIndexHash(h))
	if err != nil {
		t.Fatalf("Open (fresh): %v", err)
	}
	if _, ok, err := fresh.Get(hash); err != nil || ok {
		t.Fatalf("Get on a fresh index: ok=%v err=%v, want ok=false", ok, err)
	}
}

// Removing every entry drives the index back down to the empty hash, so
// a Store that has been fully drained resumes identically whether a
// caller passes its last IndexHash or EmptyIndexHash.
func TestSnappystoreIndexHashReturnsToEmptyWhenDrained(t *testing.T) {
	h := sha3256.New()
	inner := memstore.New(h)

	s := snappystore.New(inner, h)
	hash, err := s.Insert(append([]byte{0x00}, []byte("temp")...))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if s.IndexHash() == snappystore.EmptyIndexHash(h) {
		t.Fatal("IndexHash after insert still reads as empty")
	}

	if err := s.Remove(hash); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := s.IndexHash(); got != snappystore.EmptyIndexHash(h) {
		t.Fatalf("IndexHash after removing the only entry = %x, want the empty sentinel", got.Bytes())
	}
}
