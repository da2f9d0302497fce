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

package indexed_test

import (
	"errors"
	"testing"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/backend/memstore"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
	"github.com/smt-go/sparsemerkle/smt/indexed"
)

func TestIndexedRoundTrip(t *testing.T) {
	h := sha3256.New()
	store := memstore.New(h)
	root := indexed.NullRoot(h, 8)

	w, err := indexed.NewWriter(store, h, &root, 8)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := uint64(0); i < 16; i++ {
		if _, err := w.Insert(i, []byte{byte(i)}); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if _, _, err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := indexed.NewReader(store, h, root, 8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	for i := uint64(0); i < 16; i++ {
		got, err := r.Value(i)
		if err != nil {
			t.Fatalf("Value(%d): %v", i, err)
		}
		if len(got) != 1 || got[0] != byte(i) {
			t.Errorf("Value(%d) = %v, want [%d]", i, got, i)
		}
	}
}

func TestIndexedProofRoundTrip(t *testing.T) {
	h := sha3256.New()
	store := memstore.New(h)
	root := indexed.NullRoot(h, 8)

	w, err := indexed.NewWriter(store, h, &root, 8)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Insert(42, []byte("answer")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, _, err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := indexed.NewReader(store, h, root, 8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	proof, err := r.Proof(42)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	ok, err := indexed.Verify(h, 8, 42, []byte("answer"), proof, root)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("Verify(42, \"answer\") = false, want true")
	}
}

func TestIndexedKeyOrderingIsBigEndian(t *testing.T) {
	h := sha3256.New()
	store := memstore.New(h)
	root := indexed.NullRoot(h, 8)

	w, err := indexed.NewWriter(store, h, &root, 8)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Insert(1, []byte("one")); err != nil {
		t.Fatalf("Insert(1): %v", err)
	}
	if _, err := w.Insert(1<<56, []byte("big")); err != nil {
		t.Fatalf("Insert(1<<56): %v", err)
	}
	if _, _, err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := indexed.NewReader(store, h, root, 8)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	one, err := r.Value(1)
	if err != nil {
		t.Fatalf("Value(1): %v", err)
	}
	big, err := r.Value(1 << 56)
	if err != nil {
		t.Fatalf("Value(1<<56): %v", err)
	}
	if string(one) != "one" || string(big) != "big" {
		t.Fatalf("got %q, %q, want %q, %q", one, big, "one", "big")
	}
}

func TestIndexedShallowerDepthTruncatesIndex(t *testing.T) {
	h := sha3256.New()
	store := memstore.New(h)
	root := indexed.NullRoot(h, 1)

	w, err := indexed.NewWriter(store, h, &root, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Insert(5, []byte("five")); err != nil {
		t.Fatalf("Insert(5): %v", err)
	}
	if _, _, err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := indexed.NewReader(store, h, root, 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.Value(5)
	if err != nil {
		t.Fatalf("Value(5): %v", err)
	}
	if string(got) != "five" {
		t.Fatalf("Value(5) = %q, want %q", got, "five")
	}

	// An index whose low byte collides with 5 but whose higher bytes are
	// dropped by a 1-byte-deep tree reads back the same entry.
	collided, err := r.Value(5 | (0x7 << 8))
	if err != nil {
		t.Fatalf("Value(5 | 0x700): %v", err)
	}
	if string(collided) != "five" {
		t.Fatalf("Value(5 | 0x700) = %q, want %q (truncated to the same 1-byte key)", collided, "five")
	}
}

// An indexed Writer reads its own staged mutations, just as the
// underlying smt.Writer does: Value/Leaf/Proof delegate straight
// through to it.
func TestIndexedWriterReadsOwnUncommittedWrites(t *testing.T) {
	h := sha3256.New()
	store := memstore.New(h)
	root := indexed.NullRoot(h, 8)

	w, err := indexed.NewWriter(store, h, &root, 8)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.Insert(42, []byte("uncommitted")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := w.Value(42)
	if err != nil {
		t.Fatalf("Value before commit: %v", err)
	}
	if string(got) != "uncommitted" {
		t.Fatalf("Value before commit = %q, want %q", got, "uncommitted")
	}

	leaf, err := w.Leaf(42)
	if err != nil {
		t.Fatalf("Leaf before commit: %v", err)
	}
	if leaf == h.Hash(nil) {
		t.Fatal("Leaf before commit = the null-leaf sentinel, want the inserted leaf's identity hash")
	}

	proof, err := w.Proof(42)
	if err != nil {
		t.Fatalf("Proof before commit: %v", err)
	}
	if string(proof.Value) != "uncommitted" {
		t.Fatalf("Proof.Value before commit = %q, want %q", proof.Value, "uncommitted")
	}
}

func TestIndexedDepthOutOfRangeIsIncompatibleDepth(t *testing.T) {
	h := sha3256.New()
	store := memstore.New(h)
	root := indexed.NullRoot(h, 8)

	for _, depthBytes := range []int{0, -1, 9} {
		if _, err := indexed.NewReader(store, h, root, depthBytes); !errors.Is(err, smt.ErrIncompatibleDepth) {
			t.Errorf("NewReader(depthBytes=%d) error = %v, want ErrIncompatibleDepth", depthBytes, err)
		}
		if _, err := indexed.NewWriter(store, h, &root, depthBytes); !errors.Is(err, smt.ErrIncompatibleDepth) {
			t.Errorf("NewWriter(depthBytes=%d) error = %v, want ErrIncompatibleDepth", depthBytes, err)
		}
	}
}
