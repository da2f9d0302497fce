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

// Package backendtest is a conformance suite any smt.BackingStore
// implementation can run against itself. It exercises the same
// properties the core package's own test suite states for the
// BackingStore capability (refcounting, the null-leaf sentinel never
// being stored, round-tripping encoded bytes), independent of which
// concrete backend is under test.
package backendtest

import (
	"testing"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
)

// Run executes the conformance suite against a fresh store returned by
// newStore for each subtest. The suite hashes with sha3256, so newStore
// must construct its store with a sha3256 Hasher.
func Run(t *testing.T, newStore func() smt.BackingStore) {
	t.Run("InsertThenGetRoundTrips", func(t *testing.T) {
		testInsertThenGet(t, newStore())
	})
	t.Run("RemoveAbsentIsNoop", func(t *testing.T) {
		testRemoveAbsentIsNoop(t, newStore())
	})
	t.Run("RefcountSurvivesDuplicateInsert", func(t *testing.T) {
		testRefcountSurvivesDuplicateInsert(t, newStore())
	})
	t.Run("ContainsReflectsLifecycle", func(t *testing.T) {
		testContainsReflectsLifecycle(t, newStore())
	})
	t.Run("NullLeafNeverStored", func(t *testing.T) {
		testNullLeafNeverStored(t, newStore())
	})
	t.Run("TreeEndToEnd", func(t *testing.T) {
		testTreeEndToEnd(t, newStore())
	})
}

func leafBytes(value string) []byte {
	return append([]byte{0x00}, []byte(value)...)
}

func testInsertThenGet(t *testing.T, store smt.BackingStore) {
	hash, err := store.Insert(leafBytes("hello"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, ok, err := store.Get(hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get after Insert: ok = false, want true")
	}
	if string(got) != string(leafBytes("hello")) {
		t.Fatalf("Get = %q, want %q", got, leafBytes("hello"))
	}
}

func testRemoveAbsentIsNoop(t *testing.T, store smt.BackingStore) {
	if err := store.Remove(smt.HashFromBytes([]byte("never inserted"))); err != nil {
		t.Fatalf("Remove(absent): %v", err)
	}
}

func testRefcountSurvivesDuplicateInsert(t *testing.T, store smt.BackingStore) {
	h1, err := store.Insert(leafBytes("shared"))
	if err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	h2, err := store.Insert(leafBytes("shared"))
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("two inserts of identical content produced different hashes: %x != %x", h1.Bytes(), h2.Bytes())
	}

	if err := store.Remove(h1); err != nil {
		t.Fatalf("first Remove: %v", err)
	}
	if _, ok, err := store.Get(h1); err != nil || !ok {
		t.Fatalf("Get after one of two Removes: ok=%v err=%v, want ok=true (refcount should still be 1)", ok, err)
	}
	if err := store.Remove(h1); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if _, ok, err := store.Get(h1); err != nil || ok {
		t.Fatalf("Get after matching Removes: ok=%v err=%v, want ok=false", ok, err)
	}
}

func testContainsReflectsLifecycle(t *testing.T, store smt.BackingStore) {
	hash, err := store.Insert(leafBytes("present"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if ok, err := store.Contains(hash); err != nil || !ok {
		t.Fatalf("Contains after Insert: ok=%v err=%v, want true", ok, err)
	}
	if err := store.Remove(hash); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, err := store.Contains(hash); err != nil || ok {
		t.Fatalf("Contains after Remove: ok=%v err=%v, want false", ok, err)
	}
}

func testNullLeafNeverStored(t *testing.T, store smt.BackingStore) {
	h := sha3256.New()
	hash, err := store.Insert(leafBytes(""))
	if err != nil {
		t.Fatalf("Insert(empty leaf): %v", err)
	}
	if hash != h.Hash(nil) {
		t.Fatalf("Insert(empty leaf) = %x, want hash(nil) = %x", hash.Bytes(), h.Hash(nil).Bytes())
	}
	if ok, err := store.Contains(hash); err != nil || ok {
		t.Fatalf("Contains(null-leaf sentinel) = %v, %v, want false, nil", ok, err)
	}
}

func testTreeEndToEnd(t *testing.T, store smt.BackingStore) {
	h := sha3256.New()
	root := smt.NullRoot(h, 1)

	w, err := smt.NewWriter(store, h, &root, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, kv := range []struct{ k, v string }{
		{"\x00", "flip"}, {"\x02", "flop"}, {"\x08", "flap"},
	} {
		if _, err := w.Insert([]byte(kv.k), []byte(kv.v)); err != nil {
			t.Fatalf("Insert(%q): %v", kv.k, err)
		}
	}
	if _, _, err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := smt.NewReader(store, h, root, 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.Value([]byte("\x08"))
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(got) != "flap" {
		t.Fatalf("Value(0x08) = %q, want %q", got, "flap")
	}
}
