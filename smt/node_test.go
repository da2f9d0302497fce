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
	"bytes"
	"testing"
)

func TestNodeIdentityLeaf(t *testing.T) {
	h := testHasher{}
	n := newValueNode([]byte("hello"))
	got := n.identity(h)
	want := h.Hash([]byte("hello"))
	if got != want {
		t.Fatalf("identity() = %x, want %x", got.Bytes(), want.Bytes())
	}
}

func TestNodeIdentityInner(t *testing.T) {
	h := testHasher{}
	left := h.Hash([]byte("left"))
	right := h.Hash([]byte("right"))
	n := newInnerNode(left, right)

	got := n.identity(h)
	want := h.Hash(append(append([]byte{}, left.Bytes()...), right.Bytes()...))
	if got != want {
		t.Fatalf("identity() = %x, want %x", got.Bytes(), want.Bytes())
	}
}

func TestNodeEncodeDecodeRoundTrip(t *testing.T) {
	h := testHasher{}

	leaf := newValueNode([]byte("payload"))
	decodedLeaf, err := decodeNode(leaf.encode(), h.Size())
	if err != nil {
		t.Fatalf("decodeNode(leaf): %v", err)
	}
	if decodedLeaf.kind != kindValue || !bytes.Equal(decodedLeaf.value, leaf.value) {
		t.Fatalf("decoded leaf = %+v, want value %q", decodedLeaf, leaf.value)
	}

	inner := newInnerNode(h.Hash([]byte("a")), h.Hash([]byte("b")))
	decodedInner, err := decodeNode(inner.encode(), h.Size())
	if err != nil {
		t.Fatalf("decodeNode(inner): %v", err)
	}
	if decodedInner.kind != kindInner || decodedInner.left != inner.left || decodedInner.right != inner.right {
		t.Fatalf("decoded inner = %+v, want %+v", decodedInner, inner)
	}
}

func TestNodeEncodeSkipTagMatchesPayload(t *testing.T) {
	h := testHasher{}
	n := newInnerNode(h.Hash([]byte("x")), h.Hash([]byte("y")))
	encoded := n.encode()
	if !bytes.Equal(encoded[1:], n.payload()) {
		t.Fatalf("encode()[1:] = %x, want payload() = %x", encoded[1:], n.payload())
	}
	if h.Hash(encoded[1:]) != n.identity(h) {
		t.Fatalf("hash(encode()[1:]) does not match identity(): a backing store recomputing a node's key from its stored bytes would disagree with the tree")
	}
}

func TestDecodeNodeRejectsBadTag(t *testing.T) {
	if _, err := decodeNode([]byte{0xff, 1, 2, 3}, 32); err == nil {
		t.Fatal("decodeNode with unknown tag: want error, got nil")
	}
}

func TestDecodeNodeRejectsEmpty(t *testing.T) {
	if _, err := decodeNode(nil, 32); err == nil {
		t.Fatal("decodeNode(nil): want error, got nil")
	}
}

func TestDecodeNodeRejectsWrongInnerLength(t *testing.T) {
	buf := []byte{tagInner, 1, 2, 3}
	if _, err := decodeNode(buf, 32); err == nil {
		t.Fatal("decodeNode with truncated inner payload: want error, got nil")
	}
}

func TestNodeChildHashAndWithChild(t *testing.T) {
	h := testHasher{}
	left := h.Hash([]byte("l"))
	right := h.Hash([]byte("r"))
	n := newInnerNode(left, right)

	if got, _ := n.childHash(false); got != left {
		t.Fatalf("childHash(false) = %x, want %x", got.Bytes(), left.Bytes())
	}
	if got, _ := n.childHash(true); got != right {
		t.Fatalf("childHash(true) = %x, want %x", got.Bytes(), right.Bytes())
	}

	replaced := n.withChild(true, h.Hash([]byte("new-right")))
	if replaced.left != left {
		t.Fatalf("withChild mutated the untouched side")
	}
	if replaced.right == right {
		t.Fatalf("withChild did not replace the targeted side")
	}

	if _, err := newValueNode([]byte("v")).childHash(false); err == nil {
		t.Fatal("childHash on a Value node: want error, got nil")
	}
}
