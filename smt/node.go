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

const (
	tagValue byte = 0x00
	tagInner byte = 0x01
)

// nodeKind distinguishes the two materialized node shapes. The third
// shape the data model describes, Null, is never materialized: it is
// represented purely by the per-depth value in a nullHashCache.
type nodeKind int

const (
	kindValue nodeKind = iota
	kindInner
)

// node is a tagged union over the two materialized node shapes: a Value
// leaf carrying a byte payload, or an Inner node carrying its two
// children's hashes.
type node struct {
	kind  nodeKind
	value []byte // valid when kind == kindValue
	left  Hash   // valid when kind == kindInner
	right Hash   // valid when kind == kindInner
}

func newValueNode(value []byte) node {
	return node{kind: kindValue, value: value}
}

func newInnerNode(left, right Hash) node {
	return node{kind: kindInner, left: left, right: right}
}

// identity computes the content hash that names this node: hash(value)
// for a leaf, hash(left||right) for an inner node. This is the hash that
// appears as a parent's child pointer and as a leaf of a proof, and it is
// computed the same way whether or not the node has ever touched the
// backing store.
func (n node) identity(h Hasher) Hash {
	switch n.kind {
	case kindValue:
		return h.Hash(n.value)
	case kindInner:
		buf := make([]byte, 0, len(n.left)+len(n.right))
		buf = append(buf, n.left.Bytes()...)
		buf = append(buf, n.right.Bytes()...)
		return h.Hash(buf)
	default:
		panic("smt: invalid node kind")
	}
}

// encode serializes n to the backend's value-byte representation: a tag
// byte followed by the payload. This is purely a storage-layer framing;
// the identity hash above never hashes the tag, only the payload, which
// is what lets a backing store recompute a node's own key from its
// stored bytes (see decodeNode and the hash-skip-the-tag convention used
// by Insert).
func (n node) encode() []byte {
	switch n.kind {
	case kindValue:
		buf := make([]byte, 1+len(n.value))
		buf[0] = tagValue
		copy(buf[1:], n.value)
		return buf
	case kindInner:
		buf := make([]byte, 1+len(n.left)+len(n.right))
		buf[0] = tagInner
		copy(buf[1:], n.left.Bytes())
		copy(buf[1+len(n.left):], n.right.Bytes())
		return buf
	default:
		panic("smt: invalid node kind")
	}
}

// decodeNode parses the backend's value-byte representation of a node.
// hashSize is the hasher's fixed output width, used to validate the
// length of an Inner node's payload.
func decodeNode(encoded []byte, hashSize int) (node, error) {
	if len(encoded) == 0 {
		return node{}, ErrCorruptedNode
	}
	switch encoded[0] {
	case tagValue:
		return newValueNode(append([]byte(nil), encoded[1:]...)), nil
	case tagInner:
		if len(encoded) != 1+2*hashSize {
			return node{}, ErrCorruptedNode
		}
		left := HashFromBytes(encoded[1 : 1+hashSize])
		right := HashFromBytes(encoded[1+hashSize:])
		return newInnerNode(left, right), nil
	default:
		return node{}, ErrCorruptedNode
	}
}

// payload returns the bytes that were hashed to produce this node's
// identity hash: the raw value for a leaf, or left||right for an inner
// node. It is exactly encode()[1:].
func (n node) payload() []byte {
	switch n.kind {
	case kindValue:
		return n.value
	case kindInner:
		buf := make([]byte, 0, len(n.left)+len(n.right))
		buf = append(buf, n.left.Bytes()...)
		buf = append(buf, n.right.Bytes()...)
		return buf
	default:
		panic("smt: invalid node kind")
	}
}

// childHash returns the hash of the child selected by bit (false = left,
// true = right). It fails with ErrUnexpectedNodeType if n is not an
// Inner node.
func (n node) childHash(bit bool) (Hash, error) {
	if n.kind != kindInner {
		return "", ErrUnexpectedNodeType
	}
	if bit {
		return n.right, nil
	}
	return n.left, nil
}

// withChild returns a copy of n (which must be Inner) with the child
// selected by bit replaced by newChild.
func (n node) withChild(bit bool, newChild Hash) node {
	out := n
	if bit {
		out.right = newChild
	} else {
		out.left = newChild
	}
	return out
}
