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

// Package indexed wraps smt.Reader/smt.Writer with uint64 keys instead
// of raw byte slices, for trees that are naturally indexed by a counter
// or other integral identifier rather than an opaque hash.
package indexed

import (
	"encoding/binary"

	"github.com/smt-go/sparsemerkle/smt"
)

// maxDepthBytes is the widest an indexed tree can be: a uint64 index
// has no bits left to contribute beyond 8 bytes.
const maxDepthBytes = 8

// checkDepthBytes validates the construction-time depth an indexed tree
// is built with. Anything outside 1..=8 bytes is IncompatibleDepth: too
// wide and the index has no bits to fill the extra levels with, zero or
// negative and there is no tree at all.
func checkDepthBytes(depthBytes int) error {
	if depthBytes < 1 || depthBytes > maxDepthBytes {
		return smt.ErrIncompatibleDepth
	}
	return nil
}

// toKey big-endian-encodes the low depthBytes bytes of index into the
// key a tree of that depth expects. Big-endian is required, not just
// conventional: it is what makes numerically adjacent indices share the
// longest possible prefix of tree bits, the same locality property a
// byte-string key gets for free from lexicographic ordering. A
// depthBytes narrower than 8 simply drops the index's high bytes, the
// same way a narrower uint truncates a wider one.
func toKey(index uint64, depthBytes int) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], index)
	return buf[8-depthBytes:]
}

// Reader is a uint64-indexed read-only view onto a sparse Merkle tree of
// depthBytes*8 bits.
type Reader struct {
	inner      *smt.Reader
	depthBytes int
}

// NewReader wraps store/hasher/root as an indexed Reader over a tree
// depthBytes bytes deep (1..=8). Any other depth is IncompatibleDepth.
func NewReader(store smt.BackingStore, hasher smt.Hasher, root smt.Hash, depthBytes int, opts ...smt.ReaderOption) (*Reader, error) {
	if err := checkDepthBytes(depthBytes); err != nil {
		return nil, err
	}
	inner, err := smt.NewReader(store, hasher, root, depthBytes, opts...)
	if err != nil {
		return nil, err
	}
	return &Reader{inner: inner, depthBytes: depthBytes}, nil
}

// Root returns the hash this handle is currently reading from.
func (r *Reader) Root() smt.Hash {
	return r.inner.Root()
}

// Value returns the value stored at index, or nil if it was never
// inserted (or was removed and never reinserted).
func (r *Reader) Value(index uint64) ([]byte, error) {
	return r.inner.Value(toKey(index, r.depthBytes))
}

// Leaf returns the terminal hash at index.
func (r *Reader) Leaf(index uint64) (smt.Hash, error) {
	return r.inner.Leaf(toKey(index, r.depthBytes))
}

// Proof builds an inclusion or absence proof for index.
func (r *Reader) Proof(index uint64) (*smt.Proof, error) {
	return r.inner.Proof(toKey(index, r.depthBytes))
}

// Writer is a uint64-indexed mutable handle onto a sparse Merkle tree of
// depthBytes*8 bits.
type Writer struct {
	inner      *smt.Writer
	depthBytes int
}

// NewWriter wraps store/hasher/root as an indexed Writer over a tree
// depthBytes bytes deep (1..=8). Any other depth is IncompatibleDepth.
func NewWriter(store smt.BackingStore, hasher smt.Hasher, root *smt.Hash, depthBytes int, opts ...smt.WriterOption) (*Writer, error) {
	if err := checkDepthBytes(depthBytes); err != nil {
		return nil, err
	}
	inner, err := smt.NewWriter(store, hasher, root, depthBytes, opts...)
	if err != nil {
		return nil, err
	}
	return &Writer{inner: inner, depthBytes: depthBytes}, nil
}

// Root returns the hash this handle is currently reading and writing
// through.
func (w *Writer) Root() smt.Hash {
	return w.inner.Root()
}

// Value returns the value stored at index, including any insertion or
// removal staged on this Writer but not yet committed.
func (w *Writer) Value(index uint64) ([]byte, error) {
	return w.inner.Value(toKey(index, w.depthBytes))
}

// Leaf returns the terminal hash at index, including any staged but
// uncommitted mutation.
func (w *Writer) Leaf(index uint64) (smt.Hash, error) {
	return w.inner.Leaf(toKey(index, w.depthBytes))
}

// Proof builds an inclusion or absence proof for index against this
// Writer's current root, which may include staged but uncommitted
// mutations.
func (w *Writer) Proof(index uint64) (*smt.Proof, error) {
	return w.inner.Proof(toKey(index, w.depthBytes))
}

// Insert stores value at index, returning the value previously stored
// there.
func (w *Writer) Insert(index uint64, value []byte) ([]byte, error) {
	return w.inner.Insert(toKey(index, w.depthBytes), value)
}

// Remove deletes index, returning the value that was stored there.
func (w *Writer) Remove(index uint64) ([]byte, error) {
	return w.inner.Remove(toKey(index, w.depthBytes))
}

// Commit flushes staged insertions and removals to the backing store.
func (w *Writer) Commit() (inserted int, removed int, err error) {
	return w.inner.Commit()
}

// Discard drops staged insertions and removals without touching the
// backing store.
func (w *Writer) Discard() {
	w.inner.Discard()
}

// Verify checks proof against root for index/value on a tree depthBytes
// bytes deep (1..=8). It needs no tree handle.
func Verify(hasher smt.Hasher, depthBytes int, index uint64, value []byte, proof *smt.Proof, root smt.Hash) (bool, error) {
	if err := checkDepthBytes(depthBytes); err != nil {
		return false, err
	}
	return smt.Verify(hasher, depthBytes, toKey(index, depthBytes), value, proof, root)
}

// NullRoot returns the root hash of an empty tree depthBytes bytes deep
// (1..=8) under hasher.
func NullRoot(hasher smt.Hasher, depthBytes int) smt.Hash {
	return smt.NullRoot(hasher, depthBytes)
}
