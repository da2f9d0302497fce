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

// Writer is a mutable handle onto a sparse Merkle tree. Unlike Reader, a
// Writer owns the authoritative root: every Insert and Remove updates
// *root in place, so a caller that holds the same pointer across several
// operations observes each one's effect immediately, before Commit is
// ever called. Commit only decides what happens to the BackingStore; it
// never changes the root, because the root is already current.
type Writer struct {
	store    BackingStore
	hasher   Hasher
	depth    int // bits
	root     *Hash
	null     *nullHashCache
	storage  *NodeStorage
	recorder *Recorder
}

// WriterOption configures NewWriter.
type WriterOption func(*Writer)

// WithWriterRecorder attaches a Recorder that observes every node fetched
// from the backing store during this Writer's lifetime.
func WithWriterRecorder(r *Recorder) WriterOption {
	return func(w *Writer) { w.recorder = r }
}

// WithWriterCacheSize bounds the number of read-only nodes this Writer
// keeps in memory between commits. The default is unbounded.
func WithWriterCacheSize(n int) WriterOption {
	return func(w *Writer) {
		w.storage = NewNodeStorage(w.store, w.hasher, n)
	}
}

// NewWriter constructs a mutable handle onto the tree of depthBytes*8
// bits whose root is *root, backed by store and hashed with hasher. The
// caller retains ownership of root; Insert and Remove write through it.
func NewWriter(store BackingStore, hasher Hasher, root *Hash, depthBytes int, opts ...WriterOption) (*Writer, error) {
	if depthBytes <= 0 || depthBytes > maxDepthBytes {
		return nil, ErrIncompatibleDepth
	}
	w := &Writer{
		store:  store,
		hasher: hasher,
		depth:  depthBytes * 8,
		root:   root,
		null:   newNullHashCache(hasher, depthBytes*8),
	}
	w.storage = NewNodeStorage(store, hasher, 0)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the hash this handle is currently reading and writing
// through.
func (w *Writer) Root() Hash {
	return *w.root
}

// DepthBytes returns the key width this handle requires, in bytes.
func (w *Writer) DepthBytes() int {
	return w.depth / 8
}

func (w *Writer) checkKey(key []byte) (Key, error) {
	return newKey(key, w.depth/8)
}

// descend is descendFrom bound to this Writer's storage, null cache, and
// current root. Because w.storage is the same NodeStorage Insert and
// Remove stage their pending nodes into, a descend issued here sees
// those staged nodes before Commit ever reaches the backing store: a
// Writer observes its own uncommitted writes.
func (w *Writer) descend(key Key, visit func(depth int, bit bool, sibling Hash)) (Hash, *node, error) {
	return descendFrom(w.storage, w.null, w.depth, w.recorder, *w.root, key, visit)
}

// Value returns the value stored at key, or nil if key has never been
// inserted (or was removed and never reinserted), including any
// insertion or removal staged on this Writer but not yet committed.
func (w *Writer) Value(key []byte) ([]byte, error) {
	k, err := w.checkKey(key)
	if err != nil {
		return nil, err
	}
	_, leaf, err := w.descend(k, nil)
	if err != nil {
		return nil, err
	}
	if leaf == nil {
		return nil, nil
	}
	return append([]byte(nil), leaf.value...), nil
}

// Leaf returns the terminal hash at key: the leaf's identity hash if
// present, or the null hash of depth D if absent. Like Value, this sees
// this Writer's own staged but uncommitted mutations.
func (w *Writer) Leaf(key []byte) (Hash, error) {
	k, err := w.checkKey(key)
	if err != nil {
		return "", err
	}
	hash, _, err := w.descend(k, nil)
	return hash, err
}

// Proof builds an inclusion or absence proof for key against this
// Writer's current root, which may include staged but uncommitted
// mutations.
func (w *Writer) Proof(key []byte) (*Proof, error) {
	k, err := w.checkKey(key)
	if err != nil {
		return nil, err
	}
	siblings := make([]Hash, w.depth)
	_, leaf, err := w.descend(k, func(depth int, bit bool, sibling Hash) {
		siblings[depth] = sibling
	})
	if err != nil {
		return nil, err
	}
	p := &Proof{Siblings: siblings}
	if leaf != nil {
		p.Value = append([]byte(nil), leaf.value...)
	}
	return p, nil
}

// pathStep records one step of a root-to-leaf descent: which ancestor
// node sat at this depth (if any — a virtual step has none), which way
// the key's bit went, and the hash of the sibling not taken. The sibling
// hash never changes across a single insert/remove, since only the path
// actually descended is touched.
type pathStep struct {
	parent     Hash
	wasVirtual bool
	bit        bool
	sibling    Hash
}

// descendForMutation walks from the root to key's leaf level, returning
// one pathStep per depth and the leaf's current terminal hash (a null
// hash if key is absent).
func (w *Writer) descendForMutation(key Key) ([]pathStep, Hash, error) {
	steps := make([]pathStep, w.depth)
	current := *w.root

	for depth := 0; depth < w.depth; depth++ {
		bit := key.bit(depth)
		if w.null.isNullAt(current, depth) {
			steps[depth] = pathStep{wasVirtual: true, bit: bit, sibling: w.null.at(depth + 1)}
			current = w.null.at(depth + 1)
			continue
		}

		n, err := w.storage.load(current, w.recorder)
		if err != nil {
			return nil, "", err
		}
		if n.kind != kindInner {
			return nil, "", ErrUnexpectedNodeType
		}
		sibling, err := n.childHash(!bit)
		if err != nil {
			return nil, "", err
		}
		next, err := n.childHash(bit)
		if err != nil {
			return nil, "", err
		}
		steps[depth] = pathStep{parent: current, wasVirtual: false, bit: bit, sibling: sibling}
		current = next
	}

	return steps, current, nil
}

// ascend rebuilds every ancestor on the path from the leaf back to the
// root, given the leaf's new terminal hash. At each level it applies the
// null-collapse rule: an Inner node whose two children are both the null
// hash of that level is itself never materialized, only represented by
// the corresponding null hash one level up. Any materialized ancestor
// the old path held is staged for removal; any materialized ancestor the
// new path needs is staged for insertion. Both staging calls are no-ops
// when their target is the null-leaf sentinel or was never materialized,
// so this one loop serves both Insert and Remove without a mode flag.
func (w *Writer) ascend(steps []pathStep, leaf Hash) Hash {
	h := leaf
	for k := w.depth - 1; k >= 0; k-- {
		step := steps[k]

		var left, right Hash
		if step.bit {
			left, right = step.sibling, h
		} else {
			left, right = h, step.sibling
		}

		if w.null.isNullAt(left, k+1) && w.null.isNullAt(right, k+1) {
			h = w.null.at(k)
		} else {
			h = w.storage.stageInsert(newInnerNode(left, right))
		}

		if !step.wasVirtual {
			w.storage.stageRemove(step.parent)
		}
	}
	return h
}

// Insert stores value under key, returning the value previously stored
// there (nil if key was absent). Inserting the same value a key already
// holds is a no-op: the leaf's identity hash is unchanged, so nothing is
// staged and the root is left exactly as it was. Inserting an empty
// value behaves exactly like Remove, since the empty value's identity
// hash is indistinguishable from an absent leaf (see NodeStorage's
// null-leaf short circuit) — callers that mean "delete" should still
// prefer Remove for clarity.
func (w *Writer) Insert(key, value []byte) ([]byte, error) {
	k, err := w.checkKey(key)
	if err != nil {
		return nil, err
	}

	steps, oldLeafHash, err := w.descendForMutation(k)
	if err != nil {
		return nil, err
	}

	var oldValue []byte
	if !w.null.isNullAt(oldLeafHash, w.depth) {
		old, err := w.storage.load(oldLeafHash, w.recorder)
		if err != nil {
			return nil, err
		}
		oldValue = append([]byte(nil), old.value...)
	}

	newLeaf := newValueNode(value)
	newLeafHash := newLeaf.identity(w.hasher)

	if newLeafHash == oldLeafHash {
		return oldValue, nil
	}

	w.storage.stageInsert(newLeaf)
	if !w.null.isNullAt(oldLeafHash, w.depth) {
		w.storage.stageRemove(oldLeafHash)
	}

	*w.root = w.ascend(steps, newLeafHash)
	return oldValue, nil
}

// Remove deletes key, returning the value that was stored there (nil if
// key was already absent, in which case this is a no-op). Deleting a
// leaf whose sibling subtree is also empty propagates the null-collapse
// rule up the tree: every ancestor that becomes wholly empty as a result
// is itself forgotten rather than rewritten as an explicit empty node.
func (w *Writer) Remove(key []byte) ([]byte, error) {
	k, err := w.checkKey(key)
	if err != nil {
		return nil, err
	}

	steps, oldLeafHash, err := w.descendForMutation(k)
	if err != nil {
		return nil, err
	}
	if w.null.isNullAt(oldLeafHash, w.depth) {
		return nil, nil
	}

	old, err := w.storage.load(oldLeafHash, w.recorder)
	if err != nil {
		return nil, err
	}
	oldValue := append([]byte(nil), old.value...)

	w.storage.stageRemove(oldLeafHash)
	newLeafHash := w.null.at(w.depth)
	*w.root = w.ascend(steps, newLeafHash)
	return oldValue, nil
}

// Commit flushes every staged insertion and removal accumulated since
// the last Commit (or Discard) to the backing store and returns the
// number of nodes inserted and removed. The root itself needs no update
// here: Insert and Remove already wrote it through, so by the time
// Commit runs, *root names a tree whose shape is fully described by the
// nodes this call is about to persist.
func (w *Writer) Commit() (inserted int, removed int, err error) {
	ins, rem := w.storage.drainPending()

	for _, n := range ins {
		if _, err := w.store.Insert(n.encode()); err != nil {
			return inserted, removed, err
		}
		inserted++
	}
	for _, hash := range rem {
		if err := w.store.Remove(hash); err != nil {
			return inserted, removed, err
		}
		removed++
	}
	return inserted, removed, nil
}

// Discard drops every staged insertion and removal accumulated since the
// last Commit without touching the backing store or the root. Since
// Insert/Remove already wrote the new root through *w.root, Discard
// leaves the root pointing at a shape whose nodes were never persisted;
// callers that want a true rollback must also restore *root themselves
// from a value they saved before mutating.
func (w *Writer) Discard() {
	w.storage.discard()
}
