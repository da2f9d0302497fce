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

// maxDepthBytes bounds the tree depth this package will construct a null
// hash cache for. A tree of 1024 bytes (8192 bits) is already far beyond
// any plausible key width; the bound exists to keep a mistaken depth
// argument from allocating an enormous cache rather than to express a
// protocol limit.
const maxDepthBytes = 1024

// Reader is an immutable view onto a sparse Merkle tree rooted at a
// fixed hash. It supports point lookups and proof generation but no
// mutation; see Writer for insert/remove/commit.
type Reader struct {
	store    BackingStore
	hasher   Hasher
	depth    int // bits
	root     Hash
	null     *nullHashCache
	storage  *NodeStorage
	recorder *Recorder
}

// ReaderOption configures NewReader.
type ReaderOption func(*Reader)

// WithRecorder attaches a Recorder that observes every node fetched from
// the backing store during this Reader's lifetime.
func WithRecorder(r *Recorder) ReaderOption {
	return func(rd *Reader) { rd.recorder = r }
}

// WithCacheSize bounds the number of read-only nodes this Reader keeps
// in memory. The default is unbounded.
func WithCacheSize(n int) ReaderOption {
	return func(rd *Reader) {
		rd.storage = NewNodeStorage(rd.store, rd.hasher, n)
	}
}

// NewReader constructs a read-only handle onto the tree of depthBytes*8
// bits rooted at root, backed by store and hashed with hasher. The null
// root (hasher.Hash(nil) iterated depthBytes*8 times, see NullRoot) is
// accepted as the empty tree; any other root is not validated until the
// first traversal touches it.
func NewReader(store BackingStore, hasher Hasher, root Hash, depthBytes int, opts ...ReaderOption) (*Reader, error) {
	if depthBytes <= 0 || depthBytes > maxDepthBytes {
		return nil, ErrIncompatibleDepth
	}
	r := &Reader{
		store:  store,
		hasher: hasher,
		depth:  depthBytes * 8,
		root:   root,
		null:   newNullHashCache(hasher, depthBytes*8),
	}
	r.storage = NewNodeStorage(store, hasher, 0)
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NullRoot returns the root hash of an empty tree of depthBytes bytes
// under hasher: null[0] from the data model.
func NullRoot(hasher Hasher, depthBytes int) Hash {
	return newNullHashCache(hasher, depthBytes*8).root()
}

// Root returns the hash this handle is currently reading from.
func (r *Reader) Root() Hash {
	return r.root
}

// DepthBytes returns the key width this handle requires, in bytes.
func (r *Reader) DepthBytes() int {
	return r.depth / 8
}

func (r *Reader) checkKey(key []byte) (Key, error) {
	return newKey(key, r.depth/8)
}

// descendFrom walks from root to the leaf of key inside storage, calling
// visit at each internal step with the depth (0 = just below the root),
// the bit taken, and the sibling hash at that step. It returns the
// terminal hash at depth D (the leaf's identity, or a null hash if the
// key is absent) and, if the leaf exists, the loaded leaf node.
//
// This is shared between Reader and Writer: both descend a root-to-leaf
// path the same way, differing only in which NodeStorage they read
// through (a Writer's storage holds its own staged, uncommitted nodes
// ahead of anything in the backing store).
func descendFrom(storage *NodeStorage, null *nullHashCache, depth int, recorder *Recorder, root Hash, key Key, visit func(depth int, bit bool, sibling Hash)) (Hash, *node, error) {
	current := root
	for d := 0; d < depth; d++ {
		if null.isNullAt(current, d) {
			if visit != nil {
				for k := d; k < depth; k++ {
					visit(k, key.bit(k), null.at(k+1))
				}
			}
			return null.at(depth), nil, nil
		}

		n, err := storage.load(current, recorder)
		if err != nil {
			return "", nil, err
		}
		if n.kind != kindInner {
			return "", nil, ErrUnexpectedNodeType
		}

		bit := key.bit(d)
		sibling, err := n.childHash(!bit)
		if err != nil {
			return "", nil, err
		}
		if visit != nil {
			visit(d, bit, sibling)
		}
		next, err := n.childHash(bit)
		if err != nil {
			return "", nil, err
		}
		current = next
	}

	if null.isNullAt(current, depth) {
		return current, nil, nil
	}
	leaf, err := storage.load(current, recorder)
	if err != nil {
		return "", nil, err
	}
	if leaf.kind != kindValue {
		return "", nil, ErrUnexpectedNodeType
	}
	return current, &leaf, nil
}

// descend is descendFrom bound to this Reader's storage, null cache, and
// current root.
func (r *Reader) descend(key Key, visit func(depth int, bit bool, sibling Hash)) (Hash, *node, error) {
	return descendFrom(r.storage, r.null, r.depth, r.recorder, r.root, key, visit)
}

// Value returns the value stored at key, or nil if key has never been
// inserted (or was removed and never reinserted).
func (r *Reader) Value(key []byte) ([]byte, error) {
	k, err := r.checkKey(key)
	if err != nil {
		return nil, err
	}
	_, leaf, err := r.descend(k, nil)
	if err != nil {
		return nil, err
	}
	if leaf == nil {
		return nil, nil
	}
	return append([]byte(nil), leaf.value...), nil
}

// Leaf returns the terminal hash at key: the leaf's identity hash if
// present, or the null hash of depth D if absent.
func (r *Reader) Leaf(key []byte) (Hash, error) {
	k, err := r.checkKey(key)
	if err != nil {
		return "", err
	}
	hash, _, err := r.descend(k, nil)
	return hash, err
}

// Proof is an ordered sequence of D sibling hashes, from the root's
// immediate sibling down to the sibling just above the leaf, plus the
// leaf value if the key is present. Its length is always exactly D,
// regardless of whether the key exists; presence is signalled solely by
// whether Value is non-nil.
type Proof struct {
	Siblings []Hash
	Value    []byte // nil for an absence proof
}

// Proof builds an inclusion or absence proof for key against this
// handle's current root.
func (r *Reader) Proof(key []byte) (*Proof, error) {
	k, err := r.checkKey(key)
	if err != nil {
		return nil, err
	}
	siblings := make([]Hash, r.depth)
	_, leaf, err := r.descend(k, func(depth int, bit bool, sibling Hash) {
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

// Verify checks that proof, together with value (nil for an absence
// proof), reconstructs root under hasher for a tree of depthBytes bytes.
// It needs no tree handle: it is a pure function of its arguments.
func Verify(hasher Hasher, depthBytes int, key []byte, value []byte, proof *Proof, root Hash) (bool, error) {
	k, err := newKey(key, depthBytes)
	if err != nil {
		return false, err
	}
	depth := depthBytes * 8
	if len(proof.Siblings) != depth {
		return false, nil
	}

	var h Hash
	if value != nil {
		h = newValueNode(value).identity(hasher)
	} else {
		h = newNullHashCache(hasher, depth).at(depth)
	}

	for i := depth - 1; i >= 0; i-- {
		sibling := proof.Siblings[i]
		var n node
		if k.bit(i) {
			n = newInnerNode(sibling, h)
		} else {
			n = newInnerNode(h, sibling)
		}
		h = n.identity(hasher)
	}

	return h == root, nil
}
