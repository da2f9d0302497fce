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

import "sync"

// Recorder is an append-only, deduplicated collection of every node the
// backing store served during its attached lifetime. It is built by
// attaching it to a Reader or Writer at construction time; the tree
// handle then calls record on every NodeStorage load that actually
// reaches the backing store (a hit against the pending set or the
// Unchanged cache is not a store fetch and is not recorded).
//
// A Recorder is normally owned by the handle it is attached to. Recording
// and draining are guarded by the mutex below, so several read-only
// handles may share one Recorder.
type Recorder struct {
	mu    sync.Mutex
	nodes map[Hash][]byte
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{nodes: make(map[Hash][]byte)}
}

func (r *Recorder) record(hash Hash, encoded []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[hash]; ok {
		return
	}
	r.nodes[hash] = append([]byte(nil), encoded...)
}

// DrainStorageProof consumes the recorder's observations and returns
// them as a StorageProof. The recorder is empty after this call.
func (r *Recorder) DrainStorageProof() *StorageProof {
	r.mu.Lock()
	defer r.mu.Unlock()
	nodes := make([][]byte, 0, len(r.nodes))
	for _, encoded := range r.nodes {
		nodes = append(nodes, encoded)
	}
	r.nodes = make(map[Hash][]byte)
	return &StorageProof{nodes: nodes}
}

// ToStorageProof returns the recorder's current observations as a
// StorageProof without draining them.
func (r *Recorder) ToStorageProof() *StorageProof {
	r.mu.Lock()
	defer r.mu.Unlock()
	nodes := make([][]byte, 0, len(r.nodes))
	for _, encoded := range r.nodes {
		nodes = append(nodes, encoded)
	}
	return &StorageProof{nodes: nodes}
}
