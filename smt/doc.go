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

// Package smt implements a persistent sparse Merkle tree: a fixed-depth
// binary authenticated key-value store in which only the nodes touched by
// an insert or remove are ever materialized. Every other subtree of a
// given depth collapses to a precomputed "null" hash, which is what makes
// trees of depth 64 (and beyond) tractable despite never holding more than
// a handful of nodes in memory or storage.
//
// A Reader gives read-only access to a tree rooted at a given Hash. A
// Writer additionally stages inserts and removes in memory and applies
// them to the backing store on Commit. Both are built on top of a
// BackingStore capability (a content-addressed, reference-counted
// key-value store) and a Hasher capability; neither is implemented by this
// package. Concrete backends live under smt/backend/..., and concrete
// hashers under smt/hash/....
package smt
