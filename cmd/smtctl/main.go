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

// Command smtctl is a small CLI for exercising a persistent sparse
// Merkle tree from the shell: insert, remove, get, and build/verify
// proofs against a tree backed by an in-memory, bbolt, goleveldb, or SQL
// store.
package main

import "github.com/smt-go/sparsemerkle/cmd/smtctl/cmd"

func main() {
	cmd.Execute()
}
