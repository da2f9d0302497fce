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

package leveldbstore_test

import (
	"path/filepath"
	"testing"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/backend/backendtest"
	"github.com/smt-go/sparsemerkle/smt/backend/leveldbstore"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
)

func TestLeveldbstoreConformance(t *testing.T) {
	n := 0
	backendtest.Run(t, func() smt.BackingStore {
		n++
		path := filepath.Join(t.TempDir(), "smt-leveldbstore-test")
		store, err := leveldbstore.Open(path, sha3256.New())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}
