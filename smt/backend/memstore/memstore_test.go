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

package memstore_test

import (
	"testing"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/backend/backendtest"
	"github.com/smt-go/sparsemerkle/smt/backend/memstore"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
)

func TestMemstoreConformance(t *testing.T) {
	backendtest.Run(t, func() smt.BackingStore {
		return memstore.New(sha3256.New())
	})
}
