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

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/backend/memstore"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
	"github.com/smt-go/sparsemerkle/smt/metrics"
)

func TestWrappedWriterAndReaderStillWork(t *testing.T) {
	h := sha3256.New()
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder("smt_test", reg)

	store := metrics.WrapStore(memstore.New(h), rec)
	root := smt.NullRoot(h, 1)

	innerWriter, err := smt.NewWriter(store, h, &root, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w := metrics.WrapWriter(innerWriter, rec)

	if _, err := w.Insert([]byte("\x00"), []byte("flip")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, _, err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	innerReader, err := smt.NewReader(store, h, w.Root(), 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	r := metrics.WrapReader(innerReader, rec)

	got, err := r.Value([]byte("\x00"))
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(got) != "flip" {
		t.Fatalf("Value = %q, want %q", got, "flip")
	}

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(metricFamilies) == 0 {
		t.Fatal("no metrics were registered")
	}
}
