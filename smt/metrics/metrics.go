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

// Package metrics instruments the smt package with Prometheus counters
// and histograms, the way the teacher wraps its own storage and RPC
// layers with github.com/prometheus/client_golang rather than rolling
// ad hoc counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smt-go/sparsemerkle/smt"
)

// Recorder holds the metrics a Reader/Writer/BackingStore wrapper
// reports into. Construct one with NewRecorder and register it with
// whatever prometheus.Registerer the caller's process already uses.
type Recorder struct {
	reads          prometheus.Counter
	inserts        prometheus.Counter
	removes        prometheus.Counter
	commits        prometheus.Counter
	operationTime  *prometheus.HistogramVec
	backendHits    prometheus.Counter
	backendMisses  prometheus.Counter
}

// NewRecorder creates a Recorder with metrics under the given namespace
// and registers them with reg. reg may be prometheus.DefaultRegisterer.
func NewRecorder(namespace string, reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "smt", Name: "reads_total",
			Help: "Number of Reader.Value/Leaf/Proof calls.",
		}),
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "smt", Name: "inserts_total",
			Help: "Number of Writer.Insert calls.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "smt", Name: "removes_total",
			Help: "Number of Writer.Remove calls.",
		}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "smt", Name: "commits_total",
			Help: "Number of Writer.Commit calls.",
		}),
		operationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "smt", Name: "operation_duration_seconds",
			Help:    "Latency of tree operations by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		backendHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "smt_backend", Name: "hits_total",
			Help: "Number of BackingStore.Get calls that found a node.",
		}),
		backendMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "smt_backend", Name: "misses_total",
			Help: "Number of BackingStore.Get calls that found nothing.",
		}),
	}
	reg.MustRegister(r.reads, r.inserts, r.removes, r.commits, r.operationTime, r.backendHits, r.backendMisses)
	return r
}

func (rec *Recorder) timeOp(op string) func() {
	start := time.Now()
	return func() { rec.operationTime.WithLabelValues(op).Observe(time.Since(start).Seconds()) }
}

// Reader wraps a smt.Reader, reporting every call to rec.
type Reader struct {
	inner *smt.Reader
	rec   *Recorder
}

// WrapReader instruments r with rec.
func WrapReader(r *smt.Reader, rec *Recorder) *Reader {
	return &Reader{inner: r, rec: rec}
}

// Root returns the hash this handle is currently reading from.
func (r *Reader) Root() smt.Hash { return r.inner.Root() }

// Value returns the value stored at key.
func (r *Reader) Value(key []byte) ([]byte, error) {
	defer r.rec.timeOp("value")()
	r.rec.reads.Inc()
	return r.inner.Value(key)
}

// Leaf returns the terminal hash at key.
func (r *Reader) Leaf(key []byte) (smt.Hash, error) {
	defer r.rec.timeOp("leaf")()
	r.rec.reads.Inc()
	return r.inner.Leaf(key)
}

// Proof builds an inclusion or absence proof for key.
func (r *Reader) Proof(key []byte) (*smt.Proof, error) {
	defer r.rec.timeOp("proof")()
	r.rec.reads.Inc()
	return r.inner.Proof(key)
}

// Writer wraps a smt.Writer, reporting every call to rec.
type Writer struct {
	inner *smt.Writer
	rec   *Recorder
}

// WrapWriter instruments w with rec.
func WrapWriter(w *smt.Writer, rec *Recorder) *Writer {
	return &Writer{inner: w, rec: rec}
}

// Root returns the hash this handle is currently reading and writing
// through.
func (w *Writer) Root() smt.Hash { return w.inner.Root() }

// Insert stores value under key.
func (w *Writer) Insert(key, value []byte) ([]byte, error) {
	defer w.rec.timeOp("insert")()
	w.rec.inserts.Inc()
	return w.inner.Insert(key, value)
}

// Remove deletes key.
func (w *Writer) Remove(key []byte) ([]byte, error) {
	defer w.rec.timeOp("remove")()
	w.rec.removes.Inc()
	return w.inner.Remove(key)
}

// Commit flushes staged insertions and removals to the backing store.
func (w *Writer) Commit() (inserted int, removed int, err error) {
	defer w.rec.timeOp("commit")()
	w.rec.commits.Inc()
	return w.inner.Commit()
}

// Discard drops staged insertions and removals without touching the
// backing store.
func (w *Writer) Discard() { w.inner.Discard() }

// Store wraps a smt.BackingStore, reporting Get hits and misses to rec.
// Insert/Remove/Contains pass through unmodified: the hit/miss ratio of
// Get is the number that actually matters for cache and backend sizing
// decisions.
type Store struct {
	inner smt.BackingStore
	rec   *Recorder
}

// WrapStore instruments store with rec.
func WrapStore(store smt.BackingStore, rec *Recorder) *Store {
	return &Store{inner: store, rec: rec}
}

// Get implements smt.BackingStore.
func (s *Store) Get(hash smt.Hash) ([]byte, bool, error) {
	encoded, ok, err := s.inner.Get(hash)
	if err == nil {
		if ok {
			s.rec.backendHits.Inc()
		} else {
			s.rec.backendMisses.Inc()
		}
	}
	return encoded, ok, err
}

// Insert implements smt.BackingStore.
func (s *Store) Insert(encoded []byte) (smt.Hash, error) { return s.inner.Insert(encoded) }

// Remove implements smt.BackingStore.
func (s *Store) Remove(hash smt.Hash) error { return s.inner.Remove(hash) }

// Contains implements smt.BackingStore.
func (s *Store) Contains(hash smt.Hash) (bool, error) { return s.inner.Contains(hash) }
