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

// Package sqlstore is a smt.BackingStore over a SQL table, usable with
// any database/sql driver that speaks "?" placeholders — its tests run
// against github.com/mattn/go-sqlite3, and cmd/smtctl also registers
// github.com/go-sql-driver/mysql, mirroring the two engines the
// teacher's tree/sparse/sqlhist package itself targets.
package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/smt-go/sparsemerkle/smt"
)

const (
	createTableExpr = `
	CREATE TABLE IF NOT EXISTS smt_nodes (
		hash     VARBINARY(64) PRIMARY KEY,
		encoded  BLOB NOT NULL,
		refcount INTEGER NOT NULL
	);`
	getExpr        = `SELECT encoded FROM smt_nodes WHERE hash = ?;`
	containsExpr   = `SELECT 1 FROM smt_nodes WHERE hash = ?;`
	insertNewExpr  = `INSERT INTO smt_nodes (hash, encoded, refcount) VALUES (?, ?, 1);`
	bumpRefExpr    = `UPDATE smt_nodes SET refcount = refcount + 1 WHERE hash = ?;`
	getRefExpr     = `SELECT refcount FROM smt_nodes WHERE hash = ?;`
	dropRefExpr    = `UPDATE smt_nodes SET refcount = refcount - 1 WHERE hash = ?;`
	deleteZeroExpr = `DELETE FROM smt_nodes WHERE hash = ? AND refcount <= 0;`
)

// Store is a smt.BackingStore backed by a SQL table. It creates its
// table on first use if the table does not already exist.
type Store struct {
	db     *sql.DB
	hasher smt.Hasher
	table  string
}

// Open prepares a Store over db, creating the backing table if it is
// not already present. The CREATE TABLE statement runs on db right
// away, so db must be able to reach its database when Open is called.
func Open(db *sql.DB, hasher smt.Hasher) (*Store, error) {
	s := &Store{db: db, hasher: hasher, table: "smt_nodes"}
	if _, err := db.Exec(createTableExpr); err != nil {
		return nil, fmt.Errorf("sqlstore: creating table: %w", err)
	}
	return s, nil
}

// Get implements smt.BackingStore.
func (s *Store) Get(hash smt.Hash) ([]byte, bool, error) {
	var encoded []byte
	err := s.db.QueryRow(getExpr, hash.Bytes()).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlstore: get: %w", err)
	}
	return encoded, true, nil
}

// Contains implements smt.BackingStore.
func (s *Store) Contains(hash smt.Hash) (bool, error) {
	var one int
	err := s.db.QueryRow(containsExpr, hash.Bytes()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlstore: contains: %w", err)
	}
	return true, nil
}

// Insert implements smt.BackingStore, running the existence check and
// the insert-or-bump as one transaction so two concurrent inserts of the
// same node cannot both believe they created the row.
func (s *Store) Insert(encoded []byte) (smt.Hash, error) {
	if len(encoded) == 0 {
		return "", smt.ErrCorruptedNode
	}
	hash := s.hasher.Hash(encoded[1:])
	if hash == s.hasher.Hash(nil) {
		return hash, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("sqlstore: insert: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRow(containsExpr, hash.Bytes()).Scan(&existing)
	switch err {
	case nil:
		if _, err := tx.Exec(bumpRefExpr, hash.Bytes()); err != nil {
			return "", fmt.Errorf("sqlstore: insert: bump refcount: %w", err)
		}
	case sql.ErrNoRows:
		if _, err := tx.Exec(insertNewExpr, hash.Bytes(), encoded); err != nil {
			return "", fmt.Errorf("sqlstore: insert: %w", err)
		}
	default:
		return "", fmt.Errorf("sqlstore: insert: checking existing row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlstore: insert: commit: %w", err)
	}
	return hash, nil
}

// Remove implements smt.BackingStore.
func (s *Store) Remove(hash smt.Hash) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlstore: remove: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(dropRefExpr, hash.Bytes()); err != nil {
		return fmt.Errorf("sqlstore: remove: %w", err)
	}
	res, err := tx.Exec(deleteZeroExpr, hash.Bytes())
	if err != nil {
		return fmt.Errorf("sqlstore: remove: cleanup: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		glog.V(2).Infof("sqlstore: remove(%x): refcount decremented, row still live", hash.Bytes())
	}

	return tx.Commit()
}
