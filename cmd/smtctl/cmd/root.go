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

package cmd

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smt-go/sparsemerkle/smt"
	"github.com/smt-go/sparsemerkle/smt/backend/boltstore"
	"github.com/smt-go/sparsemerkle/smt/backend/leveldbstore"
	"github.com/smt-go/sparsemerkle/smt/backend/memstore"
	"github.com/smt-go/sparsemerkle/smt/backend/sqlstore"
	"github.com/smt-go/sparsemerkle/smt/hash/sha3256"
)

var cfgFile string

// RootCmd is the base command when smtctl is called without a subcommand.
var RootCmd = &cobra.Command{
	Use:   "smtctl",
	Short: "Inspect and mutate a persistent sparse Merkle tree",
	Long: `smtctl is a small demonstration client for this repository's
sparse Merkle tree: it opens a tree against a chosen backend, runs one
operation, persists the resulting root, and exits.`,
	SilenceUsage: true,
}

// Execute runs RootCmd. It is called once from main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.smtctl.yaml)")
	RootCmd.PersistentFlags().String("backend", "mem", "backing store: mem, sql, bolt, or leveldb")
	RootCmd.PersistentFlags().String("data-dir", ".smtctl", "directory holding the root file and any file-backed store")
	RootCmd.PersistentFlags().Int("depth", 1, "key width in bytes")
	RootCmd.PersistentFlags().String("sql-driver", "sqlite3", "database/sql driver name when --backend=sql: sqlite3 or mysql")
	RootCmd.PersistentFlags().String("sql-dsn", "", "data source name when --backend=sql (default: a sqlite3 file under --data-dir)")

	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.AutomaticEnv()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		_ = viper.ReadInConfig()
	} else {
		viper.SetConfigName(".smtctl")
		viper.AddConfigPath("$HOME")
		_ = viper.ReadInConfig()
	}
}

func hasher() smt.Hasher {
	return sha3256.New()
}

func depthBytes() int {
	return viper.GetInt("depth")
}

func dataDir() (string, error) {
	dir := viper.GetString("data-dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return dir, nil
}

// openBackend opens the backing store named by --backend. The returned
// close func must be called once the caller is done with the store;
// it is a no-op for backends with nothing to close.
func openBackend() (smt.BackingStore, func(), error) {
	dir, err := dataDir()
	if err != nil {
		return nil, nil, err
	}
	h := hasher()

	switch viper.GetString("backend") {
	case "mem":
		return memstore.New(h), func() {}, nil

	case "bolt":
		store, err := boltstore.Open(filepath.Join(dir, "smtctl-bolt.db"), h)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "leveldb":
		store, err := leveldbstore.Open(filepath.Join(dir, "smtctl-leveldb"), h)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "sql":
		driver := viper.GetString("sql-driver")
		dsn := viper.GetString("sql-dsn")
		if dsn == "" {
			dsn = filepath.Join(dir, "smtctl-sql.db")
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s database: %w", driver, err)
		}
		store, err := sqlstore.Open(db, h)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("smtctl: unknown backend %q", viper.GetString("backend"))
	}
}

func rootFile() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ROOT"), nil
}

// loadRoot reads the persisted root hash, defaulting to the empty tree
// of depthBytes() bytes if no root has been saved yet.
func loadRoot() (smt.Hash, error) {
	path, err := rootFile()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return smt.NullRoot(hasher(), depthBytes()), nil
	}
	if err != nil {
		return "", fmt.Errorf("reading root file: %w", err)
	}
	decoded, err := hex.DecodeString(string(data))
	if err != nil {
		return "", fmt.Errorf("decoding root file: %w", err)
	}
	return smt.HashFromBytes(decoded), nil
}

func saveRoot(root smt.Hash) error {
	path, err := rootFile()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(hex.EncodeToString(root.Bytes())), 0644)
}

func parseKey(arg string) ([]byte, error) {
	key, err := hex.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("key must be hex-encoded: %w", err)
	}
	if len(key) != depthBytes() {
		return nil, fmt.Errorf("key is %d bytes, tree depth is %d bytes (see --depth)", len(key), depthBytes())
	}
	return key, nil
}
