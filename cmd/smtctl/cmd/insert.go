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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smt-go/sparsemerkle/smt"
)

var insertCmd = &cobra.Command{
	Use:   "insert <hex-key> <value>",
	Short: "Insert a key/value pair and commit",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}

		store, closeStore, err := openBackend()
		if err != nil {
			return err
		}
		defer closeStore()

		root, err := loadRoot()
		if err != nil {
			return err
		}

		w, err := smt.NewWriter(store, hasher(), &root, depthBytes())
		if err != nil {
			return err
		}
		prev, err := w.Insert(key, []byte(args[1]))
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		if _, _, err := w.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		if err := saveRoot(root); err != nil {
			return err
		}

		if prev == nil {
			fmt.Printf("inserted %s (was absent)\n", args[0])
		} else {
			fmt.Printf("inserted %s (previous value: %q)\n", args[0], prev)
		}
		fmt.Printf("new root: %x\n", root.Bytes())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(insertCmd)
}
