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

var getCmd = &cobra.Command{
	Use:   "get <hex-key>",
	Short: "Read the value stored at a key",
	Args:  cobra.ExactArgs(1),
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

		r, err := smt.NewReader(store, hasher(), root, depthBytes())
		if err != nil {
			return err
		}
		value, err := r.Value(key)
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		if value == nil {
			fmt.Printf("%s: absent\n", args[0])
			return nil
		}
		fmt.Printf("%s: %q\n", args[0], value)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
}
