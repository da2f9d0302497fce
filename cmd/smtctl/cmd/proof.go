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

var proofCmd = &cobra.Command{
	Use:   "proof <hex-key>",
	Short: "Build an inclusion or absence proof for a key and verify it",
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
		proof, err := r.Proof(key)
		if err != nil {
			return fmt.Errorf("proof: %w", err)
		}

		ok, err := smt.Verify(hasher(), depthBytes(), key, proof.Value, proof, root)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}

		fmt.Printf("key:       %s\n", args[0])
		if proof.Value == nil {
			fmt.Printf("value:     absent\n")
		} else {
			fmt.Printf("value:     %q\n", proof.Value)
		}
		fmt.Printf("siblings:  %d\n", len(proof.Siblings))
		fmt.Printf("root:      %x\n", root.Bytes())
		fmt.Printf("self-verify: %v\n", ok)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(proofCmd)
}
