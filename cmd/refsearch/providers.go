// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refsearch/pkg/types"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the academic search providers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range types.ProviderOrder {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
