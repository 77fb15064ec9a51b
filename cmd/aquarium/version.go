package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/aquarium"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of aquarium",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "aquarium version %s\n", strings.TrimSpace(aquarium.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
