package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium"
	"github.com/aretw0/aquarium/internal/prefs"
	"github.com/aretw0/aquarium/pkg/session"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the recorded changes of the room (fs adapter with git)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		room, err := session.Resolve(ctx, prefs.NewFile(prefsPath), stdinPrompt(cmd))
		if err != nil {
			return err
		}
		store, err := openStore(cmd)
		if err != nil {
			return err
		}

		entries, err := aquarium.History(ctx, store, room, historyLimit)
		if errors.Is(err, aquarium.ErrNoHistory) {
			fmt.Fprintln(cmd.OutOrStdout(), "This store keeps no history.")
			return nil
		}
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes recorded.")
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), entry)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of changes to list")
	rootCmd.AddCommand(historyCmd)
}
