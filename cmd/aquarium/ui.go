package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/internal/tui"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
	"github.com/aretw0/aquarium/pkg/view"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive planner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The alternate screen owns the terminal; keep logs out of it
		// unless they were asked for.
		logger := slog.Default()
		if !verbose {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			slog.SetDefault(logger)
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}

		return tui.Run(cmd.Context(), tui.Options{
			NewSession: func(v session.View, c planner.Confirmer) *session.Session {
				return newSession(cmd, store,
					session.WithLogger(logger),
					session.WithView(v),
					session.WithConfirmer(c),
				)
			},
			Styles: view.DefaultStyles(),
			Logger: logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
