package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/internal/prefs"
	roomevents "github.com/aretw0/aquarium/pkg/adapters/lifecycle"
	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
	"github.com/aretw0/aquarium/pkg/view"
)

var watchQuiet bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the room and print it whenever anyone changes it",
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
		watchable, ok := store.(core.Watchable)
		if !ok {
			return fmt.Errorf("%T: %w", store, core.ErrNotWatchable)
		}
		snaps, err := watchable.Watch(ctx, core.RoomKey(room))
		if err != nil {
			return err
		}

		source := roomevents.NewSource(snaps)
		if err := source.Start(ctx); err != nil {
			return err
		}

		state := planner.NewState(time.Now())
		for event := range source.Events() {
			slog.Info("room event", "event", event.String())
			if watchQuiet {
				continue
			}
			ev, ok := event.(roomevents.RoomEvent)
			if !ok {
				continue
			}
			doc, err := core.DecodeDocument(ev.Data)
			if err != nil {
				slog.Warn("undecodable room document", "error", err)
				continue
			}
			state.Replace(doc)
			fmt.Fprintln(cmd.OutOrStdout(), renderer.Frame(view.BuildFrame(room, state, time.Now())))
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Only log change events")
	rootCmd.AddCommand(watchCmd)
}
