package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/internal/prefs"
	"github.com/aretw0/aquarium/pkg/core"
)

var connectCmd = &cobra.Command{
	Use:   "connect [room]",
	Short: "Select the room to work in",
	Long: `Connect remembers the room secret in the preferences file so later commands
open it directly. Without an argument the secret is read from stdin. The store
flags given here (--adapter, --path, --server, --path-writes) are remembered too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := ""
		if len(args) == 1 {
			room = args[0]
		} else {
			answer, err := readLine(cmd, "Room secret: ")
			if err != nil {
				return err
			}
			room = answer
		}
		if room = core.NormalizeRoom(room); room == "" {
			return core.ErrEmptyRoom
		}

		// The room must be reachable before it is remembered.
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		sess := newSession(cmd, store)
		ctx := cmd.Context()
		if err := sess.Open(ctx, room); err != nil {
			return err
		}
		select {
		case <-sess.Ready():
		case <-ctx.Done():
		}
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			return err
		}

		p, _ := prefs.Load(prefsPath)
		p.Room = room
		flags := cmd.Flags()
		if flags.Changed("adapter") {
			p.Adapter = adapter
		}
		if flags.Changed("path") {
			p.Path = storePath
		}
		if flags.Changed("server") {
			p.Server = serverAddr
		}
		if flags.Changed("path-writes") {
			p.PathWrites = pathWrites
		}
		if err := prefs.Save(prefsPath, p); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Connected to room %s\n", mask(room))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the remembered room",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := roomPrefs().ClearRoom(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

// mask hides most of a room secret.
func mask(room string) string {
	if len(room) <= 2 {
		return strings.Repeat("*", len(room))
	}
	return room[:2] + strings.Repeat("*", len(room)-2)
}

func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(logoutCmd)
}
