package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/pkg/session"
)

var statusDiagram bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of the session and its store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		sess := newSession(cmd, store)
		ctx := cmd.Context()
		if err := sess.Connect(ctx, nil); err != nil {
			return fmt.Errorf("no room selected; run `aquarium connect` first: %w", err)
		}
		defer func() {
			err = errors.Join(err, sess.Close(ctx))
		}()
		select {
		case <-sess.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}

		sessState, _ := sess.State().(session.SessionState)
		var storeState any
		storeType := fmt.Sprintf("%T", store)
		if intro, ok := store.(introspection.Introspectable); ok {
			storeState = intro.State()
		}
		if comp, ok := store.(introspection.Component); ok {
			storeType = comp.ComponentType()
		}

		if statusDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "room"
			config.SecondaryLabel = "Room Topology"
			fmt.Fprintln(cmd.OutOrStdout(), introspection.TreeDiagram(statusTree(sessState, storeType), config))
			return nil
		}

		out, err := json.MarshalIndent(map[string]any{
			"session":    sessState,
			"store":      storeState,
			"store_type": storeType,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

type statusNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []statusNode
}

// statusTree lays out the session for a mermaid diagram. Status values
// follow the classes of introspection.DefaultStyles().
func statusTree(s session.SessionState, storeType string) statusNode {
	persister := "suspended"
	if s.PendingWrites > 0 {
		persister = "running"
	}
	return statusNode{
		Name:   "Session",
		Status: "running",
		Metadata: map[string]string{
			"type": "process",
			"room": s.RoomKey,
		},
		Children: []statusNode{
			{
				Name:   "Persister",
				Status: persister,
				Metadata: map[string]string{
					"type":    "goroutine",
					"pending": fmt.Sprintf("%d", s.PendingWrites),
					"written": fmt.Sprintf("%d", s.Written),
				},
			},
			{
				Name:   "Store",
				Status: "running",
				Metadata: map[string]string{
					"type": storeType,
				},
			},
		},
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusDiagram, "diagram", false, "Print a mermaid diagram instead of JSON")
	rootCmd.AddCommand(statusCmd)
}
