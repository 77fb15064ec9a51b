package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
	"github.com/aretw0/aquarium/pkg/session"
	"github.com/aretw0/aquarium/pkg/view"
)

var renderer = view.NewRenderer(view.DefaultStyles())

// runActions opens the room, selects date (today when empty), applies
// actions in order and prints what show returns for the resulting frame.
// Queued writes are flushed before returning.
func runActions(cmd *cobra.Command, yes bool, date string, show func(view.Frame) string, actions ...planner.Action) (err error) {
	sess, closeFn, err := openRoom(cmd, session.WithConfirmer(confirmer(cmd, yes)))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeFn())
	}()

	ctx := cmd.Context()
	if date != "" {
		day, err := core.ParseDateKey(date)
		if err != nil {
			return err
		}
		if _, err := sess.Dispatch(ctx, planner.SelectDate(day)); err != nil {
			return err
		}
	}

	for _, a := range actions {
		change, err := sess.Dispatch(ctx, a)
		if err != nil {
			return err
		}
		if planner.NeedsConfirmation(a) && !change.Mutated() {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	frame, err := sess.Frame(ctx)
	if err != nil {
		return err
	}
	if show != nil {
		fmt.Fprintln(cmd.OutOrStdout(), show(frame))
	}
	return nil
}

func showDay(f view.Frame) string {
	return renderer.Day(f.Day)
}

func showVision(f view.Frame) string {
	return renderer.Vision(f.Vision)
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return i, nil
}
