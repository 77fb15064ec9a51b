package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
)

var (
	showDate  string
	showMonth int
	showJSON  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the calendar, the selected day and the vision board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		sess, closeFn, err := openRoom(cmd)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, closeFn())
		}()

		ctx := cmd.Context()
		if showJSON {
			doc, err := sess.Document(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}

		if showDate != "" {
			day, err := core.ParseDateKey(showDate)
			if err != nil {
				return err
			}
			if _, err := sess.Dispatch(ctx, planner.SelectDate(day)); err != nil {
				return err
			}
		}
		if showMonth != 0 {
			if _, err := sess.Dispatch(ctx, planner.ShiftMonth(showMonth)); err != nil {
				return err
			}
		}

		frame, err := sess.Frame(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderer.Frame(frame))
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "Day to select (YYYY-MM-DD, default today)")
	showCmd.Flags().IntVar(&showMonth, "month", 0, "Months to move the calendar by, e.g. -1 or 2")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the room document as JSON")
	rootCmd.AddCommand(showCmd)
}
