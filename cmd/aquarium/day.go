package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/pkg/core"
	"github.com/aretw0/aquarium/pkg/planner"
)

var (
	dayDate  string
	clearYes bool
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the tasks of a day",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("task text is empty")
		}
		return runActions(cmd, false, dayDate, showDay, planner.AddTask(text))
	},
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle <index>",
	Short: "Mark a task done or not done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return runActions(cmd, false, dayDate, showDay, planner.ToggleTask(i))
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return runActions(cmd, false, dayDate, showDay, planner.DeleteTask(i))
	},
}

var moodCmd = &cobra.Command{
	Use:   "mood <happy|neutral|tired|sad|angry|none>",
	Short: "Set the mood of a day; setting the same mood again clears it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mood := core.Mood(strings.ToLower(args[0]))
		if mood == "none" {
			mood = ""
		}
		return runActions(cmd, false, dayDate, showDay, planner.SetMood(mood))
	},
}

var diaryCmd = &cobra.Command{
	Use:   "diary [text]",
	Short: "Replace the diary of a day; no text clears it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActions(cmd, false, dayDate, showDay, planner.SetDiary(strings.Join(args, " ")))
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete everything recorded for a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActions(cmd, clearYes, dayDate, showDay, planner.ClearDay())
	},
}

func init() {
	for _, cmd := range []*cobra.Command{taskCmd, moodCmd, diaryCmd, clearCmd} {
		cmd.PersistentFlags().StringVar(&dayDate, "date", "", "Day to change (YYYY-MM-DD, default today)")
		rootCmd.AddCommand(cmd)
	}
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskToggleCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}
