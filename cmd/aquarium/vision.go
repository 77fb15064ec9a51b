package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/aquarium/pkg/planner"
)

var visionYes bool

var visionCmd = &cobra.Command{
	Use:   "vision",
	Short: "Manage the vision board",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runActions(cmd, false, "", showVision)
	},
}

var visionAddCmd = &cobra.Command{
	Use:   "add <url> [caption]",
	Short: "Pin an image to the vision board",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caption := strings.Join(args[1:], " ")
		return runActions(cmd, false, "", showVision, planner.AddVisionItem(args[0], caption))
	},
}

var visionDeleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Remove an image from the vision board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return runActions(cmd, visionYes, "", showVision, planner.DeleteVisionItem(i))
	},
}

func init() {
	visionDeleteCmd.Flags().BoolVarP(&visionYes, "yes", "y", false, "Do not ask for confirmation")
	visionCmd.AddCommand(visionAddCmd)
	visionCmd.AddCommand(visionDeleteCmd)
	rootCmd.AddCommand(visionCmd)
}
