package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		n, err := current.store.CountArticles(ctx)
		if err != nil {
			return err
		}
		fmt.Println(formatStatus(current.engine.Status(ctx)))
		fmt.Printf("%d articles stored locally\n", n)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all local articles, queued changes and the sync cursor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("reset discards unsynced changes; rerun with --force")
		}
		if err := current.engine.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Println("Local data cleared")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("force", false, "confirm the reset")
	rootCmd.AddCommand(statusCmd, resetCmd)
}
