package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push queued changes and pull server changes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.requireOnline(); err != nil {
			return err
		}
		if err := current.engine.PerformFullSync(cmd.Context()); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		fmt.Println(formatStatus(current.engine.Status(cmd.Context())))
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Fill the local store from the server's recent articles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.requireOnline(); err != nil {
			return err
		}
		if err := current.engine.LoadInitialData(cmd.Context()); err != nil {
			return fmt.Errorf("load: %w", err)
		}
		n, err := current.store.CountArticles(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d articles stored locally\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, loadCmd)
}
