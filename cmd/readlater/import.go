package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"readlater/internal/feedimport"
)

var importCmd = &cobra.Command{
	Use:   "import <feed-url>",
	Short: "Save the entries of an RSS or Atom feed for offline reading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		rules, err := feedimport.ParseRules(include, exclude)
		if err != nil {
			return err
		}
		if err := current.requireOnline(); err != nil {
			return err
		}

		imp := feedimport.New(http.DefaultClient, current.engine, current.log)
		res, err := imp.Import(cmd.Context(), args[0], rules)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		fmt.Printf("%s: %d matched, %d imported, %d already saved, %d failed\n",
			bold(res.Feed), res.Matched, res.Imported, res.Skipped, res.Failed)
		return nil
	},
}

func init() {
	importCmd.Flags().StringSlice("include", nil, `keep entries containing a word ("re:" prefix for a regex)`)
	importCmd.Flags().StringSlice("exclude", nil, `skip entries containing a word ("re:" prefix for a regex)`)
	rootCmd.AddCommand(importCmd)
}
