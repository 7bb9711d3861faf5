package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <url>",
	Short: "Archive an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArchive(cmd, args[0], true)
	},
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive <url>",
	Short: "Move an article back to the reading list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArchive(cmd, args[0], false)
	},
}

func setArchive(cmd *cobra.Command, url string, archived bool) error {
	if err := current.engine.SetArchive(cmd.Context(), url, archived); err != nil {
		return fmt.Errorf("set archive: %w", err)
	}
	fmt.Println(formatStatus(current.engine.Status(cmd.Context())))
	return nil
}

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Save an article for offline reading",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if err := current.requireOnline(); err != nil {
			return err
		}
		full, err := current.engine.DownloadArticle(cmd.Context(), args[0], title)
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", bold(full.Title))
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <url>",
	Short: "Drop the offline copy of an article, keeping it in the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.engine.RemoveOffline(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("forget: %w", err)
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().String("title", "", "title hint sent to the server")
	rootCmd.AddCommand(archiveCmd, unarchiveCmd, downloadCmd, forgetCmd)
}
