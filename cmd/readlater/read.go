package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"readlater/internal/content"
	"readlater/internal/model"
	"readlater/internal/storage"
)

var readCmd = &cobra.Command{
	Use:   "read <url>",
	Short: "Show an article and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noMark, _ := cmd.Flags().GetBool("no-mark")
		style, _ := cmd.Flags().GetString("style")
		ctx := cmd.Context()
		url := args[0]

		local, err := current.engine.Article(ctx, url)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		var full *model.FullArticle
		switch {
		case local != nil && local.HasContents():
			full = &model.FullArticle{Title: local.Title, URL: local.URL, Contents: *local.Contents}
		case current.monitor.Online():
			full, err = current.engine.DownloadArticle(ctx, url, "")
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s is not available offline", url)
		}

		fmt.Println(bold(full.Title))
		fmt.Println(cyan(full.URL))
		fmt.Println(strings.Repeat("─", 60))

		markdown := content.ToMarkdown(full.Contents)
		rendered, err := content.Render(markdown, style)
		if err != nil {
			fmt.Println(faint("(markdown rendering unavailable, showing plain text)"))
			fmt.Printf("\n%s\n", markdown)
		} else {
			fmt.Print(rendered)
		}

		if noMark || (local != nil && !local.Unread) {
			return nil
		}
		if err := current.engine.MarkRead(ctx, url); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		return nil
	},
}

func init() {
	readCmd.Flags().Bool("no-mark", false, "do not mark the article read")
	readCmd.Flags().String("style", "dark", "glamour style: dark, light, notty")
	rootCmd.AddCommand(readCmd)
}
