package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readlater/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List locally stored articles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		archived, _ := cmd.Flags().GetBool("archived")
		fromServer, _ := cmd.Flags().GetBool("remote")
		limit, _ := cmd.Flags().GetInt("limit")
		ctx := cmd.Context()

		if fromServer {
			if !archived {
				return fmt.Errorf("--remote is only supported with --archived")
			}
			if err := current.requireOnline(); err != nil {
				return err
			}
			items, err := current.remote.Archive(ctx, limit)
			if err != nil {
				return fmt.Errorf("fetch archive: %w", err)
			}
			if len(items) == 0 {
				fmt.Println("No articles found")
			}
			for _, it := range items {
				fmt.Println(formatServerArticle(it))
			}
			return nil
		}

		var (
			articles []model.Article
			err      error
		)
		if archived {
			articles, err = current.engine.Archived(ctx, limit)
		} else {
			articles, err = current.engine.Recent(ctx, limit)
		}
		if err != nil {
			return fmt.Errorf("list articles: %w", err)
		}
		printArticles(articles)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <prefix>",
	Short: "Find local articles by title prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		articles, err := current.engine.Search(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		printArticles(articles)
		return nil
	},
}

func printArticles(articles []model.Article) {
	if len(articles) == 0 {
		fmt.Println("No articles found")
		return
	}
	for _, a := range articles {
		fmt.Println(formatArticle(a))
	}
}

func init() {
	listCmd.Flags().Bool("archived", false, "list archived articles")
	listCmd.Flags().Bool("remote", false, "list from the server instead of the local store")
	listCmd.Flags().IntP("limit", "n", 20, "maximum number of articles")
	rootCmd.AddCommand(listCmd, searchCmd)
}
