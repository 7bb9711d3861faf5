// Command migrate manages the schema of the local readlater database.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"readlater/migrations"
)

type settings struct {
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/readlater.db"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the readlater database schema",
		Long: `migrate applies or rolls back schema changes of the local readlater
database. The database path defaults to $DATABASE_PATH.`,
		SilenceUsage: true,
	}

	defaults, err := env.ParseAs[settings]()
	if err != nil {
		defaults = settings{DatabasePath: "./data/readlater.db"}
	}
	root.PersistentFlags().StringVar(&dbPath, "db", defaults.DatabasePath, "path to the readlater database")

	withDB := func(fn func(*sql.DB) error) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			db, err := openDB(dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			return fn(db)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending schema changes",
			Args:  cobra.NoArgs,
			RunE:  withDB(migrations.Run),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last schema change",
			Args:  cobra.NoArgs,
			RunE:  withDB(func(db *sql.DB) error { return goose.Down(db, ".") }),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending schema changes",
			Args:  cobra.NoArgs,
			RunE:  withDB(func(db *sql.DB) error { return goose.Status(db, ".") }),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: withDB(func(db *sql.DB) error {
				v, err := goose.GetDBVersion(db)
				if err != nil {
					return fmt.Errorf("read schema version: %w", err)
				}
				_, err = fmt.Fprintln(root.OutOrStdout(), v)
				return err
			}),
		},
		newResetCmd(withDB),
	)

	return root
}

func newResetCmd(withDB func(func(*sql.DB) error) func(*cobra.Command, []string) error) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table, losing saved articles, queued changes and the sync cursor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("reset deletes all local data; pass --yes to confirm")
			}
			return withDB(func(db *sql.DB) error { return goose.Reset(db, ".") })(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm dropping all local data")
	return cmd
}

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set dialect: %w", err)
	}
	return db, nil
}
