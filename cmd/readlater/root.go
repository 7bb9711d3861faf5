package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readlater/internal/config"
)

var (
	logLevel string
	current  *app
)

var rootCmd = &cobra.Command{
	Use:   "readlater",
	Short: "Offline-first read-later client",
	Long: `readlater keeps a local copy of your read-later list.

Reads and writes go to a local database first. Changes are queued and
pushed to the server when it is reachable, then server changes are pulled.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		current, err = newApp(cmd.Context(), cfg, newLogger(cfg.LogLevel))
		return err
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if current == nil {
			return nil
		}
		err := current.close()
		current = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: $LOG_LEVEL)")
}
