package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"readlater/internal/bot"
	"readlater/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep syncing in the foreground until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		a := current

		var wg sync.WaitGroup
		defer wg.Wait()
		defer cancel()

		wg.Add(1)
		go func() {
			defer wg.Done()
			a.prober.Run(ctx)
		}()

		if a.cfg.TelegramEnabled() {
			b, err := bot.New(a.cfg.TelegramBotToken, a.engine, a.cfg.TelegramChatID, a.log)
			if err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Run(ctx)
			}()
		}

		if err := a.engine.Start(ctx); err != nil {
			return err
		}

		cursor, err := a.store.LastSync(ctx)
		if err != nil {
			return err
		}
		if cursor.Equal(storage.Epoch) {
			if err := a.engine.LoadInitialData(ctx); err != nil {
				a.log.Error("initial load", "error", err)
			}
		}
		if err := a.engine.PerformFullSync(ctx); err != nil {
			a.log.Error("sync", "error", err)
		}

		updates := a.engine.Watch(ctx)
		for {
			select {
			case <-ctx.Done():
				return nil
			case st, ok := <-updates:
				if !ok {
					return nil
				}
				fmt.Println(formatStatus(st))
			case err := <-a.engine.Errors():
				if a.telegram != nil {
					a.telegram.SyncFailed(err)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
