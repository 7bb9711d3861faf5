package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"readlater/internal/config"
	"readlater/internal/content"
	"readlater/internal/engine"
	"readlater/internal/network"
	"readlater/internal/notify"
	"readlater/internal/remote"
	"readlater/internal/storage"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *storage.SQLite
	remote   *remote.Client
	monitor  *network.Monitor
	prober   *network.Prober
	engine   *engine.Engine
	telegram *notify.Telegram
}

// newApp wires storage, the server client and the sync engine together.
// Connectivity is probed once so that one-shot commands know whether to sync.
func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		remote:  remote.New(http.DefaultClient, cfg.APIURL, cfg.APIToken),
		monitor: network.NewMonitor(false, true),
	}

	drops := notify.Multi{notify.NewLog(log)}
	if cfg.TelegramEnabled() {
		a.telegram, err = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		drops = append(drops, a.telegram)
	}

	a.engine, err = engine.New(engine.Options{
		Store:        store,
		Remote:       a.remote,
		Network:      a.monitor,
		Log:          log,
		Drops:        drops,
		Normalize:    content.ToMarkdown,
		SyncInterval: cfg.SyncInterval,
		RecentCount:  cfg.RecentCount,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a.prober = network.NewProber(a.monitor, http.DefaultClient, strings.TrimRight(cfg.APIURL, "/")+"/", log)
	a.prober.SetTickInterval(cfg.ProbeInterval)
	a.prober.Probe(ctx)
	return a, nil
}

// close waits for background syncs started by the command and closes the store.
func (a *app) close() error {
	a.engine.Stop()
	return a.store.Close()
}

// requireOnline returns an error for commands that need the server.
func (a *app) requireOnline() error {
	if !a.monitor.Online() {
		return fmt.Errorf("server %s is unreachable", a.cfg.APIURL)
	}
	return nil
}
