package engine

import (
	"context"
	"errors"
	"fmt"

	"readlater/internal/model"
	"readlater/internal/storage"
)

// PerformFullSync pushes queued mutations and then pulls server changes.
//
// It returns immediately when offline or when another sync is running. The
// sync cursor only advances when both push and pull complete.
func (e *Engine) PerformFullSync(ctx context.Context) error {
	if !e.net.Online() {
		return nil
	}
	if !e.syncing.CompareAndSwap(false, true) {
		e.log.Debug("sync already in progress")
		return nil
	}
	e.status.Publish(ctx)

	err := e.syncRound(ctx)
	e.setLastError(err)
	e.syncing.Store(false)
	e.status.Publish(ctx)

	if err != nil {
		e.log.Error("sync failed", "error", err)
	}
	return err
}

func (e *Engine) syncRound(ctx context.Context) error {
	res, err := e.queue.Drain(ctx, e.remote)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	if res.Sent > 0 || res.Dropped > 0 {
		e.log.Info("pushed mutations", "sent", res.Sent, "failed", res.Failed, "dropped", res.Dropped)
		e.status.Publish(ctx)
	}

	if err := e.pull(ctx); err != nil {
		return fmt.Errorf("pull: %w", err)
	}

	if err := e.store.SetLastSync(ctx, e.now()); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	return nil
}

func (e *Engine) pull(ctx context.Context) error {
	since, err := e.store.LastSync(ctx)
	if err != nil {
		return err
	}

	changes, err := e.remote.Changes(ctx, since)
	if err != nil {
		return err
	}

	for _, change := range changes {
		if err := e.resolveAndMerge(ctx, change); err != nil {
			return err
		}
	}

	if len(changes) > 0 {
		e.log.Info("merged server changes", "count", len(changes), "since", since)
		e.status.Publish(ctx)
	}
	return nil
}

// resolveAndMerge applies one server record to the local store.
func (e *Engine) resolveAndMerge(ctx context.Context, remote model.ServerArticle) error {
	local, err := e.store.GetArticle(ctx, remote.URL)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		a := fromServer(remote)
		a.DownloadedAt = e.now()
		return e.store.PutArticle(ctx, &a)
	case err != nil:
		return err
	}

	merged := e.merge(*local, remote, local.LastKnownServerState)
	return e.store.PutArticle(ctx, &merged)
}
