// Package engine keeps a local article store in step with the read-later server.
// Local writes are applied first and queued, then pushed before each pull.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"readlater/internal/model"
	"readlater/internal/network"
	"readlater/internal/queue"
	"readlater/internal/status"
	"readlater/internal/storage"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultSyncInterval = 5 * time.Minute
	DefaultRecentCount  = 50
)

// Remote is the server API used by the engine.
type Remote interface {
	queue.Dispatcher
	Changes(ctx context.Context, since time.Time) ([]model.ServerArticle, error)
	Recents(ctx context.Context, count int) ([]model.ServerArticle, error)
	Summarize(ctx context.Context, url, titleHint string) (*model.FullArticle, error)
}

// Network reports connectivity and foreground state.
type Network interface {
	Online() bool
	Foreground() bool
	Subscribe(fn func(network.Event)) (unsubscribe func())
}

// Options configures an Engine.
type Options struct {
	Store   storage.Storage
	Remote  Remote
	Network Network
	Log     *slog.Logger

	// Merge resolves a server record against an existing local one.
	// Defaults to ServerWinsReadState.
	Merge MergeFunc

	// Drops is told about mutations discarded after too many failures. Optional.
	Drops queue.DropSink

	// Normalize rewrites downloaded contents before they are stored. Optional.
	Normalize func(string) string

	SyncInterval time.Duration
	RecentCount  int

	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Engine keeps the local store consistent with the server.
type Engine struct {
	store    storage.Storage
	remote   Remote
	net      Network
	queue    *queue.Queue
	merge    MergeFunc
	norm     func(string) string
	status   *status.Publisher
	log      *slog.Logger
	now      func() time.Time
	interval time.Duration
	recent   int

	syncing atomic.Bool

	errMu   sync.Mutex
	lastErr string

	errs chan error
	bg   sync.WaitGroup

	lifeMu  sync.Mutex
	started bool
	// stopped blocks new background syncs once Stop has begun waiting on bg.
	stopped bool
	stop    context.CancelFunc
	loops   sync.WaitGroup
	unwatch func()
}

// New creates an Engine. Call Start to enable automatic sync triggers.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil || opts.Remote == nil || opts.Network == nil {
		return nil, errors.New("engine: store, remote and network are required")
	}

	e := &Engine{
		store:    opts.Store,
		remote:   opts.Remote,
		net:      opts.Network,
		merge:    opts.Merge,
		norm:     opts.Normalize,
		log:      opts.Log,
		now:      opts.Now,
		interval: opts.SyncInterval,
		recent:   opts.RecentCount,
		errs:     make(chan error, 16),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.merge == nil {
		e.merge = ServerWinsReadState
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.interval <= 0 {
		e.interval = DefaultSyncInterval
	}
	if e.recent <= 0 {
		e.recent = DefaultRecentCount
	}

	e.queue = queue.New(opts.Store, opts.Drops, e.log)
	e.status = status.NewPublisher(e.currentStatus)
	return e, nil
}

// Start subscribes to network transitions and starts the periodic sync timer.
func (e *Engine) Start(ctx context.Context) error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.started {
		return errors.New("engine already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.stop = cancel
	e.started = true
	e.stopped = false

	e.unwatch = e.net.Subscribe(func(ev network.Event) {
		switch {
		case ev.WentOnline:
			e.triggerSync(runCtx, "online")
		case ev.CameToForeground && ev.Online:
			e.triggerSync(runCtx, "foreground")
		default:
			e.status.Publish(runCtx)
		}
	})

	e.loops.Add(1)
	go func() {
		defer e.loops.Done()
		e.runTimer(runCtx)
	}()

	e.log.Info("sync engine started", "interval", e.interval)
	return nil
}

// Stop cancels the periodic timer, detaches from the network monitor, waits
// for background syncs to finish and clears status subscribers. Local
// mutations made after Stop stay queued until the next Start or sync.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	e.stopped = true
	if !e.started {
		e.lifeMu.Unlock()
		e.bg.Wait()
		e.status.Reset()
		return
	}
	e.started = false
	e.stop()
	unwatch := e.unwatch
	e.lifeMu.Unlock()

	unwatch()
	e.loops.Wait()
	e.bg.Wait()
	e.status.Reset()
	e.log.Info("sync engine stopped")
}

// Errors returns the sink for failures of background syncs.
// Errors are dropped when nobody drains the channel.
func (e *Engine) Errors() <-chan error {
	return e.errs
}

// Subscribe registers fn for status updates, delivering the current status first.
func (e *Engine) Subscribe(ctx context.Context, fn func(status.Status)) (unsubscribe func()) {
	return e.status.Subscribe(ctx, fn)
}

// Watch returns a channel of status updates that closes when ctx is done.
func (e *Engine) Watch(ctx context.Context) <-chan status.Status {
	return e.status.Watch(ctx)
}

// Status returns the current status.
func (e *Engine) Status(ctx context.Context) status.Status {
	return e.currentStatus(ctx)
}

func (e *Engine) runTimer(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.net.Online() && e.net.Foreground() {
				e.triggerSync(ctx, "timer")
			}
		}
	}
}

// triggerSync runs a full sync in a detached goroutine. Failures go to the error sink.
func (e *Engine) triggerSync(ctx context.Context, reason string) {
	if !e.net.Online() {
		return
	}
	ctx = context.WithoutCancel(ctx)

	e.lifeMu.Lock()
	if e.stopped {
		e.lifeMu.Unlock()
		e.log.Debug("background sync skipped, engine stopped", "reason", reason)
		return
	}
	e.bg.Add(1)
	e.lifeMu.Unlock()

	go func() {
		defer e.bg.Done()
		if err := e.PerformFullSync(ctx); err != nil {
			e.reportError(fmt.Errorf("background sync (%s): %w", reason, err))
		}
	}()
}

func (e *Engine) reportError(err error) {
	e.log.Error("background task failed", "error", err)
	select {
	case e.errs <- err:
	default:
	}
}

func (e *Engine) currentStatus(ctx context.Context) status.Status {
	st := status.Status{
		Online:  e.net.Online(),
		Syncing: e.syncing.Load(),
		Error:   e.lastError(),
	}
	if n, err := e.queue.Len(ctx); err != nil {
		e.log.Warn("count pending mutations", "error", err)
	} else {
		st.Pending = n
	}
	if t, err := e.store.LastSync(ctx); err != nil {
		e.log.Warn("read sync cursor", "error", err)
	} else if t.After(storage.Epoch) {
		st.LastSync = &t
	}
	return st
}

func (e *Engine) lastError() string {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

func (e *Engine) setLastError(err error) {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	if err == nil {
		e.lastErr = ""
		return
	}
	e.lastErr = err.Error()
}
