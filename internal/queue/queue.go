// Package queue implements the durable mutation queue and its drain loop.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"readlater/internal/model"
	"readlater/internal/remote"
	"readlater/internal/storage"
)

// MaxRetries is the number of failed sends after which a mutation is dropped.
const MaxRetries = 5

// Dispatcher sends queued mutations to the server.
type Dispatcher interface {
	MarkRead(ctx context.Context, url string) error
	SetArchive(ctx context.Context, url string, archived bool) error
}

// DropSink is told about mutations discarded after exhausting their retries.
type DropSink interface {
	MutationDropped(ctx context.Context, m model.Mutation, err error)
}

// DrainResult summarises a single drain pass.
type DrainResult struct {
	Sent    int
	Failed  int
	Dropped int
}

// Queue wraps the storage sync queue with enqueue and drain semantics.
type Queue struct {
	store storage.Storage
	drops DropSink
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Queue. drops may be nil.
func New(store storage.Storage, drops DropSink, log *slog.Logger) *Queue {
	return &Queue{
		store: store,
		drops: drops,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue appends a mutation. Existing mutations for the same article are kept.
func (q *Queue) Enqueue(ctx context.Context, op model.Operation, url string, payload any) (*model.Mutation, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	m := &model.Mutation{
		URL:        url,
		Operation:  op,
		Payload:    data,
		EnqueuedAt: q.now(),
	}
	if err := q.store.Enqueue(ctx, m); err != nil {
		return nil, err
	}
	q.log.Debug("mutation queued", "id", m.ID, "op", op, "url", url)
	return m, nil
}

// Len returns the number of pending mutations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.PendingCount(ctx)
}

// Drain sends pending mutations one at a time in enqueue order.
//
// A sent mutation is removed. A failed one has its retry count bumped and is
// dropped once the count reaches MaxRetries. Storage errors abort the drain.
// An unauthorized response also aborts it, since every later send would fail
// the same way until the credential is refreshed.
func (q *Queue) Drain(ctx context.Context, d Dispatcher) (DrainResult, error) {
	var res DrainResult

	items, err := q.store.ListPending(ctx)
	if err != nil {
		return res, fmt.Errorf("list pending: %w", err)
	}

	for _, m := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		sendErr := dispatch(ctx, d, m)
		if sendErr == nil {
			if err := q.store.RemoveMutation(ctx, m.ID); err != nil {
				return res, err
			}
			res.Sent++
			continue
		}

		res.Failed++
		retries, err := q.store.IncrementRetry(ctx, m.ID)
		if err != nil {
			return res, err
		}
		m.RetryCount = retries
		q.log.Warn("mutation failed", "id", m.ID, "op", m.Operation, "url", m.URL, "retries", retries, "error", sendErr)

		if retries >= MaxRetries {
			if err := q.store.RemoveMutation(ctx, m.ID); err != nil {
				return res, err
			}
			res.Dropped++
			if q.drops != nil {
				q.drops.MutationDropped(ctx, m, sendErr)
			}
		}

		if errors.Is(sendErr, remote.ErrUnauthorized) {
			return res, sendErr
		}
	}
	return res, nil
}

func dispatch(ctx context.Context, d Dispatcher, m model.Mutation) error {
	switch m.Operation {
	case model.OpMarkRead:
		return d.MarkRead(ctx, m.URL)
	case model.OpSetArchive:
		var p model.ArchivePayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", m.Operation, err)
		}
		return d.SetArchive(ctx, m.URL, p.Archived)
	case model.OpDownload:
		// Downloads are pulled by the client, never pushed.
		return nil
	default:
		return fmt.Errorf("unknown operation %q", m.Operation)
	}
}
