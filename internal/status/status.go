// Package status broadcasts sync status to subscribers.
package status

import (
	"context"
	"sync"
	"time"
)

// Status is a snapshot of the sync engine state.
type Status struct {
	Online   bool
	Syncing  bool
	Pending  int
	LastSync *time.Time
	Error    string
}

// Source computes the current status.
type Source func(ctx context.Context) Status

// Publisher delivers status snapshots to subscribers. The last published
// value is replayed to every new subscriber.
type Publisher struct {
	source Source

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Status)
	last   Status
	primed bool
}

// NewPublisher creates a Publisher that computes statuses with source.
func NewPublisher(source Source) *Publisher {
	return &Publisher{
		source: source,
		subs:   make(map[int]func(Status)),
	}
}

// Subscribe registers fn and delivers the current status to it before returning.
func (p *Publisher) Subscribe(ctx context.Context, fn func(Status)) (unsubscribe func()) {
	st := p.source(ctx)

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.last, p.primed = st, true
	p.mu.Unlock()

	fn(st)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Publish recomputes the status and delivers it to all subscribers.
func (p *Publisher) Publish(ctx context.Context) Status {
	return p.PublishWith(ctx, nil)
}

// PublishWith recomputes the status, lets mutate adjust it, and delivers it.
func (p *Publisher) PublishWith(ctx context.Context, mutate func(*Status)) Status {
	st := p.source(ctx)
	if mutate != nil {
		mutate(&st)
	}

	p.mu.Lock()
	p.last, p.primed = st, true
	subs := make([]func(Status), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return st
}

// Last returns the most recently delivered status, computing one if none was published yet.
func (p *Publisher) Last(ctx context.Context) Status {
	p.mu.Lock()
	st, ok := p.last, p.primed
	p.mu.Unlock()
	if ok {
		return st
	}
	return p.source(ctx)
}

// Watch returns a channel carrying status updates until ctx is done.
// Slow readers only ever see the newest status.
func (p *Publisher) Watch(ctx context.Context) <-chan Status {
	out := make(chan Status, 1)
	var mu sync.Mutex
	closed := false

	send := func(st Status) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-out:
		default:
		}
		out <- st
	}

	unsubscribe := p.Subscribe(ctx, send)
	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out
}

// Len returns the number of active subscribers.
func (p *Publisher) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Reset drops all subscribers.
func (p *Publisher) Reset() {
	p.mu.Lock()
	p.subs = make(map[int]func(Status))
	p.mu.Unlock()
}
