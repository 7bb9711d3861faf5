// Package network tracks connectivity and foreground state for the sync engine.
package network

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event describes a state transition observed by a Monitor.
type Event struct {
	Online     bool
	Foreground bool

	// WentOnline is set when the monitor moved from offline to online.
	WentOnline bool
	// CameToForeground is set when the monitor moved from background to foreground.
	CameToForeground bool
}

// Monitor holds the current connectivity and visibility state.
type Monitor struct {
	mu         sync.Mutex
	online     bool
	foreground bool
	nextID     int
	listeners  map[int]func(Event)
}

// NewMonitor creates a Monitor with the given initial state.
func NewMonitor(online, foreground bool) *Monitor {
	return &Monitor{
		online:     online,
		foreground: foreground,
		listeners:  make(map[int]func(Event)),
	}
}

// Online reports whether the network is believed reachable.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Foreground reports whether the application is in the foreground.
func (m *Monitor) Foreground() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}

// SetOnline records the connectivity state and notifies listeners on change.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	ev := Event{Online: online, Foreground: m.foreground, WentOnline: online}
	m.mu.Unlock()
	m.emit(ev)
}

// SetForeground records the visibility state and notifies listeners on change.
func (m *Monitor) SetForeground(foreground bool) {
	m.mu.Lock()
	if m.foreground == foreground {
		m.mu.Unlock()
		return
	}
	m.foreground = foreground
	ev := Event{Online: m.online, Foreground: foreground, CameToForeground: foreground}
	m.mu.Unlock()
	m.emit(ev)
}

// Subscribe registers fn for state transitions.
func (m *Monitor) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) emit(ev Event) {
	m.mu.Lock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober periodically checks that the server is reachable and updates a Monitor.
type Prober struct {
	monitor *Monitor
	client  HTTPClient
	url     string
	log     *slog.Logger
	tick    time.Duration
}

// NewProber creates a Prober that issues HEAD requests against url.
func NewProber(monitor *Monitor, client HTTPClient, url string, log *slog.Logger) *Prober {
	return &Prober{
		monitor: monitor,
		client:  client,
		url:     url,
		log:     log,
		tick:    30 * time.Second,
	}
}

// SetTickInterval overrides the default 30-second probe interval.
func (p *Prober) SetTickInterval(d time.Duration) {
	p.tick = d
}

// Run probes immediately and then on every tick, blocking until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) {
	p.Probe(ctx)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Probe performs a single reachability check. Any HTTP response counts as online.
func (p *Prober) Probe(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, p.url, nil)
	if err != nil {
		p.log.Error("create probe request", "url", p.url, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Debug("server unreachable", "url", p.url, "error", err)
			p.monitor.SetOnline(false)
		}
		return false
	}
	_ = resp.Body.Close()

	p.monitor.SetOnline(true)
	return true
}
