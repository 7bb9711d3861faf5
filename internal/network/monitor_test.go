package network

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMonitorTransitions(t *testing.T) {
	m := NewMonitor(false, true)

	var events []Event
	unsubscribe := m.Subscribe(func(ev Event) { events = append(events, ev) })

	m.SetOnline(true)
	m.SetOnline(true) // no change, no event
	m.SetForeground(false)
	m.SetForeground(true)
	m.SetOnline(false)
	unsubscribe()
	m.SetOnline(true)

	want := []Event{
		{Online: true, Foreground: true, WentOnline: true},
		{Online: true, Foreground: false},
		{Online: true, Foreground: true, CameToForeground: true},
		{Online: false, Foreground: true},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if !m.Online() || !m.Foreground() {
		t.Errorf("final state online=%v foreground=%v", m.Online(), m.Foreground())
	}
}

type mockHTTP struct {
	mu  sync.Mutex
	err error
}

func (m *mockHTTP) Do(_ *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewBufferString(""))}, nil
}

func TestProber(t *testing.T) {
	ctx := context.Background()
	m := NewMonitor(false, true)
	client := &mockHTTP{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewProber(m, client, "https://server.example.com/", log)

	if !p.Probe(ctx) || !m.Online() {
		t.Fatal("expected online after successful probe")
	}

	client.mu.Lock()
	client.err = errors.New("dial tcp: connection refused")
	client.mu.Unlock()

	if p.Probe(ctx) || m.Online() {
		t.Fatal("expected offline after failed probe")
	}
}
