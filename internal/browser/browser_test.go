package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/mugo/server/internal/status"
)

func TestNewServerCode(t *testing.T) {
	tests := map[string]struct {
		id       byte
		group    byte
		expected ServerCode
		wantErr  bool
	}{
		"first server":    {id: 1, group: 1, expected: 0},
		"second group":    {id: 5, group: 2, expected: 24},
		"last id":         {id: 19, group: 1, expected: 18},
		"id zero":         {id: 0, group: 1, wantErr: true},
		"id twenty":       {id: 20, group: 1, wantErr: true},
		"group zero":      {id: 1, group: 0, wantErr: true},
		"high group":      {id: 3, group: 10, expected: 182},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			code, err := NewServerCode(tt.id, tt.group)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewServerCode() wantErr = %v, error = %v", tt.wantErr, err)
			}
			if err != nil {
				return
			}
			if code != tt.expected {
				t.Errorf("expected code %d, got %d", tt.expected, code)
			}
			// The packing must invert cleanly.
			if code.ID() != tt.id || code.Group() != tt.group {
				t.Errorf("code %d unpacked to %d-%d, expected %d-%d",
					code, code.Group(), code.ID(), tt.group, tt.id)
			}
		})
	}
}

type fakeFetcher struct {
	statuses map[string]*status.Status
	delays   map[string]time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, baseURL string) (*status.Status, error) {
	if delay, ok := f.delays[baseURL]; ok {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	st, ok := f.statuses[baseURL]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return st, nil
}

func testLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestBrowser_QueryAll(t *testing.T) {
	fetcher := &fakeFetcher{
		statuses: map[string]*status.Status{
			"http://gs1:8080": {ID: 0, Host: "10.0.0.1", Port: 55901, Clients: 5, MaxClients: 10},
			"http://gs2:8080": {ID: 1, Host: "10.0.0.2", Port: 55902, Clients: 0, MaxClients: 10},
		},
	}
	addrs := []string{"http://gs1:8080", "http://gs2:8080", "http://down:8080"}
	b := New(testLogger(), fetcher, addrs, time.Minute)

	servers := b.QueryAll(context.Background())
	if len(servers) != 2 {
		t.Fatalf("expected 2 reachable servers, got %d", len(servers))
	}

	byCode := make(map[ServerCode]Server)
	for _, server := range servers {
		byCode[server.Code] = server
	}
	if server := byCode[0]; server.Host != "10.0.0.1" || server.Load != 0.5 {
		t.Errorf("unexpected entry for code 0: %+v", server)
	}
	if server := byCode[1]; server.Host != "10.0.0.2" || server.Load != 0 {
		t.Errorf("unexpected entry for code 1: %+v", server)
	}
}

func TestBrowser_QueryAllCompletionOrder(t *testing.T) {
	fetcher := &fakeFetcher{
		statuses: map[string]*status.Status{
			"http://slow:8080": {ID: 0, Host: "10.0.0.1", Port: 55901},
			"http://fast:8080": {ID: 1, Host: "10.0.0.2", Port: 55902},
		},
		delays: map[string]time.Duration{"http://slow:8080": 50 * time.Millisecond},
	}
	b := New(testLogger(), fetcher, []string{"http://slow:8080", "http://fast:8080"}, time.Minute)

	servers := b.QueryAll(context.Background())
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[0].Code != 1 || servers[1].Code != 0 {
		t.Errorf("expected the fast server first, got order %d, %d", servers[0].Code, servers[1].Code)
	}
}

func TestBrowser_Query(t *testing.T) {
	fetcher := &fakeFetcher{
		statuses: map[string]*status.Status{
			"http://gs1:8080": {ID: 24, Host: "10.0.0.5", Port: 55901},
		},
	}
	b := New(testLogger(), fetcher, []string{"http://gs1:8080"}, time.Minute)

	// Nothing polled yet, so the cache is empty.
	if _, err := b.Query(24); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected ErrServerNotFound before a refresh, got %v", err)
	}

	b.QueryAll(context.Background())

	server, err := b.Query(24)
	if err != nil {
		t.Fatalf("Query() returned an unexpected error: %v", err)
	}
	if server.Host != "10.0.0.5" || server.Port != 55901 {
		t.Errorf("unexpected cached entry: %+v", server)
	}

	if _, err := b.Query(99); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected ErrServerNotFound for an unknown code, got %v", err)
	}
}

func TestBrowser_QueryDoesNotFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		statuses: map[string]*status.Status{
			"http://gs1:8080": {ID: 0, Host: "10.0.0.1", Port: 55901},
		},
	}
	b := New(testLogger(), fetcher, []string{"http://gs1:8080"}, time.Minute)
	b.QueryAll(context.Background())

	// Even if the server goes away, the cached entry keeps answering until
	// it expires.
	fetcher.statuses = nil
	server, err := b.Query(0)
	if err != nil {
		t.Fatalf("Query() returned an unexpected error: %v", err)
	}
	if server.Host != "10.0.0.1" {
		t.Errorf("unexpected cached entry: %+v", server)
	}
}

func TestBrowser_CacheExpiry(t *testing.T) {
	fetcher := &fakeFetcher{
		statuses: map[string]*status.Status{
			"http://gs1:8080": {ID: 0, Host: "10.0.0.1", Port: 55901},
		},
	}
	b := New(testLogger(), fetcher, []string{"http://gs1:8080"}, 10*time.Millisecond)
	b.QueryAll(context.Background())

	time.Sleep(25 * time.Millisecond)
	if _, err := b.Query(0); !errors.Is(err, ErrServerNotFound) {
		t.Errorf("expected the cached entry to expire, got %v", err)
	}
}
