package status

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type fakeSource struct{ status Status }

func (s *fakeSource) ServerStatus() Status { return s.status }

func setUpStatusServer(t *testing.T, source Source) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	server := NewServer(logger, "", source)
	server.started = time.Now()

	router := gin.New()
	router.POST("/", server.handleRPC)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_Fetch(t *testing.T) {
	source := &fakeSource{status: Status{
		ID:         24,
		Host:       "10.0.0.5",
		Port:       55901,
		Clients:    3,
		MaxClients: 100,
	}}
	ts := setUpStatusServer(t, source)

	client := NewClient(time.Second)
	status, err := client.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() returned an unexpected error: %v", err)
	}

	if status.ID != 24 || status.Host != "10.0.0.5" || status.Port != 55901 {
		t.Errorf("unexpected identity fields: %+v", status)
	}
	if status.Clients != 3 || status.MaxClients != 100 {
		t.Errorf("unexpected occupancy fields: %+v", status)
	}
	if status.Load() != 0.03 {
		t.Errorf("expected 0.03 load, got %f", status.Load())
	}
}

func TestClient_FetchVersion(t *testing.T) {
	ts := setUpStatusServer(t, &fakeSource{})

	client := NewClient(time.Second)
	version, err := client.FetchVersion(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("FetchVersion() returned an unexpected error: %v", err)
	}
	if version != Version {
		t.Errorf("expected version %q, got %q", Version, version)
	}
}

func TestClient_UnknownMethod(t *testing.T) {
	ts := setUpStatusServer(t, &fakeSource{})

	client := NewClient(time.Second)
	var result interface{}
	err := client.call(context.Background(), ts.URL, "restart", &result)
	if err == nil || !strings.Contains(err.Error(), "method not found") {
		t.Errorf("expected a method not found error, got %v", err)
	}
}

func TestClient_UnreachableServer(t *testing.T) {
	client := NewClient(100 * time.Millisecond)
	if _, err := client.Fetch(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Error("expected an error fetching from an unreachable server")
	}
}

func TestStatus_Load(t *testing.T) {
	tests := map[string]struct {
		status   Status
		expected float64
	}{
		"empty":       {status: Status{Clients: 0, MaxClients: 10}, expected: 0},
		"half":        {status: Status{Clients: 5, MaxClients: 10}, expected: 0.5},
		"full":        {status: Status{Clients: 10, MaxClients: 10}, expected: 1},
		"no capacity": {status: Status{Clients: 0, MaxClients: 0}, expected: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if load := tt.status.Load(); load != tt.expected {
				t.Errorf("expected load %f, got %f", tt.expected, load)
			}
		})
	}
}
