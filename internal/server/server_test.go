package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeProbe struct {
	name      string
	reachable bool
}

func (f *fakeProbe) Name() string                { return f.name }
func (f *fakeProbe) Ping(_ context.Context) bool { return f.reachable }

func TestHealthEndpoints(t *testing.T) {
	srv := New(&fakeProbe{name: "deepcoin", reachable: true}, nil, "1.0.0")
	ts := httptest.NewServer(srv.Handler(nil))
	defer ts.Close()

	for _, path := range []string{"/health", "/api/health"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		var body healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
		if body.Status != "healthy" {
			t.Errorf("%s status field = %q, want healthy", path, body.Status)
		}
		if body.Timestamp == "" {
			t.Errorf("%s timestamp missing", path)
		}
	}
}

func TestStatusReportsExchange(t *testing.T) {
	srv := New(&fakeProbe{name: "deepcoin", reachable: true}, nil, "1.0.0")
	ts := httptest.NewServer(srv.Handler(nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Exchange != "deepcoin" {
		t.Errorf("exchange = %q, want deepcoin", body.Exchange)
	}
	if !body.ExchangeReachable {
		t.Error("exchange_reachable = false, want true")
	}
	if body.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", body.Version)
	}
	if body.Status != "running" {
		t.Errorf("status = %q, want running", body.Status)
	}
}

func TestStatusUnreachableExchange(t *testing.T) {
	srv := New(&fakeProbe{name: "deepcoin", reachable: false}, nil, "1.0.0")
	ts := httptest.NewServer(srv.Handler(nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ExchangeReachable {
		t.Error("exchange_reachable = true, want false")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := New(&fakeProbe{name: "deepcoin"}, nil, "1.0.0")
	ts := httptest.NewServer(srv.Handler(nil))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/health", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
