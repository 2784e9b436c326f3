package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-analytics-tracker/shared/config"
)

func testConfig(url string) config.Config {
	return config.Config{
		SupabaseURL:        url,
		SupabaseAnonKey:    "test-anon-key",
		EnableTracking:     true,
		SinkProbeTimeoutMS: 2000,
		SinkPushTimeoutMS:  2000,
	}
}

func TestTestConnectionOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-anon-key" {
			t.Errorf("missing apikey header")
		}
		if r.Header.Get("Authorization") != "Bearer test-anon-key" {
			t.Errorf("missing bearer header")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	res := c.TestConnection(context.Background())
	if !res.Connected {
		t.Fatalf("expected connected, got %+v", res)
	}
}

func TestTestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	res := c.TestConnection(context.Background())
	if res.Connected {
		t.Fatalf("expected failure, got %+v", res)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", res.StatusCode)
	}
}

func TestPushPreferHeaders(t *testing.T) {
	var gotPrefer []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = append(gotPrefer, r.Header.Get("Prefer"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if res := c.Push(context.Background(), TableEvents, map[string]any{"event_type": "search"}); !res.Success {
		t.Fatalf("events push failed: %+v", res)
	}
	if res := c.Push(context.Background(), TableProducts, map[string]any{"product_id": 1}); !res.Success {
		t.Fatalf("products push failed: %+v", res)
	}

	if len(gotPrefer) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(gotPrefer))
	}
	if gotPrefer[0] != "return=minimal" {
		t.Fatalf("events push Prefer = %q", gotPrefer[0])
	}
	if gotPrefer[1] != "resolution=merge-duplicates" {
		t.Fatalf("products push Prefer = %q", gotPrefer[1])
	}
}

func TestPushReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	res := c.Push(context.Background(), TableEvents, map[string]any{"event_type": "view"})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.StatusCode)
	}
	if res.ErrorMessage == "" {
		t.Fatalf("expected error message")
	}
}

func TestSyncBatchContinuesPastFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var record map[string]any
		if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if record["fail"] == true {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	records := []map[string]any{
		{"product_id": 1},
		{"product_id": 2, "fail": true},
		{"product_id": 3},
	}
	if got := c.SyncBatch(context.Background(), TableProducts, records); got != 2 {
		t.Fatalf("expected 2 delivered, got %d", got)
	}
}
