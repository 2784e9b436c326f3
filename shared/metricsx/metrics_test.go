package metricsx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Instrument(mux, mux)

	for _, path := range []string{"/items/1", "/items/2", "/items/42"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
	}

	// Distinct ids collapse into one pattern label.
	got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /items/{id}", "200"))
	if got != 3 {
		t.Fatalf("pattern-labeled count = %v, want 3", got)
	}
}

func TestInstrumentBucketsUnmatchedPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /known", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Instrument(mux, mux)

	for _, path := range []string{"/scan/a", "/scan/b"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", path, rec.Code)
		}
	}

	got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404"))
	if got != 2 {
		t.Fatalf("unmatched count = %v, want 2", got)
	}
}
