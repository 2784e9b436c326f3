package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-analytics-tracker/internal/catalog"
	"storefront-analytics-tracker/internal/session"
	"storefront-analytics-tracker/internal/sink"
	"storefront-analytics-tracker/internal/store"
	"storefront-analytics-tracker/internal/tracker"
	"storefront-analytics-tracker/shared/config"
	"storefront-analytics-tracker/shared/logx"
)

// offlineSink refuses every delivery so captured events stay visible in the
// local store's pending set.
type offlineSink struct{}

func (offlineSink) Push(ctx context.Context, table string, record map[string]any) sink.DeliveryResult {
	return sink.DeliveryResult{Success: false, StatusCode: 503, ErrorMessage: "offline"}
}

func (offlineSink) TestConnection(ctx context.Context) sink.ConnectionResult {
	return sink.ConnectionResult{Connected: false, StatusCode: 503}
}

func (offlineSink) SyncBatch(ctx context.Context, table string, records []map[string]any) int {
	return 0
}

type noCatalog struct{}

func (noCatalog) GetProduct(ctx context.Context, productID int64) (catalog.ProductSnapshot, error) {
	return catalog.ProductSnapshot{}, nil
}

func (noCatalog) ListPublished(ctx context.Context, limit int) ([]catalog.ProductSnapshot, error) {
	return nil, nil
}

func (noCatalog) GetOrder(ctx context.Context, orderID int64) (catalog.OrderSnapshot, error) {
	return catalog.OrderSnapshot{}, nil
}

func newTestHandler(t *testing.T, secret string) (*Handler, *store.MemoryStore, *tracker.Pipeline) {
	t.Helper()
	cfg := config.Config{
		Env:                 "test",
		SupabaseURL:         "https://example.supabase.co",
		SupabaseAnonKey:     "anon",
		EnableTracking:      true,
		TrackAnonymousUsers: true,
		SinkPushTimeoutMS:   2000,
	}
	memStore := store.NewMemoryStore()
	pipeline := tracker.New(cfg, tracker.Deps{
		Store:    memStore,
		Sink:     offlineSink{},
		Sessions: session.NewMemoryResolver(time.Hour),
		Products: noCatalog{},
		Orders:   noCatalog{},
		Logger:   logx.New("tracker", "test", "", "error"),
	})
	return NewHandler(secret, pipeline, logx.New("tracker", "test", "", "error")), memStore, pipeline
}

func TestValidSignature(t *testing.T) {
	body := []byte(`{"id":123,"status":"processing"}`)
	sig := Sign("shhh", body)

	if !ValidSignature("shhh", body, sig) {
		t.Fatalf("expected signature to verify")
	}
	if ValidSignature("shhh", body, "tampered") {
		t.Fatalf("tampered signature must not verify")
	}
	if ValidSignature("wrong-secret", body, sig) {
		t.Fatalf("wrong secret must not verify")
	}
	if ValidSignature("", body, sig) {
		t.Fatalf("empty secret must reject everything")
	}
	if ValidSignature("shhh", body, "") {
		t.Fatalf("missing signature must not verify")
	}
}

func TestHandlerAcceptsSignedPayload(t *testing.T) {
	h, memStore, pipeline := newTestHandler(t, "shhh")
	body := []byte(`{"id":123,"status":"completed","total":"45.00"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook/order", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("shhh", body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	pipeline.Wait()

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	pending, err := memStore.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(pending))
	}
	if string(pending[0].Type) != "webhook_order" {
		t.Fatalf("event type = %q, want webhook_order", pending[0].Type)
	}
	if pending[0].OrderID == nil || *pending[0].OrderID != 123 {
		t.Fatalf("order id not extracted from payload")
	}
}

func TestHandlerRejectsBadSignature(t *testing.T) {
	h, memStore, _ := newTestHandler(t, "shhh")
	body := []byte(`{"id":123}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook/order", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, "bogus")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if n, _ := memStore.CountPending(context.Background()); n != 0 {
		t.Fatalf("rejected webhook must not store events")
	}
}

func TestHandlerRejectsWhenNoSecretConfigured(t *testing.T) {
	h, _, _ := newTestHandler(t, "")
	body := []byte(`{"id":123}`)

	req := httptest.NewRequest(http.MethodPost, "/webhook/order", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("anything", body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandlerRejectsInvalidJSON(t *testing.T) {
	h, _, _ := newTestHandler(t, "shhh")
	body := []byte(`not-json`)

	req := httptest.NewRequest(http.MethodPost, "/webhook/order", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, Sign("shhh", body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
