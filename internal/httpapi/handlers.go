// Package httpapi registers the tracker service's HTTP surface: lifecycle
// hook ingestion, client signal ingestion, the signed order webhook and the
// admin sync endpoints.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"storefront-analytics-tracker/internal/event"
	"storefront-analytics-tracker/internal/tracker"
	"storefront-analytics-tracker/internal/webhook"
	"storefront-analytics-tracker/shared/config"
	"storefront-analytics-tracker/shared/httpx"
	"storefront-analytics-tracker/shared/logx"
)

const maxBodyBytes = 1 << 20

type hookRequest struct {
	UserID     *int64         `json:"user_id,omitempty"`
	VisitorKey string         `json:"visitor_key"`
	Fields     map[string]any `json:"fields"`
}

type clientSignalRequest struct {
	EventType  string         `json:"event_type"`
	UserID     *int64         `json:"user_id,omitempty"`
	VisitorKey string         `json:"visitor_key"`
	Payload    map[string]any `json:"payload"`
}

// Register wires all domain routes onto the mux.
func Register(mux *http.ServeMux, cfg config.Config, pipeline *tracker.Pipeline, registry *tracker.Registry, logger logx.Logger) {
	mux.Handle("POST /webhook/order", webhook.NewHandler(cfg.WebhookSecret, pipeline, logger))

	mux.HandleFunc("POST /api/v1/hooks/{hook}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("hook")
		if !registry.Known(name) {
			httpx.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "unknown hook", map[string]any{"hooks": registry.Names()})
			return
		}

		var req hookRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid json body", nil)
			return
		}

		args := tracker.HookArgs{
			Visitor: tracker.Visitor{UserID: req.UserID, Key: req.VisitorKey},
			Fields:  req.Fields,
		}
		if err := registry.Dispatch(r.Context(), name, args); err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "hook dispatch failed", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	mux.HandleFunc("POST /api/v1/events/client", func(w http.ResponseWriter, r *http.Request) {
		var req clientSignalRequest
		if err := decodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid json body", nil)
			return
		}
		if req.VisitorKey == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "INVALID_ARGUMENT", "visitor_key is required", nil)
			return
		}

		pipeline.OnClientSignal(r.Context(),
			tracker.Visitor{UserID: req.UserID, Key: req.VisitorKey},
			event.Type(req.EventType),
			req.Payload)
		httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	mux.HandleFunc("POST /api/v1/admin/test-connection", func(w http.ResponseWriter, r *http.Request) {
		if !cfg.SinkConfigured() {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION", "sink not configured", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, pipeline.TestConnection(r.Context()))
	})

	mux.HandleFunc("POST /api/v1/admin/sync-products", func(w http.ResponseWriter, r *http.Request) {
		if !cfg.SinkConfigured() {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION", "sink not configured", nil)
			return
		}
		synced, total, err := pipeline.SyncProducts(r.Context())
		if err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "product sync failed", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]int{"synced": synced, "total": total})
	})

	mux.HandleFunc("POST /api/v1/admin/sync-events", func(w http.ResponseWriter, r *http.Request) {
		if !cfg.SinkConfigured() {
			httpx.WriteError(w, r, http.StatusServiceUnavailable, "FAILED_PRECONDITION", "sink not configured", nil)
			return
		}
		delivered, remaining, err := pipeline.SyncPending(r.Context(), cfg.SyncBatchLimit)
		if err != nil {
			httpx.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "event sync failed", nil)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]int{"delivered": delivered, "remaining": remaining})
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(dst)
}
