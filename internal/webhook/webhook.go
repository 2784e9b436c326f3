// Package webhook receives signed order notifications from the host
// platform. Signatures are HMAC-SHA256 over the raw body, base64 encoded in
// the x-wc-webhook-signature header.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"storefront-analytics-tracker/internal/tracker"
	"storefront-analytics-tracker/shared/httpx"
	"storefront-analytics-tracker/shared/logx"
	"storefront-analytics-tracker/shared/metricsx"
)

const SignatureHeader = "x-wc-webhook-signature"

// maxBodyBytes bounds webhook payload reads.
const maxBodyBytes = 1 << 20

// ValidSignature verifies the header against the shared secret. An empty
// secret rejects everything; there is no unauthenticated mode.
func ValidSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type Handler struct {
	secret   string
	pipeline *tracker.Pipeline
	log      logx.Logger
}

func NewHandler(secret string, pipeline *tracker.Pipeline, logger logx.Logger) *Handler {
	return &Handler{
		secret:   secret,
		pipeline: pipeline,
		log:      logger.With(slog.String("component", "webhook")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "BAD_REQUEST", "failed to read body", nil)
		return
	}

	if !ValidSignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		metricsx.IncWebhookRejected()
		h.log.Warn(r.Context(), "webhook_rejected", "webhook signature rejected",
			slog.String("client_ip", r.RemoteAddr))
		httpx.WriteError(w, r, http.StatusUnauthorized, "INVALID_SIGNATURE", "invalid webhook signature", nil)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}

	h.pipeline.OnWebhookOrder(r.Context(), payload)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Sign produces the signature the host platform would send. Used by delivery
// simulations and tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
