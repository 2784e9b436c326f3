// Package sink is the Supabase REST delivery client. All pushes go through
// PostgREST endpoints under {url}/rest/v1/{table} authenticated with the anon
// key as both apikey header and bearer token.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront-analytics-tracker/shared/config"
	"storefront-analytics-tracker/shared/metricsx"
)

const (
	TableEvents   = "events"
	TableProducts = "products"

	// preferUpsert resolves on-conflict rows server side, preferMinimal skips
	// the response body on plain inserts.
	preferUpsert  = "resolution=merge-duplicates"
	preferMinimal = "return=minimal"
)

// DeliveryResult reports a single push outcome. StatusCode is zero when the
// request never reached the sink.
type DeliveryResult struct {
	Success      bool   `json:"success"`
	StatusCode   int    `json:"status_code,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

type ConnectionResult struct {
	Connected    bool   `json:"connected"`
	StatusCode   int    `json:"status_code,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

type Client struct {
	baseURL string
	anonKey string

	probeClient *http.Client
	pushClient  *http.Client
}

func NewClient(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.SupabaseURL), "/"),
		anonKey: strings.TrimSpace(cfg.SupabaseAnonKey),
		probeClient: &http.Client{
			Timeout:   time.Duration(cfg.SinkProbeTimeoutMS) * time.Millisecond,
			Transport: transport,
		},
		pushClient: &http.Client{
			Timeout:   time.Duration(cfg.SinkPushTimeoutMS) * time.Millisecond,
			Transport: transport,
		},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Content-Type", "application/json")
}

// TestConnection probes the REST root. Anything but 200 counts as not
// connected so operators see credential and URL mistakes immediately.
func (c *Client) TestConnection(ctx context.Context) ConnectionResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/", nil)
	if err != nil {
		return ConnectionResult{Connected: false, ErrorMessage: err.Error()}
	}
	c.setHeaders(req)

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return ConnectionResult{Connected: false, ErrorMessage: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return ConnectionResult{
			Connected:    false,
			StatusCode:   resp.StatusCode,
			ErrorMessage: fmt.Sprintf("sink probe returned status %d", resp.StatusCode),
		}
	}
	return ConnectionResult{Connected: true, StatusCode: resp.StatusCode}
}

// Push inserts one record into the given table. Upsert semantics are used for
// the products table so repeated catalog syncs stay idempotent.
func (c *Client) Push(ctx context.Context, table string, record map[string]any) DeliveryResult {
	return c.push(ctx, table, record)
}

func (c *Client) push(ctx context.Context, table string, record any) DeliveryResult {
	started := time.Now()
	result := c.doPush(ctx, table, record)
	metricsx.ObserveSinkPushLatency(time.Since(started))
	metricsx.IncSinkPush(table, result.Success)
	return result
}

func (c *Client) doPush(ctx context.Context, table string, record any) DeliveryResult {
	body, err := json.Marshal(record)
	if err != nil {
		return DeliveryResult{Success: false, ErrorMessage: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/"+table, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Success: false, ErrorMessage: err.Error()}
	}
	c.setHeaders(req)
	if table == TableProducts {
		req.Header.Set("Prefer", preferUpsert)
	} else {
		req.Header.Set("Prefer", preferMinimal)
	}

	resp, err := c.pushClient.Do(req)
	if err != nil {
		return DeliveryResult{Success: false, ErrorMessage: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return DeliveryResult{
			Success:      false,
			StatusCode:   resp.StatusCode,
			ErrorMessage: fmt.Sprintf("sink push returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}
	io.Copy(io.Discard, resp.Body)
	return DeliveryResult{Success: true, StatusCode: resp.StatusCode}
}

// SyncBatch pushes each record independently, continuing past failures. The
// return value is the number of records the sink accepted.
func (c *Client) SyncBatch(ctx context.Context, table string, records []map[string]any) int {
	delivered := 0
	for _, record := range records {
		if res := c.push(ctx, table, record); res.Success {
			delivered++
		}
	}
	return delivered
}
