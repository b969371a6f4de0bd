package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datafill/internal/etl"
)

// ── HTTP Source ─────────────────────────────────────────────
// Fetches records from a REST endpoint returning JSON.

// maxResponseBytes caps the response body read by the HTTP source.
var maxResponseBytes int64 = 32 << 20

type httpSource struct {
	client *http.Client
}

func init() { etl.RegisterSource(&httpSource{client: &http.Client{Timeout: 30 * time.Second}}) }

func (s *httpSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "http",
		Label: "HTTP API",
		ConfigFields: []etl.ConfigField{
			{Key: "url", Label: "URL", Type: "string", Required: true, Help: "Full URL to fetch"},
			{Key: "method", Label: "Method", Type: "select", Required: false, Options: []string{"GET", "POST"}, Default: "GET"},
			{Key: "headers", Label: "Headers", Type: "textarea", Required: false, Help: "JSON object of headers (e.g., {\"Authorization\": \"Bearer xxx\"})"},
			{Key: "body", Label: "Body", Type: "textarea", Required: false, Help: "Request body (for POST)"},
			{Key: "dataPath", Label: "Data Path", Type: "string", Required: false, Help: "Dot-separated path to the records in the response"},
		},
	}
}

func (s *httpSource) Fetch(ctx context.Context, cfg etl.SourceConfig) ([]byte, error) {
	url, _ := cfg["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	method, _ := cfg["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if body, ok := cfg["body"].(string); ok && body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if headersStr, ok := cfg["headers"].(string); ok && headersStr != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(headersStr), &headers); err != nil {
			return nil, fmt.Errorf("parse headers: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)
	}

	dataPath, _ := cfg["dataPath"].(string)
	return navigatePath(data, dataPath)
}
