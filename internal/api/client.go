// Package api is the HTTP client for the remote question-answering service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Client talks to the remote RAG service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewClient creates a service client rooted at baseURL
func NewClient(baseURL string, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
	}
}

// Query sends one question to POST /api/v1/query
func (c *Client) Query(ctx context.Context, request QueryRequest) (*QueryResponse, error) {
	ctx, span := c.tracer.Start(ctx, "query_api_call")
	defer span.End()

	start := time.Now()

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/query", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResp QueryResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.recordDuration(ctx, time.Since(start))

	return &apiResp, nil
}

// Evaluate fetches the reliability assessment for a past query
func (c *Client) Evaluate(ctx context.Context, queryID string) (*EvaluationResponse, error) {
	ctx, span := c.tracer.Start(ctx, "evaluate_api_call")
	defer span.End()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/query/evaluate/"+queryID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResp EvaluationResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.recordDuration(ctx, time.Since(start))

	return &apiResp, nil
}

// Metrics fetches the aggregate counters for the dashboard
func (c *Client) Metrics(ctx context.Context) (*MetricsResponse, error) {
	ctx, span := c.tracer.Start(ctx, "metrics_api_call")
	defer span.End()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/query/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	var apiResp MetricsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.recordDuration(ctx, time.Since(start))

	return &apiResp, nil
}

// CheckHealth issues HEAD /health. Any 2xx status means ready; any other
// status or a transport failure means not ready. It never returns an error.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "health_probe")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, "HEAD", c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// recordDuration records the shared request-duration histogram
func (c *Client) recordDuration(ctx context.Context, duration time.Duration) {
	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}
}
