package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func testClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(baseURL, logger, otel.Tracer("test"), otel.Meter("test"))
}

func TestQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/query" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("content-type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if req.Question != "How do I enable SSO?" {
			t.Errorf("unexpected question %q", req.Question)
		}
		if req.Filters == nil || req.Filters.Section != "Single Sign-On (SSO)" {
			t.Errorf("unexpected filters %+v", req.Filters)
		}
		json.NewEncoder(w).Encode(QueryResponse{
			Answer:  "Enable it under Settings.",
			QueryID: "q-1",
			Sources: []string{"SSO Guide"},
			ContextUsed: []ContextItem{
				{Content: "Go to Settings > SSO.", Section: "Single Sign-On (SSO)", SectionID: "sso-1", SimilarityScore: 0.91},
			},
		})
	}))
	defer server.Close()

	resp, err := testClient(server.URL).Query(context.Background(), QueryRequest{
		Question: "How do I enable SSO?",
		Filters:  &QueryFilters{Section: "Single Sign-On (SSO)"},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if resp.Answer != "Enable it under Settings." || resp.QueryID != "q-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.ContextUsed) != 1 || resp.ContextUsed[0].SimilarityScore != 0.91 {
		t.Fatalf("unexpected context: %+v", resp.ContextUsed)
	}
}

func TestQueryOmitsEmptyFilters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "filters") {
			t.Errorf("nil filters should be omitted from the body: %s", body)
		}
		json.NewEncoder(w).Encode(QueryResponse{Answer: "ok"})
	}))
	defer server.Close()

	if _, err := testClient(server.URL).Query(context.Background(), QueryRequest{Question: "hi"}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
}

func TestQueryNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "waking up", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Query(context.Background(), QueryRequest{Question: "hi"})
	if err == nil {
		t.Fatal("expected an error for a 503 response")
	}
	if !strings.Contains(err.Error(), "API error: 503") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/query/evaluate/q-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(EvaluationResponse{
			QueryID:    "q-1",
			Verdict:    VerdictReliable,
			Confidence: 0.95,
		})
	}))
	defer server.Close()

	eval, err := testClient(server.URL).Evaluate(context.Background(), "q-1")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if eval.Verdict != VerdictReliable || eval.Confidence != 0.95 {
		t.Fatalf("unexpected evaluation: %+v", eval)
	}
}

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/query/metrics" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{
			"totalRequests": 42,
			"errorRate": 0.05,
			"p95Latency": 1800.5,
			"recent": [{"queryId": "q-1", "latencyMs": 950, "total_tokens": 512, "success": true}]
		}`)
	}))
	defer server.Close()

	metrics, err := testClient(server.URL).Metrics(context.Background())
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if metrics.TotalRequests != 42 || metrics.P95Latency != 1800.5 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if len(metrics.Recent) != 1 || metrics.Recent[0].QueryID != "q-1" || metrics.Recent[0].TotalTokens != 512 {
		t.Fatalf("unexpected recent queries: %+v", metrics.Recent)
	}
}

func TestCheckHealth(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead || r.URL.Path != "/health" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(status)
	}))

	client := testClient(server.URL)
	if !client.CheckHealth(context.Background()) {
		t.Fatal("200 should report ready")
	}

	status = http.StatusServiceUnavailable
	if client.CheckHealth(context.Background()) {
		t.Fatal("503 should report not ready")
	}

	server.Close()
	if client.CheckHealth(context.Background()) {
		t.Fatal("an unreachable service should report not ready")
	}
}
