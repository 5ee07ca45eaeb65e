package api

// VerdictReliable is the one recognized verdict value. The server may return
// other strings; treat the set as open.
const VerdictReliable = "RELIABLE"

// QueryFilters narrows retrieval to one product area and/or section
type QueryFilters struct {
	ProductArea string `json:"product_area,omitempty"`
	Section     string `json:"section,omitempty"`
}

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Question string        `json:"question"`
	Filters  *QueryFilters `json:"filters,omitempty"`
}

// ContextItem is one retrieved documentation fragment backing an answer
type ContextItem struct {
	Content         string  `json:"content"`
	Section         string  `json:"section"`
	SectionID       string  `json:"section_id"`
	SimilarityScore float64 `json:"similarity_score"`
}

// QueryResponse is the answer plus its supporting evidence
type QueryResponse struct {
	Answer         string        `json:"answer"`
	ContextUsed    []ContextItem `json:"context_used"`
	NoContextFound bool          `json:"no_context_found"`
	QueryID        string        `json:"query_id"`
	Sources        []string      `json:"sources"`
}

// EvaluationResponse is the reliability assessment of one prior exchange
type EvaluationResponse struct {
	QueryID               string  `json:"query_id"`
	Question              string  `json:"question"`
	Answer                string  `json:"answer"`
	Verdict               string  `json:"verdict"`
	Confidence            float64 `json:"confidence"`
	PossibleHallucination bool    `json:"possible_hallucination"`
	Reasoning             string  `json:"reasoning"`
}

// RecentQuery is one sampled request in the metrics feed
type RecentQuery struct {
	Timestamp        string  `json:"timestamp"`
	LatencyMs        float64 `json:"latencyMs"`
	TotalTokens      int     `json:"total_tokens"`
	TokensPrompt     int     `json:"tokens_prompt"`
	TokensCompletion int     `json:"tokens_completion"`
	CostUsd          float64 `json:"costUsd"`
	EmbeddingCostUsd float64 `json:"embeddingCostUsd"`
	LlmCostUsd       float64 `json:"llmCostUsd"`
	Success          bool    `json:"success"`
	Error            string  `json:"error"`
	QuestionSnippet  string  `json:"questionSnippet"`
	QueryID          string  `json:"queryId"`
}

// MetricsResponse is the aggregate counter payload consumed by the dashboard
type MetricsResponse struct {
	TotalRequests      int           `json:"totalRequests"`
	Successes          int           `json:"successes"`
	Failures           int           `json:"failures"`
	ErrorRate          float64       `json:"errorRate"`
	AvgLatency         float64       `json:"avgLatency"`
	P50Latency         float64       `json:"p50Latency"`
	P95Latency         float64       `json:"p95Latency"`
	Throughput         float64       `json:"throughput"`
	TotalTokens        int           `json:"totalTokens"`
	TotalPrompt        int           `json:"totalPrompt"`
	TotalCompletion    int           `json:"totalCompletion"`
	TotalCost          float64       `json:"totalCost"`
	TotalEmbeddingCost float64       `json:"totalEmbeddingCost"`
	TotalLlmCost       float64       `json:"totalLlmCost"`
	Insights           []string      `json:"insights"`
	Recent             []RecentQuery `json:"recent"`
}
