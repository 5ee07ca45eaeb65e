// Package assistant is the terminal chat application: it wires the session
// manager, dispatcher, liveness prober and evaluation cache together and
// drives them from a line-based prompt.
package assistant

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"HRCareChat/internal/api"
	"HRCareChat/internal/catalog"
	"HRCareChat/internal/config"
	"HRCareChat/internal/dispatch"
	"HRCareChat/internal/evalcache"
	"HRCareChat/internal/probe"
	"HRCareChat/internal/session"
	"HRCareChat/internal/store"
	"HRCareChat/internal/telemetry"
)

// Assistant represents the main application
type Assistant struct {
	config      config.Config
	store       *store.SQLiteStore
	client      *api.Client
	dispatcher  *dispatch.Dispatcher
	prober      *probe.Prober
	evaluations *evalcache.Cache
	session     *session.Manager
	logger      *slog.Logger
	cleanup     func()
}

// New creates a fully wired Assistant
func New(cfg config.Config) (*Assistant, error) {
	logger, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()
	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	st, err := store.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if cfg.FreshStart {
		// A fresh start is the terminal analog of closing the browser tab:
		// the environment, not the session core, clears the session tier.
		st.ClearTier(store.TierSession)
	}

	client := api.NewClient(cfg.ServiceURL, logger, tracer, meter)
	dispatcher := dispatch.New(client, logger)
	prober := probe.New(client.CheckHealth, probe.DefaultInterval, logger)
	evaluations := evalcache.New(client.Evaluate, logger)
	mgr := session.NewManager(st, dispatcher, prober.Ready, logger)

	logger.Info("assistant initialized", "service_url", cfg.ServiceURL)

	return &Assistant{
		config:      cfg,
		store:       st,
		client:      client,
		dispatcher:  dispatcher,
		prober:      prober,
		evaluations: evaluations,
		session:     mgr,
		logger:      logger,
		cleanup:     cleanup,
	}, nil
}

// Close releases the prober, store and telemetry
func (a *Assistant) Close() {
	a.prober.Stop()
	a.session.CancelAutoOpen()
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
	a.cleanup()
}

// Run starts the interactive prompt
func (a *Assistant) Run() error {
	defer a.Close()

	fmt.Println("=== HRCare Support ===")
	if !a.prober.Ready() {
		fmt.Println("Server is waking up. Please wait a minute or two while our server starts up.")
	}
	fmt.Println("Type /help for commands, /quit to exit")
	fmt.Println()

	a.session.ScheduleAutoOpen()
	a.printTranscript()

	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldQuit, err := a.handleCommand(ctx, input)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				a.logger.Error("command error", "error", err)
			}
			if shouldQuit {
				break
			}
			continue
		}

		a.ask(ctx, input)
	}

	fmt.Println("Goodbye!")
	return nil
}

// ask submits one question and blocks until the answer (or failure) lands
func (a *Assistant) ask(ctx context.Context, question string) {
	if !a.session.Submit(ctx, question) {
		return
	}

	fmt.Println("...")
	for a.session.Pending() {
		<-a.session.Updates()
	}

	view := a.session.View()
	if len(view.Messages) == 0 {
		return
	}
	last := view.Messages[len(view.Messages)-1]
	a.printMessage(len(view.Messages)-1, last)
}

// handleCommand handles slash commands
func (a *Assistant) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/open", "/close":
		a.session.ToggleOpen()
		if a.session.Open() {
			fmt.Println("Chat panel opened")
		} else {
			fmt.Println("Chat panel closed")
		}
		return false, nil

	case "/history":
		a.printTranscript()
		return false, nil

	case "/reset":
		a.session.Reset()
		fmt.Println("Conversation cleared")
		a.printTranscript()
		return false, nil

	case "/suggest":
		fmt.Println("Suggested questions:")
		for _, q := range catalog.SuggestedQuestions {
			fmt.Printf("  %s\n", q)
		}
		return false, nil

	case "/filters":
		view := a.session.View()
		fmt.Printf("Product area: %s\n", orAll(view.ProductArea))
		fmt.Printf("Section:      %s\n", orAll(view.Section))
		fmt.Println("Product areas:")
		for i, area := range catalog.ProductAreas {
			fmt.Printf("  %2d. %s\n", i+1, area)
		}
		fmt.Println("Sections:")
		for i, sec := range catalog.Sections {
			fmt.Printf("  %2d. %s\n", i+1, sec)
		}
		fmt.Println("Use /area <n>, /section <n>, /clear-filters")
		return false, nil

	case "/area":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /area <number from /filters>")
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 1 || idx > len(catalog.ProductAreas) {
			return false, fmt.Errorf("unknown product area: %s", parts[1])
		}
		view := a.session.View()
		a.session.SetFilters(catalog.ProductAreas[idx-1], view.Section)
		fmt.Printf("Product area set to %s\n", catalog.ProductAreas[idx-1])
		return false, nil

	case "/section":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /section <number from /filters>")
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 1 || idx > len(catalog.Sections) {
			return false, fmt.Errorf("unknown section: %s", parts[1])
		}
		view := a.session.View()
		a.session.SetFilters(view.ProductArea, catalog.Sections[idx-1])
		fmt.Printf("Section set to %s\n", catalog.Sections[idx-1])
		return false, nil

	case "/clear-filters":
		a.session.SetFilters("", "")
		fmt.Println("Filters cleared")
		return false, nil

	case "/context":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /context <message number from /history>")
		}
		return false, a.showContext(parts[1])

	case "/evaluate":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /evaluate <message number from /history>")
		}
		return false, a.showEvaluation(ctx, parts[1])

	case "/metrics":
		return false, a.showMetrics(ctx)

	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /quit, /exit        - Exit the assistant")
		fmt.Println("  /history            - Show the conversation")
		fmt.Println("  /reset              - Clear the conversation")
		fmt.Println("  /suggest            - Show suggested questions")
		fmt.Println("  /filters            - Show scoping filters and options")
		fmt.Println("  /area <n>           - Filter by product area")
		fmt.Println("  /section <n>        - Filter by section")
		fmt.Println("  /clear-filters      - Remove active filters")
		fmt.Println("  /context <n>        - Show the evidence behind answer n")
		fmt.Println("  /evaluate <n>       - Evaluate the reliability of answer n")
		fmt.Println("  /metrics            - Show the service metrics dashboard")
		fmt.Println("  /open, /close       - Toggle the chat panel flag")
		return false, nil

	default:
		return false, nil
	}
}

// evidenceAt resolves a /history message number to its evidence payload
func (a *Assistant) evidenceAt(arg string) (*api.QueryResponse, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("not a message number: %s", arg)
	}
	view := a.session.View()
	if n < 1 || n > len(view.Messages) {
		return nil, fmt.Errorf("no message %d", n)
	}
	msg := view.Messages[n-1]
	if msg.Evidence == nil {
		return nil, fmt.Errorf("message %d carries no evidence", n)
	}
	return msg.Evidence, nil
}

// showContext prints the retrieved fragments behind one answer
func (a *Assistant) showContext(arg string) error {
	evidence, err := a.evidenceAt(arg)
	if err != nil {
		return err
	}

	if evidence.NoContextFound {
		fmt.Println("No supporting context was found for this answer.")
		return nil
	}
	if len(evidence.Sources) > 0 {
		fmt.Printf("Sources: %s\n", strings.Join(evidence.Sources, ", "))
	}
	for i, item := range evidence.ContextUsed {
		fmt.Printf("--- Fragment %d: %s (%s, similarity %.2f)\n",
			i+1, item.Section, item.SectionID, item.SimilarityScore)
		fmt.Println(item.Content)
	}
	return nil
}

// showEvaluation fetches (or recalls) the reliability assessment of an answer
func (a *Assistant) showEvaluation(ctx context.Context, arg string) error {
	evidence, err := a.evidenceAt(arg)
	if err != nil {
		return err
	}
	if evidence.QueryID == "" {
		return fmt.Errorf("answer has no query id to evaluate")
	}

	fmt.Println("Evaluating query...")
	eval, err := a.evaluations.Lookup(ctx, evidence.QueryID)
	if err != nil {
		fmt.Println("Failed to load evaluation data.")
		return nil
	}

	fmt.Printf("Query ID:   %s\n", eval.QueryID)
	fmt.Printf("Question:   %s\n", eval.Question)
	fmt.Printf("Answer:     %s\n", eval.Answer)
	fmt.Printf("Verdict:    %s\n", eval.Verdict)
	fmt.Printf("Confidence: %.1f%%\n", eval.Confidence*100)
	if eval.PossibleHallucination {
		fmt.Println("Possible hallucination: Yes")
	} else {
		fmt.Println("Possible hallucination: No")
	}
	fmt.Printf("Reasoning:  %s\n", eval.Reasoning)
	return nil
}

// showMetrics renders the peripheral dashboard from the metrics endpoint
func (a *Assistant) showMetrics(ctx context.Context) error {
	metrics, err := a.client.Metrics(ctx)
	if err != nil {
		fmt.Println("Failed to load metrics. Please try again.")
		a.logger.Warn("metrics fetch failed", "error", err)
		return nil
	}

	fmt.Println("=== Query Metrics ===")
	fmt.Printf("Requests: %d  Successes: %d  Failures: %d  Error rate: %.1f%%\n",
		metrics.TotalRequests, metrics.Successes, metrics.Failures, metrics.ErrorRate*100)
	fmt.Printf("Latency: avg %.0fms  p50 %.0fms  p95 %.0fms  Throughput: %.2f/s\n",
		metrics.AvgLatency, metrics.P50Latency, metrics.P95Latency, metrics.Throughput)
	fmt.Printf("Tokens: %d total (%d prompt, %d completion)\n",
		metrics.TotalTokens, metrics.TotalPrompt, metrics.TotalCompletion)
	fmt.Printf("Cost: $%.6f total ($%.6f embedding, $%.6f LLM)\n",
		metrics.TotalCost, metrics.TotalEmbeddingCost, metrics.TotalLlmCost)
	for _, insight := range metrics.Insights {
		fmt.Printf("Insight: %s\n", insight)
	}
	if len(metrics.Recent) > 0 {
		fmt.Println("Recent queries:")
		for _, q := range metrics.Recent {
			status := "ok"
			if !q.Success {
				status = "failed"
			}
			fmt.Printf("  [%s] %s (%.0fms, %d tokens, %s)\n",
				q.Timestamp, q.QuestionSnippet, q.LatencyMs, q.TotalTokens, status)
		}
	}
	return nil
}

// printTranscript renders the whole log with message numbers
func (a *Assistant) printTranscript() {
	view := a.session.View()
	for i, msg := range view.Messages {
		a.printMessage(i, msg)
	}
}

// printMessage renders one message; i is its zero-based log position
func (a *Assistant) printMessage(i int, msg session.Message) {
	who := "You"
	if msg.Role == session.RoleAssistant {
		who = "Bot"
	}
	fmt.Printf("[%d] %s: %s\n", i+1, who, msg.Text)
	if msg.Evidence != nil {
		fmt.Printf("    (evidence available: /context %d, /evaluate %d)\n", i+1, i+1)
	}
	fmt.Println()
}

func orAll(value string) string {
	if value == "" {
		return "All"
	}
	return value
}
