package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

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

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warmupStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	evidenceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	detailBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	filterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
)

// sessionUpdateMsg fires whenever the session manager commits a change
type sessionUpdateMsg struct{}

// readyMsg fires once when the liveness prober sees the service ready
type readyMsg struct{}

// evalMsg carries the result of an evaluation lookup
type evalMsg struct {
	eval *api.EvaluationResponse
	err  error
}

type model struct {
	mgr         *session.Manager
	evaluations *evalcache.Cache
	prober      *probe.Prober

	viewport  viewport.Model
	input     textinput.Model
	spin      spinner.Model
	width     int
	height    int
	sized     bool
	detail    string
	areaIdx   int // 0 = All, 1..n = catalog index+1
	sectIdx   int
	evaluated bool
}

func newModel(mgr *session.Manager, evaluations *evalcache.Cache, prober *probe.Prober) model {
	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		mgr:         mgr,
		evaluations: evaluations,
		prober:      prober,
		input:       ti,
		spin:        sp,
	}
}

func waitForUpdate(mgr *session.Manager) tea.Cmd {
	return func() tea.Msg {
		<-mgr.Updates()
		return sessionUpdateMsg{}
	}
}

func waitForReady(p *probe.Prober) tea.Cmd {
	return func() tea.Msg {
		<-p.ReadyChan()
		return readyMsg{}
	}
}

func (m model) Init() tea.Cmd {
	m.mgr.ScheduleAutoOpen()
	return tea.Batch(textinput.Blink, m.spin.Tick, waitForUpdate(m.mgr), waitForReady(m.prober))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width, maxInt(msg.Height-7, 3))
		m.sized = true
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			m.detail = ""
			m.refreshTranscript()
			return m, nil

		case "enter":
			question := m.input.Value()
			if m.mgr.Submit(context.Background(), question) {
				m.input.SetValue("")
				m.refreshTranscript()
			}
			return m, nil

		case "ctrl+o":
			m.mgr.ToggleOpen()
			m.refreshTranscript()
			return m, nil

		case "ctrl+a":
			m.areaIdx = (m.areaIdx + 1) % (len(catalog.ProductAreas) + 1)
			m.applyFilters()
			return m, nil

		case "ctrl+s":
			m.sectIdx = (m.sectIdx + 1) % (len(catalog.Sections) + 1)
			m.applyFilters()
			return m, nil

		case "ctrl+x":
			m.areaIdx, m.sectIdx = 0, 0
			m.applyFilters()
			return m, nil

		case "ctrl+v":
			if evidence := m.lastEvidence(); evidence != nil {
				m.detail = renderContext(evidence)
				m.refreshTranscript()
			}
			return m, nil

		case "ctrl+e":
			if evidence := m.lastEvidence(); evidence != nil && evidence.QueryID != "" {
				m.detail = "Evaluating query..."
				m.refreshTranscript()
				queryID := evidence.QueryID
				return m, func() tea.Msg {
					eval, err := m.evaluations.Lookup(context.Background(), queryID)
					return evalMsg{eval: eval, err: err}
				}
			}
			return m, nil
		}

	case sessionUpdateMsg:
		m.refreshTranscript()
		cmds = append(cmds, waitForUpdate(m.mgr))

	case readyMsg:
		m.refreshTranscript()

	case evalMsg:
		if msg.err != nil {
			m.detail = "Failed to load evaluation data."
		} else {
			m.detail = renderEvaluation(msg.eval)
		}
		m.refreshTranscript()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) applyFilters() {
	area, section := "", ""
	if m.areaIdx > 0 {
		area = catalog.ProductAreas[m.areaIdx-1]
	}
	if m.sectIdx > 0 {
		section = catalog.Sections[m.sectIdx-1]
	}
	m.mgr.SetFilters(area, section)
}

func (m *model) lastEvidence() *api.QueryResponse {
	view := m.mgr.View()
	for i := len(view.Messages) - 1; i >= 0; i-- {
		if view.Messages[i].Evidence != nil {
			return view.Messages[i].Evidence
		}
	}
	return nil
}

func (m *model) refreshTranscript() {
	if !m.sized {
		return
	}
	if m.detail != "" {
		m.viewport.SetContent(detailBoxStyle.Width(m.width - 2).Render(m.detail) + "\n" + helpStyle.Render("esc to return"))
		m.viewport.GotoTop()
		return
	}

	view := m.mgr.View()
	var b strings.Builder
	for _, msg := range view.Messages {
		if msg.Role == session.RoleUser {
			b.WriteString(userStyle.Render("You: "))
		} else {
			b.WriteString(botStyle.Render("Bot: "))
		}
		b.WriteString(msg.Text)
		b.WriteString("\n")
		if msg.Evidence != nil {
			b.WriteString(evidenceStyle.Render("  ctrl+v view context · ctrl+e evaluate"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.width).Render(b.String()))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.sized {
		return "loading..."
	}

	view := m.mgr.View()

	if !view.Open {
		hint := "The chat panel is closed. Press ctrl+o to open it."
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			headerStyle.Render("💬 FAQ")+"\n\n"+helpStyle.Render(hint))
	}

	status := statusStyle.Render("Online")
	if !view.Ready {
		status = warmupStyle.Render(m.spin.View() + "Server is waking up...")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("HRCare Support"), " ", status)

	filters := filterStyle.Render(fmt.Sprintf("Product area: %s · Section: %s",
		orAll(view.ProductArea), orAll(view.Section)))

	inputLine := m.input.View()
	if view.Pending {
		inputLine = m.spin.View() + " thinking..."
	}

	help := helpStyle.Render("enter send · ctrl+a area · ctrl+s section · ctrl+x clear · ctrl+v context · ctrl+e evaluate · ctrl+o close · ctrl+c quit")

	return strings.Join([]string{header, filters, m.viewport.View(), inputLine, help}, "\n")
}

func renderContext(evidence *api.QueryResponse) string {
	if evidence.NoContextFound {
		return "No supporting context was found for this answer."
	}
	var b strings.Builder
	if len(evidence.Sources) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n\n", strings.Join(evidence.Sources, ", "))
	}
	for i, item := range evidence.ContextUsed {
		fmt.Fprintf(&b, "Fragment %d: %s (%s, similarity %.2f)\n%s\n\n",
			i+1, item.Section, item.SectionID, item.SimilarityScore, item.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderEvaluation(eval *api.EvaluationResponse) string {
	hallucination := "No"
	if eval.PossibleHallucination {
		hallucination = "Yes"
	}
	return fmt.Sprintf(
		"Query Evaluation\n\nQuery ID: %s\nQuestion: %s\nAnswer: %s\nVerdict: %s\nConfidence: %.1f%%\nPossible hallucination: %s\nReasoning: %s",
		eval.QueryID, eval.Question, eval.Answer, eval.Verdict,
		eval.Confidence*100, hallucination, eval.Reasoning)
}

func orAll(value string) string {
	if value == "" {
		return "All"
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func main() {
	_ = godotenv.Load()

	cfg := config.Default()
	var configFile string
	flag.StringVar(&configFile, "config", "hrcarechat.toml", "Path to TOML config file")
	flag.BoolVar(&cfg.FreshStart, "fresh", false, "Start a new session (clears the session-tier state)")
	flag.Parse()

	if err := config.LoadFile(&cfg, configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read environment: %v\n", err)
		os.Exit(1)
	}

	logger, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize telemetry: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	st, err := store.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open state store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()
	if cfg.FreshStart {
		st.ClearTier(store.TierSession)
	}

	client := api.NewClient(cfg.ServiceURL, logger, tracer, meter)
	dispatcher := dispatch.New(client, logger)
	prober := probe.New(client.CheckHealth, probe.DefaultInterval, logger)
	defer prober.Stop()
	evaluations := evalcache.New(client.Evaluate, logger)
	mgr := session.NewManager(st, dispatcher, prober.Ready, logger)

	p := tea.NewProgram(newModel(mgr, evaluations, prober), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
