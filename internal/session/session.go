// Package session owns the conversation: the ordered message log, the
// pending-question state machine, persistence across reloads and the
// one-shot auto-open behavior of the chat panel.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"HRCareChat/internal/api"
	"HRCareChat/internal/store"
)

// Message author roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Store keys. The message log and open flag live in the session tier; the
// auto-open marker is durable so the panel pops up at most once ever.
const (
	keyMessages   = "chatMessages"
	keyOpen       = "chatOpen"
	keyAutoOpened = "chatAutoOpened"
)

// AutoOpenDelay is how long the landing view waits before opening the panel
const AutoOpenDelay = 3 * time.Second

// Greeting seeds a fresh or unrecoverable log
const Greeting = "Hello! 👋 I'm your HRCare RAG-powered assistant. I'm designed to help answer " +
	"questions based on HRCare's internal documentation using Retrieval-Augmented Generation (RAG) " +
	"technology. Feel free to ask me anything about HRCare features, account management, SSO, " +
	"billing, hiring, onboarding, and more!"

// Message is one immutable entry in the conversation log. Evidence is set
// only on assistant messages that carried a successful answer.
type Message struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	Evidence  *api.QueryResponse `json:"evidence,omitempty"`
}

// State of the question/answer cycle
type State int

const (
	// Idle means no request is outstanding
	Idle State = iota
	// Awaiting means one user question is dispatched and unresolved
	Awaiting
)

// String implements fmt.Stringer
func (s State) String() string {
	if s == Awaiting {
		return "awaiting"
	}
	return "idle"
}

// View is the read-only snapshot consumed by presentation
type View struct {
	Messages    []Message
	Pending     bool
	ProductArea string
	Section     string
	Open        bool
	Ready       bool
}

// Dispatcher is the outbound query path (see internal/dispatch)
type Dispatcher interface {
	Dispatch(ctx context.Context, question string, filters *api.QueryFilters) (*api.QueryResponse, error)
}

// Manager is the session state machine. It is the single writer of the
// message log; everything else observes through View.
type Manager struct {
	store      store.Store
	dispatcher Dispatcher
	readyFn    func() bool
	logger     *slog.Logger

	mu            sync.Mutex
	messages      []Message
	state         State
	productArea   string
	section       string
	open          bool
	autoOpenTimer *time.Timer

	updates chan struct{}
}

// NewManager restores state from st and wires the dispatcher. readyFn gates
// the "service warming up" signal; nil means always ready.
func NewManager(st store.Store, dispatcher Dispatcher, readyFn func() bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if readyFn == nil {
		readyFn = func() bool { return true }
	}

	m := &Manager{
		store:      st,
		dispatcher: dispatcher,
		readyFn:    readyFn,
		logger:     logger,
		updates:    make(chan struct{}, 1),
	}
	m.restore()
	return m
}

// Updates signals after every committed state change. The channel carries no
// data; consumers re-read View.
func (m *Manager) Updates() <-chan struct{} {
	return m.updates
}

// View returns a consistent snapshot of the session
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := make([]Message, len(m.messages))
	copy(messages, m.messages)
	return View{
		Messages:    messages,
		Pending:     m.state == Awaiting,
		ProductArea: m.productArea,
		Section:     m.section,
		Open:        m.open,
		Ready:       m.readyFn(),
	}
}

// Pending reports whether a question is awaiting its answer
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Awaiting
}

// SetFilters selects the active scoping filters. Empty string clears a filter.
func (m *Manager) SetFilters(productArea, section string) {
	m.mu.Lock()
	m.productArea = productArea
	m.section = section
	m.mu.Unlock()
	m.notify()
}

// Submit appends the user's question and dispatches it. It reports whether
// the submission was accepted: blank questions and submissions while a
// question is already pending are silent no-ops.
func (m *Manager) Submit(ctx context.Context, question string) bool {
	if strings.TrimSpace(question) == "" {
		return false
	}

	m.mu.Lock()
	if m.state == Awaiting {
		m.mu.Unlock()
		return false
	}

	m.messages = append(m.messages, Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      question,
		Timestamp: time.Now(),
	})
	m.state = Awaiting
	filters := m.filtersLocked()
	m.persistLocked()
	m.mu.Unlock()
	m.notify()

	go func() {
		resp, err := m.dispatcher.Dispatch(ctx, question, filters)
		m.onDispatchResult(resp, err)
	}()
	return true
}

// onDispatchResult merges the dispatcher outcome into the log and returns the
// machine to Idle. Failures become an assistant-authored error message; the
// session stays usable either way.
func (m *Manager) onDispatchResult(resp *api.QueryResponse, err error) {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
	if err != nil {
		msg.Text = fmt.Sprintf("Sorry, I encountered an error: %s. Please try again.", err.Error())
	} else {
		msg.Text = resp.Answer
		msg.Evidence = resp
	}

	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.state = Idle
	m.persistLocked()
	m.mu.Unlock()
	m.notify()
}

// Reset discards the log and reseeds the greeting
func (m *Manager) Reset() {
	m.mu.Lock()
	m.messages = []Message{greetingMessage()}
	m.state = Idle
	m.persistLocked()
	m.mu.Unlock()
	m.notify()
}

// Open reports whether the chat panel is open
func (m *Manager) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// ToggleOpen flips the panel open/closed and persists the flag. Opening by
// any means cancels a pending auto-open.
func (m *Manager) ToggleOpen() {
	m.mu.Lock()
	m.open = !m.open
	if m.open {
		m.cancelAutoOpenLocked()
	}
	m.store.Set(store.TierSession, keyOpen, fmt.Sprintf("%t", m.open))
	m.mu.Unlock()
	m.notify()
}

// ScheduleAutoOpen arms the one-shot auto-open timer. It fires after
// AutoOpenDelay, only if the panel is still closed, the session is Idle and
// auto-open has never fired before on this device.
func (m *Manager) ScheduleAutoOpen() {
	m.scheduleAutoOpenAfter(AutoOpenDelay)
}

func (m *Manager) scheduleAutoOpenAfter(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.autoOpenTimer != nil || m.open || m.state != Idle {
		return
	}
	if fired, _ := m.store.Get(store.TierDurable, keyAutoOpened); fired == "true" {
		return
	}

	m.autoOpenTimer = time.AfterFunc(delay, m.autoOpenFire)
}

// CancelAutoOpen disarms a scheduled auto-open, e.g. when the view changes
func (m *Manager) CancelAutoOpen() {
	m.mu.Lock()
	m.cancelAutoOpenLocked()
	m.mu.Unlock()
}

func (m *Manager) cancelAutoOpenLocked() {
	if m.autoOpenTimer != nil {
		m.autoOpenTimer.Stop()
		m.autoOpenTimer = nil
	}
}

func (m *Manager) autoOpenFire() {
	m.mu.Lock()
	m.autoOpenTimer = nil

	// Conditions are re-checked at fire time: the panel may have opened or a
	// question may have started while the timer was pending.
	if m.open || m.state != Idle {
		m.mu.Unlock()
		return
	}
	if fired, _ := m.store.Get(store.TierDurable, keyAutoOpened); fired == "true" {
		m.mu.Unlock()
		return
	}

	m.open = true
	m.store.Set(store.TierSession, keyOpen, "true")
	m.store.Set(store.TierDurable, keyAutoOpened, "true")
	m.logger.Info("chat panel auto-opened")
	m.mu.Unlock()
	m.notify()
}

// restore hydrates the log and open flag from the session tier. Absent or
// corrupt data falls back to the canned greeting; restore never fails.
func (m *Manager) restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = []Message{greetingMessage()}
	if raw, ok := m.store.Get(store.TierSession, keyMessages); ok {
		var saved []Message
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			m.logger.Warn("failed to restore message log, reseeding greeting", "error", err)
		} else if len(saved) > 0 {
			m.messages = saved
		}
	}

	if flag, ok := m.store.Get(store.TierSession, keyOpen); ok {
		m.open = flag == "true"
	}
	m.state = Idle
}

// persistLocked writes the full log to the session tier. Serialization and
// store failures are absorbed; the conversation continues in memory.
func (m *Manager) persistLocked() {
	data, err := json.Marshal(m.messages)
	if err != nil {
		m.logger.Warn("failed to serialize message log", "error", err)
		return
	}
	m.store.Set(store.TierSession, keyMessages, string(data))
}

func (m *Manager) filtersLocked() *api.QueryFilters {
	if m.productArea == "" && m.section == "" {
		return nil
	}
	return &api.QueryFilters{ProductArea: m.productArea, Section: m.section}
}

func (m *Manager) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

func greetingMessage() Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Text:      Greeting,
		Timestamp: time.Now(),
	}
}
