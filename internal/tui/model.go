// Package tui is a terminal chat client over the question answering
// services, meant for local experiments without the HTTP server.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// ChatPort is the TUI-facing subset of the chat service.
type ChatPort interface {
	AskDocuments(ctx context.Context, query string, history []domain.ConversationTurn) (string, error)
	AskTransactions(ctx context.Context, query string, history []domain.ConversationTurn) (string, error)
}

// answerTimeout bounds one question round trip.
const answerTimeout = 90 * time.Second

// Corpus labels shown in the status line and cycled with Tab.
const (
	corpusDocuments    = "documents"
	corpusTransactions = "transactions"
)

// answerMsg carries one completed round trip back into Update.
type answerMsg struct {
	question string
	answer   string
	err      error
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	chat     ChatPort
	input    textinput.Model
	viewport viewport.Model
	history  []domain.ConversationTurn
	corpus   string
	status   string
	summary  string
	ready    bool
	waiting  bool
}

// New creates a new chat TUI model.
func New(chat ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		chat:     chat,
		input:    ti,
		viewport: vp,
		corpus:   corpusDocuments,
		summary:  summary,
		status:   "Ready. Tab switches corpus, Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2 // header + summary
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = append(m.history,
				domain.ConversationTurn{Role: domain.RoleUser, Content: msg.question},
				domain.ConversationTurn{Role: domain.RoleAssistant, Content: msg.answer},
			)
			m.status = fmt.Sprintf("Answered from %s.", m.corpus)
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Thinking..."
				m.input.Reset()
				return m, m.ask(q)
			}
		case "tab":
			if m.corpus == corpusDocuments {
				m.corpus = corpusTransactions
			} else {
				m.corpus = corpusDocuments
			}
			m.status = "Corpus: " + m.corpus
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the update loop so typing stays responsive.
func (m Model) ask(question string) tea.Cmd {
	chat := m.chat
	corpus := m.corpus
	history := append([]domain.ConversationTurn(nil), m.history...)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), answerTimeout)
		defer cancel()

		var (
			answer string
			err    error
		)
		if corpus == corpusTransactions {
			answer, err = chat.AskTransactions(ctx, question, history)
		} else {
			answer, err = chat.AskDocuments(ctx, question, history)
		}
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("finrag chat (" + m.corpus + ")")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.history) == 0 {
		return "No messages yet. Ask something."
	}
	var b strings.Builder
	for i, turn := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if turn.Role == domain.RoleUser {
			b.WriteString(userStyle.Render("You: "))
		} else {
			b.WriteString(assistantStyle.Render("Assistant: "))
		}
		b.WriteString(turn.Content)
	}
	return b.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
