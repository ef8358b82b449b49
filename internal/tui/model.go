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

	"minirag/internal/domain"
	"minirag/internal/lexical"
)

// AskPort is the TUI-facing subset of the question-answering API.
type AskPort interface {
	Query(ctx context.Context, query string) (domain.AnswerResult, error)
}

type answerMsg struct {
	query  string
	result domain.AnswerResult
	err    error
}

// Model is the Bubble Tea model for the interactive ask screen.
type Model struct {
	port      AskPort
	timeout   time.Duration
	input     textinput.Model
	viewport  viewport.Model
	result    *domain.AnswerResult
	header    string
	summary   string
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates the ask screen. header names the server or document, summary
// is shown under it when non-empty.
func New(port AskPort, header, summary string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return Model{
		port:     port,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		header:   header,
		summary:  summary,
		status:   "Ready. Up/Down switch sources, Ctrl+C quits.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	port, timeout := m.port, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := port.Query(ctx, q)
		return answerMsg{query: q, result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 3 + 1 + qh + 1 // header, summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.render())
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			res := msg.result
			m.result = &res
			m.cursor = 0
			m.lastQuery = msg.query
			m.status = fmt.Sprintf("Answered %q in %.2fs", msg.query, res.Timing)
		}
		m.viewport.SetContent(m.render())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, m.ask(q)
			}
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.header)
	summary := dimStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) sourceCount() int {
	if m.result == nil {
		return 0
	}
	return len(m.result.Sources)
}

func (m Model) render() string {
	if m.result == nil {
		return "No answer yet."
	}
	r := m.result
	var b strings.Builder
	b.WriteString(answerStyle.Render(r.Answer))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"%.2fs  tokens: %d prompt + %d output = %d  est. cost $%.6f",
		r.Timing, r.TokenUsage.PromptTokens, r.TokenUsage.OutputTokens, r.TokenUsage.TotalLLMTokens, r.CostBreakdown.TotalCost)))
	if len(r.Sources) == 0 {
		b.WriteString("\n\nNo sources.")
		return b.String()
	}
	src := r.Sources[m.cursor]
	fmt.Fprintf(&b, "\n\n[%d] Source %d/%d  %s, chunk %d\n\n",
		m.cursor+1, m.cursor+1, len(r.Sources), src.Metadata.Source, src.Metadata.Position)
	b.WriteString(highlightBestSentence(src.Content, m.lastQuery))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// highlightBestSentence emphasizes the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	sentences := lexical.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	q := lexical.WordSet(query)
	if len(q) == 0 {
		return strings.Join(sentences, " ")
	}
	best, bestScore := 0, -1
	for i, s := range sentences {
		score := 0
		for w := range lexical.WordSet(s) {
			if _, ok := q[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	sentences[best] = highlightStyle.Render(sentences[best])
	return strings.Join(sentences, " ")
}
