package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2dd4bf"))
	questionStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#38bdf8"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

var outcomeText = map[domain.Outcome]string{
	domain.OutcomeEmergencyCall:         "Call the emergency number now.",
	domain.OutcomePriorityCallback:      "A clinician will call you back as a priority.",
	domain.OutcomeScheduledConsultation: "Book a consultation with your doctor.",
}

type submittedMsg struct {
	session *domain.Session
	view    *runner.View
}

type errMsg struct{ err error }

// Model is the interactive questionnaire. Answers go through the session
// manager, so a session quit halfway can be resumed later.
type Model struct {
	ctx     context.Context
	manager *session.Manager
	title   string

	view     *runner.View
	input    textinput.Model
	cursor   int
	selected []string
	busy     bool
	err      error
	width    int
}

// NewModel builds the model for a started session.
func NewModel(ctx context.Context, manager *session.Manager, s *domain.Session) (*Model, error) {
	view, err := runner.Describe(ctx, manager.Loader(), s)
	if err != nil {
		return nil, err
	}
	ti := textinput.New()
	ti.CharLimit = runner.DefaultMaxInputSize
	ti.Width = 40

	m := &Model{
		ctx:     ctx,
		manager: manager,
		input:   ti,
	}
	if mod, err := manager.Loader().GetModule(ctx, s.ModuleID); err == nil {
		m.title = mod.Title
	}
	m.show(view)
	return m, nil
}

// Session returns the latest state of the session.
func (m *Model) Session() *domain.Session { return m.view.Session }

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) show(v *runner.View) {
	m.view = v
	m.cursor = 0
	m.selected = nil
	m.err = nil
	m.input.Reset()
	if q := v.Question; q != nil && usesInput(q) {
		m.input.Placeholder = placeholder(q)
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func usesInput(n *domain.Node) bool {
	return n.Type == domain.NodeTypeNumeric || n.Type == domain.NodeTypeText
}

func placeholder(n *domain.Node) string {
	if n.Type != domain.NodeTypeNumeric {
		return "type your answer"
	}
	if n.Unit != "" {
		return "number in " + n.Unit
	}
	return "number"
}

// choices lists what the cursor moves over: options, or Yes/No.
func (m *Model) choices() []domain.Option {
	q := m.view.Question
	switch {
	case q == nil:
		return nil
	case q.Type == domain.NodeTypeBoolean:
		return []domain.Option{
			{Label: "Yes", Value: domain.BoolValue(true)},
			{Label: "No", Value: domain.BoolValue(false)},
		}
	case q.Type.IsChoice():
		return q.Options
	}
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case submittedMsg:
		m.busy = false
		m.show(msg.view)
		return m, nil

	case errMsg:
		m.busy = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		}
		if m.view.Terminal || m.view.Question == nil {
			switch msg.String() {
			case "q", "enter":
				return m, tea.Quit
			}
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.view.Question
	key := msg.String()

	if usesInput(q) {
		if key == "enter" {
			return m.submitRaw(m.input.Value())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	opts := m.choices()
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(opts)-1 {
			m.cursor++
		}
	case "y":
		if q.Type == domain.NodeTypeBoolean {
			return m.submit(domain.BoolValue(true))
		}
	case "n":
		if q.Type == domain.NodeTypeBoolean {
			return m.submit(domain.BoolValue(false))
		}
	case " ", "x":
		if q.Type == domain.NodeTypeMultipleChoice && m.cursor < len(opts) {
			m.selected = q.ToggleOption(m.selected, opts[m.cursor].Value.String())
		}
	case "enter":
		switch {
		case q.Type == domain.NodeTypeMultipleChoice:
			return m.submit(domain.ListValue(m.selected...))
		case q.Type == domain.NodeTypeInfo:
			return m.submitRaw("")
		case m.cursor < len(opts):
			return m.submit(opts[m.cursor].Value)
		}
	}
	return m, nil
}

func (m *Model) submitRaw(raw string) (tea.Model, tea.Cmd) {
	v, err := runner.ParseAnswer(m.view.Question, raw)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m.submit(v)
}

func (m *Model) submit(answer domain.Value) (tea.Model, tea.Cmd) {
	if err := m.view.Question.CheckAnswer(answer); err != nil {
		m.err = err
		return m, nil
	}
	m.busy = true
	id := m.view.Session.ID
	return m, func() tea.Msg {
		_, next, err := m.manager.Submit(m.ctx, id, answer, domain.SeverityNone)
		if err != nil {
			return errMsg{err}
		}
		view, err := runner.Describe(m.ctx, m.manager.Loader(), next)
		if err != nil {
			return errMsg{err}
		}
		return submittedMsg{session: next, view: view}
	}
}

func (m *Model) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	if m.view.Terminal {
		b.WriteString(m.outcomeView())
		return b.String()
	}
	q := m.view.Question
	if q == nil {
		b.WriteString("Nothing to ask.\n")
		return b.String()
	}

	p := m.view.Progress
	b.WriteString(hintStyle.UnsetMarginTop().Render(fmt.Sprintf("Question %d of about %d", p.Current, p.Total)))
	b.WriteString("\n\n")
	b.WriteString(questionStyle.Render(q.Text))
	b.WriteString("\n")

	if usesInput(q) {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if q.Type != domain.NodeTypeInfo {
		for i, o := range m.choices() {
			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}
			mark := ""
			if q.Type == domain.NodeTypeMultipleChoice {
				mark = "[ ] "
				if slices.Contains(m.selected, o.Value.String()) {
					mark = "[x] "
				}
			}
			fmt.Fprintf(&b, "%s%s%s\n", cursor, mark, o.Label)
		}
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render(keyHint(q)))
	b.WriteString("\n")
	return b.String()
}

func keyHint(n *domain.Node) string {
	switch n.Type {
	case domain.NodeTypeMultipleChoice:
		return "↑/↓ move · space select · enter confirm · esc quit"
	case domain.NodeTypeBoolean:
		return "y/n or ↑/↓ and enter · esc quit"
	case domain.NodeTypeInfo:
		return "enter continue · esc quit"
	case domain.NodeTypeSingleChoice:
		return "↑/↓ move · enter confirm · esc quit"
	}
	return "enter confirm · esc quit"
}

func (m *Model) outcomeView() string {
	s := m.view.Session
	title := "Triage complete"
	color := severityColors[s.MaxSeverity]
	if s.Status == domain.StatusCriticalStop {
		title = "Warning signs detected"
		color = severityColors[domain.TopSeverity]
	}
	if color == "" {
		color = "#22c55e"
	}
	body := fmt.Sprintf("%s\n\n%s\n\nSeverity: %s\nAnswered: %d\n\nPress enter to exit.",
		lipgloss.NewStyle().Bold(true).Render(title),
		outcomeText[m.view.Outcome],
		s.MaxSeverity,
		len(s.History),
	)
	return boxStyle.BorderForeground(lipgloss.Color(color)).Render(body)
}

// Run shows the interactive questionnaire for s until the user finishes or
// quits, and returns the session as it was left.
func Run(ctx context.Context, manager *session.Manager, s *domain.Session, opts ...tea.ProgramOption) (*domain.Session, error) {
	m, err := NewModel(ctx, manager, s)
	if err != nil {
		return nil, err
	}
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return m.Session(), err
	}
	return final.(*Model).Session(), nil
}
