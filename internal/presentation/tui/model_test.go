package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/aretw0/triage/pkg/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	b := dsl.New("intake").Title("Intake")
	b.Add("CHEST").Boolean("Chest pain?").Criticality(domain.SeverityA).Go("SYMPTOMS").
		Add("SYMPTOMS").MultipleChoice("Which symptoms?").
		Option("Cough", "COUGH", domain.SeverityD).
		Option("Fever", "FEVER", domain.SeverityC).
		Exclusive("None", "NONE").
		Go("TEMP").
		Add("TEMP").Numeric("Temperature?", 35, 45, "°C")
	loader, err := b.Loader()
	require.NoError(t, err)

	ctx := context.Background()
	mgr := session.NewManager(runtime.NewEngine(loader), loader, memory.NewStore())
	s, err := mgr.Start(ctx, "intake", "", nil)
	require.NoError(t, err)

	m, err := NewModel(ctx, mgr, s)
	require.NoError(t, err)
	return m
}

// press feeds keys into the model, running any command they return.
func press(t *testing.T, m *Model, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		_, cmd := m.Update(k)
		if cmd == nil || !m.busy {
			continue
		}
		m.Update(cmd())
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestModel_Flow(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "Chest pain?")
	assert.Contains(t, m.View(), "No")

	press(t, m, runes("n"))
	require.Equal(t, "SYMPTOMS", m.Session().CurrentNodeID)

	press(t, m, space, down, space)
	assert.Equal(t, []string{"COUGH", "FEVER"}, m.selected)
	assert.Contains(t, m.View(), "[x] Fever")

	press(t, m, down, space)
	assert.Equal(t, []string{"NONE"}, m.selected, "exclusive option clears the others")

	press(t, m, enter)
	require.Equal(t, "TEMP", m.Session().CurrentNodeID)
	assert.True(t, m.input.Focused())

	press(t, m, runes("99"), enter)
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "invalid answer for TEMP")

	m.input.SetValue("37")
	press(t, m, enter)
	s := m.Session()
	assert.True(t, s.IsComplete)
	assert.Equal(t, domain.SeverityNone, s.MaxSeverity)
	assert.Contains(t, m.View(), "Triage complete")

	_, cmd := m.Update(enter)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_CriticalStop(t *testing.T) {
	m := newTestModel(t)
	press(t, m, enter)

	s := m.Session()
	assert.Equal(t, domain.StatusCriticalStop, s.Status)
	view := m.View()
	assert.Contains(t, view, "Warning signs detected")
	assert.Contains(t, view, "Call the emergency number now.")
}

func TestHighlighter_PlainWriter(t *testing.T) {
	hl := NewHighlighter(&bytes.Buffer{})
	assert.Equal(t, "alert", hl(domain.SeverityA, "alert"))
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "Adults")
	assert.True(t, strings.Contains(buf.String(), "Adults"))
}
