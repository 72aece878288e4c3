package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/aretw0/triage/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finished(t *testing.T) (*domain.Module, *domain.Session) {
	t.Helper()
	b := dsl.New("pediatrics").Title("Pediatrics")
	b.Add("P_FEVER_INPUT").Numeric("What is the child's temperature?", 35, 45, "°C").Go("P_BLOCK1_RESP").
		Add("P_BLOCK1_RESP").MultipleChoice("Breathing").
		Option("Noisy breathing in (stridor)", "STRIDOR", domain.SeverityB).
		Option("Flaring nostrils", "NASAL_FLARE", domain.SeverityB).
		Go("P_MINOR_D").
		Add("P_MINOR_D").Boolean("Well-child check-up?").Criticality(domain.SeverityD)
	m, err := b.Build()
	require.NoError(t, err)

	s := domain.NewSession("sess-42")
	s.ModuleID = "pediatrics"
	s.Status = domain.StatusComplete
	s.IsComplete = true
	s.MaxSeverity = domain.SeverityB
	s.History = []string{"P_FEVER_INPUT", "P_BLOCK1_RESP", "P_MINOR_D"}
	s.Answers = map[string]domain.Value{
		"P_FEVER_INPUT": domain.NumberValue(38.2),
		"P_BLOCK1_RESP": domain.ListValue("STRIDOR"),
		"P_MINOR_D":     domain.BoolValue(false),
	}
	s.PatientData = domain.PatientData{
		domain.KeyAgeMonths: domain.NumberValue(30),
		"P_FEVER_INPUT":     domain.NumberValue(38.2),
		"P_BLOCK1_RESP":     domain.ListValue("STRIDOR"),
		"P_MINOR_D":         domain.BoolValue(false),
	}
	return m, s
}

func TestNew(t *testing.T) {
	m, s := finished(t)
	now := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	h := report.New(m, s, now)

	assert.Equal(t, "Pediatrics", h.ModuleTitle)
	assert.Equal(t, domain.OutcomePriorityCallback, h.Outcome)
	assert.Equal(t, now, h.GeneratedAt)
	assert.Equal(t, []report.Line{
		{NodeID: "P_FEVER_INPUT", Question: "What is the child's temperature?", Answer: "38.2 °C"},
		{NodeID: "P_BLOCK1_RESP", Question: "Breathing", Answer: "Noisy breathing in (stridor)", Risk: domain.SeverityB},
		{NodeID: "P_MINOR_D", Question: "Well-child check-up?", Answer: "No"},
	}, h.Lines)
	assert.Equal(t, map[string]string{domain.KeyAgeMonths: "30"}, h.PatientData)
}

func TestNew_WithoutModule(t *testing.T) {
	_, s := finished(t)
	s.Status = domain.StatusCriticalStop
	h := report.New(nil, s, time.Now())

	assert.Equal(t, "pediatrics", h.ModuleTitle)
	assert.Equal(t, domain.OutcomeEmergencyCall, h.Outcome)
	require.Len(t, h.Lines, 3)
	assert.Equal(t, "P_BLOCK1_RESP", h.Lines[1].Question)
	assert.Equal(t, "STRIDOR", h.Lines[1].Answer)
}

func TestWritePDF(t *testing.T) {
	m, s := finished(t)
	var buf bytes.Buffer
	require.NoError(t, report.New(m, s, time.Now()).WritePDF(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)

	buf.Reset()
	empty := domain.NewSession("blank")
	require.NoError(t, report.New(nil, empty, time.Now()).WritePDF(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
