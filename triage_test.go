package triage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/aretw0/triage/pkg/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_BuiltinPediatricFever(t *testing.T) {
	ctx := context.Background()
	engine, err := triage.New("")
	require.NoError(t, err)

	infos, err := engine.Modules(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 4)

	s, err := engine.StartModule(ctx, domain.NewSession("baby"), modules.Pediatrics, "")
	require.NoError(t, err)
	s = engine.SetPatientData(ctx, s, domain.PatientData{domain.KeyAgeMonths: domain.NumberValue(2)})

	node, ok := engine.Current(ctx, s)
	require.True(t, ok)
	assert.Equal(t, "P_A_INITIAL", node.ID)

	s, err = engine.Submit(ctx, s, domain.ListValue(), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, "P_FEVER_INPUT", s.CurrentNodeID)

	s, err = engine.Submit(ctx, s, domain.NumberValue(38.5), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, "P_FEVER_CRITICAL_STOP", s.CurrentNodeID)

	p, err := engine.Progress(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Current)

	s, err = engine.Submit(ctx, s, domain.BoolValue(true), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCriticalStop, s.Status)
	assert.Equal(t, domain.OutcomeEmergencyCall, s.Outcome())
	assert.Equal(t, "P_FEVER_CRITICAL_STOP", s.CurrentNodeID)

	_, err = engine.Submit(ctx, s, domain.BoolValue(true), domain.SeverityNone)
	assert.ErrorIs(t, err, domain.ErrSessionTerminal)

	reset := engine.Reset(ctx, s)
	assert.Equal(t, "baby", reset.ID)
	assert.Equal(t, domain.StatusNotStarted, reset.Status)
	assert.Empty(t, reset.History)
	assert.Equal(t, domain.SeverityNone, reset.MaxSeverity)
}

func TestFacade_HaltOnTopSeverity(t *testing.T) {
	b := dsl.New("chest")
	b.Add("PAIN").Boolean("Chest pain?").Criticality(domain.SeverityA).Go("MORE")
	b.Add("MORE").Text("Anything else?")
	loader, err := b.Loader()
	require.NoError(t, err)

	tests := []struct {
		name   string
		halt   bool
		status domain.Status
		node   string
	}{
		{"halts by default", true, domain.StatusCriticalStop, "PAIN"},
		{"only critical stops when off", false, domain.StatusInProgress, "MORE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			engine, err := triage.New("", triage.WithLoader(loader), triage.WithHaltOnTopSeverity(tt.halt))
			require.NoError(t, err)

			s, err := engine.StartModule(ctx, nil, "chest", "")
			require.NoError(t, err)
			s, err = engine.Submit(ctx, s, domain.BoolValue(true), domain.SeverityNone)
			require.NoError(t, err)

			assert.Equal(t, domain.SeverityA, s.MaxSeverity)
			assert.Equal(t, tt.status, s.Status)
			assert.Equal(t, tt.node, s.CurrentNodeID)
		})
	}
}

func TestFacade_LoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `
id: knee
nodes:
  - id: SWOLLEN
    type: boolean
    text: Is the knee swollen?
    criticality: C
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "knee.yaml"), []byte(doc), 0o644))

	engine, err := triage.New(dir)
	require.NoError(t, err)
	m, err := engine.Module(context.Background(), "knee")
	require.NoError(t, err)
	assert.Equal(t, "SWOLLEN", m.Entry)

	_, err = engine.Module(context.Background(), modules.Adults)
	assert.ErrorIs(t, err, domain.ErrModuleNotFound, "a directory replaces the built-ins")

	_, err = triage.New(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestResolveNext_FirstMatchWins(t *testing.T) {
	b := dsl.New("m")
	b.Add("AGE").Numeric("Age?", 0, 120, "").
		Branch("AGE < 3", "N2").
		Branch("AGE < 10", "N4").
		Otherwise("N3")
	m, err := b.Build()
	require.NoError(t, err)
	n, _ := m.Node("AGE")

	assert.Equal(t, "N2", triage.ResolveNext(n, domain.PatientData{"AGE": domain.NumberValue(2)}))
	assert.Equal(t, "N3", triage.ResolveNext(n, domain.PatientData{"AGE": domain.NumberValue(50)}))
}

func TestEstimateTotalSteps_Cycle(t *testing.T) {
	b := dsl.New("loop")
	b.Add("A").Boolean("Again?").Branch("A == true", "A").Otherwise("B")
	b.Add("B").Text("Done?")
	m, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, triage.EstimateTotalSteps(m, "A"))
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(triage.Version))
}
