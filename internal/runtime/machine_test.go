package runtime_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartModule(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	t.Run("default entry", func(t *testing.T) {
		s, err := e.StartModule(ctx, domain.NewSession("s1"), "fever", "")
		require.NoError(t, err)
		assert.Equal(t, "s1", s.ID)
		assert.Equal(t, "SCREEN", s.CurrentNodeID)
		assert.Equal(t, "SCREEN", s.EntryNodeID)
		assert.Equal(t, domain.StatusInProgress, s.Status)
		assert.False(t, s.IsComplete)
	})

	t.Run("named entry", func(t *testing.T) {
		s, err := e.StartModule(ctx, domain.NewSession("s1"), "fever", "temperature")
		require.NoError(t, err)
		assert.Equal(t, "TEMP", s.CurrentNodeID)
	})

	t.Run("resets previous traversal", func(t *testing.T) {
		old := start(t, e, "", domain.PatientData{"ageMonths": domain.NumberValue(2)})
		old, err := e.AnswerQuestion(ctx, old, "SCREEN", domain.ListValue("NONE"), domain.SeverityC)
		require.NoError(t, err)

		s, err := e.StartModule(ctx, old, "fever", "RESP")
		require.NoError(t, err)
		assert.Empty(t, s.History)
		assert.Empty(t, s.Answers)
		assert.Empty(t, s.PatientData)
		assert.Equal(t, domain.SeverityNone, s.MaxSeverity)
		assert.Equal(t, "RESP", s.CurrentNodeID)
	})

	t.Run("unknown entry completes", func(t *testing.T) {
		s, err := e.StartModule(ctx, domain.NewSession("s1"), "fever", "GHOST")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusComplete, s.Status)
		assert.True(t, s.IsComplete)
		assert.Equal(t, domain.OutcomeScheduledConsultation, s.Outcome())
	})

	t.Run("unknown module completes", func(t *testing.T) {
		s, err := e.StartModule(ctx, nil, "cardiology", "")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusComplete, s.Status)
	})
}

func TestAnswerQuestion_CriticalStopBeforeBranching(t *testing.T) {
	ctx := context.Background()
	for _, halt := range []bool{true, false} {
		e := newEngine(t, runtime.WithHaltOnTopSeverity(halt))
		s := start(t, e, "", nil)

		next, err := e.AnswerQuestion(ctx, s, "SCREEN", domain.ListValue("UNCONSCIOUS", "BREATHING_FAST"), domain.SeverityNone)
		require.NoError(t, err)
		assert.Equal(t, domain.SeverityA, next.MaxSeverity)
		assert.Equal(t, domain.StatusCriticalStop, next.Status)
		assert.Equal(t, "SCREEN", next.CurrentNodeID, "current node is not advanced")
		assert.Equal(t, domain.OutcomeEmergencyCall, next.Outcome())

		_, err = e.SetNextQuestion(ctx, next, "TEMP")
		assert.ErrorIs(t, err, domain.ErrSessionTerminal)
		_, err = e.AnswerQuestion(ctx, next, "TEMP", domain.NumberValue(37), domain.SeverityNone)
		assert.ErrorIs(t, err, domain.ErrSessionTerminal)
		_, err = e.Submit(ctx, next, domain.NumberValue(37), domain.SeverityNone)
		assert.ErrorIs(t, err, domain.ErrSessionTerminal)
	}
}

func TestAnswerQuestion_BooleanCriticality(t *testing.T) {
	ctx := context.Background()
	m := &domain.Module{
		ID:    "adult",
		Entry: "CHEST",
		Nodes: map[string]*domain.Node{
			"CHEST": {ID: "CHEST", Type: domain.NodeTypeBoolean, Criticality: domain.SeverityA, Next: domain.Goto("AFTER")},
			"AFTER": {ID: "AFTER", Type: domain.NodeTypeBoolean},
		},
	}

	e := runtime.NewEngine(memory.NewLoader(m))
	s, err := e.StartModule(ctx, domain.NewSession("b"), "adult", "")
	require.NoError(t, err)

	s, err = e.Submit(ctx, s, domain.BoolValue(true), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityA, s.MaxSeverity)
	assert.Equal(t, domain.StatusCriticalStop, s.Status)
	assert.Equal(t, "CHEST", s.CurrentNodeID, "flow terminates without resolving next")

	// Only criticalStop nodes halt once the policy is off.
	e = runtime.NewEngine(memory.NewLoader(m), runtime.WithHaltOnTopSeverity(false))
	s, err = e.StartModule(ctx, domain.NewSession("b"), "adult", "")
	require.NoError(t, err)
	s, err = e.Submit(ctx, s, domain.BoolValue(true), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, s.Status)
	assert.Equal(t, "AFTER", s.CurrentNodeID)
}

func TestSubmit_MultipleChoiceTakesMax(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "RESP", nil)

	s, err := e.Submit(ctx, s, domain.ListValue("RETRACTIONS", "COUGH"), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityB, s.MaxSeverity)
	assert.Equal(t, "NOTES", s.CurrentNodeID)
	assert.Equal(t, domain.OutcomePriorityCallback, s.Outcome())
}

func TestSubmit_BranchesOnJustAnsweredValue(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	tests := []struct {
		name string
		seed domain.PatientData
		temp float64
		want domain.Status
		node string
	}{
		{"neonate with fever", domain.PatientData{"ageMonths": domain.NumberValue(2)}, 38.2, domain.StatusInProgress, "NEONATAL"},
		{"missing age counts as newborn", nil, 38.0, domain.StatusInProgress, "NEONATAL"},
		{"older child", domain.PatientData{"ageMonths": domain.NumberValue(5)}, 39.0, domain.StatusInProgress, "RESP"},
		{"neonate without fever", domain.PatientData{"ageMonths": domain.NumberValue(1)}, 37.2, domain.StatusInProgress, "RESP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := start(t, e, "temperature", tt.seed)
			s, err := e.Submit(ctx, s, domain.NumberValue(tt.temp), domain.SeverityNone)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Status)
			assert.Equal(t, tt.node, s.CurrentNodeID)

			got, ok := s.PatientData.Number("temperature")
			require.True(t, ok, "saveTo copies the answer")
			assert.Equal(t, tt.temp, got)
			assert.True(t, s.PatientData.Has("TEMP"))
		})
	}

	s := start(t, e, "temperature", domain.PatientData{"ageMonths": domain.NumberValue(2)})
	s, err := e.Submit(ctx, s, domain.NumberValue(38.5), domain.SeverityNone)
	require.NoError(t, err)
	s, err = e.Submit(ctx, s, domain.BoolValue(true), domain.SeverityNone)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCriticalStop, s.Status)
}

func TestSubmit_RunsToCompletion(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "", domain.PatientData{"ageMonths": domain.NumberValue(24)})

	answers := []domain.Value{
		domain.ListValue("UNCONSCIOUS", "NONE"),
		domain.NumberValue(37.5),
		domain.ListValue("COUGH"),
		domain.StringValue("started yesterday"),
	}
	for _, a := range answers {
		var err error
		s, err = e.Submit(ctx, s, a, domain.SeverityNone)
		require.NoError(t, err)
	}

	assert.Equal(t, domain.StatusComplete, s.Status)
	assert.True(t, s.IsComplete)
	assert.Equal(t, []string{"SCREEN", "TEMP", "RESP", "NOTES"}, s.History)
	assert.Equal(t, domain.SeverityD, s.MaxSeverity)
	assert.True(t, s.Answers["SCREEN"].Equal(domain.ListValue("NONE")), "exclusive option wins")
	assert.Equal(t, domain.OutcomeScheduledConsultation, s.Outcome())
}

func TestAnswerQuestion_ExplicitRisk(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "NOTES", nil)

	s, err := e.AnswerQuestion(ctx, s, "NOTES", domain.StringValue("dizzy"), domain.SeverityC)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityC, s.MaxSeverity)
	assert.Equal(t, domain.StatusInProgress, s.Status, "answering does not advance")
}

func TestAnswerQuestion_InputNotMutated(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "RESP", nil)

	next, err := e.AnswerQuestion(ctx, s, "RESP", domain.ListValue("COUGH"), domain.SeverityNone)
	require.NoError(t, err)
	assert.Empty(t, s.History)
	assert.Empty(t, s.Answers)
	assert.Equal(t, domain.SeverityNone, s.MaxSeverity)
	assert.Len(t, next.History, 1)
}

func TestTransitions_NotStarted(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := domain.NewSession("idle")

	_, err := e.AnswerQuestion(ctx, s, "SCREEN", domain.BoolValue(true), domain.SeverityNone)
	assert.ErrorIs(t, err, domain.ErrSessionNotStarted)
	_, err = e.SetNextQuestion(ctx, s, "TEMP")
	assert.ErrorIs(t, err, domain.ErrSessionNotStarted)
	_, err = e.Submit(ctx, nil, domain.BoolValue(true), domain.SeverityNone)
	assert.ErrorIs(t, err, domain.ErrSessionNotStarted)

	_, ok := e.Current(ctx, s)
	assert.False(t, ok)
}

func TestSetNextQuestion(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "", nil)

	next, err := e.SetNextQuestion(ctx, s, "RESP")
	require.NoError(t, err)
	assert.Equal(t, "RESP", next.CurrentNodeID)
	assert.Equal(t, domain.StatusInProgress, next.Status)
	assert.Empty(t, next.History, "history is unaffected")

	done, err := e.SetNextQuestion(ctx, next, "")
	require.NoError(t, err)
	assert.True(t, done.IsComplete)
	assert.Equal(t, domain.StatusComplete, done.Status)

	dangling, err := e.SetNextQuestion(ctx, next, "GHOST")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComplete, dangling.Status, "dangling reference degrades to end of flow")
	assert.Equal(t, "RESP", dangling.CurrentNodeID)
}

func TestSetPatientData(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "", domain.PatientData{"ageMonths": domain.NumberValue(2), "weight": domain.NumberValue(4)})

	s = e.SetPatientData(ctx, s, domain.PatientData{"ageMonths": domain.NumberValue(3)})
	age, _ := s.PatientData.Number("ageMonths")
	assert.Equal(t, 3.0, age, "last write wins")
	assert.True(t, s.PatientData.Has("weight"))
	assert.Empty(t, s.History)
	assert.Equal(t, domain.SeverityNone, s.MaxSeverity)
}

func TestNilSession(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	s := e.SetPatientData(ctx, nil, domain.PatientData{"ageMonths": domain.NumberValue(2)})
	require.NotNil(t, s)
	assert.Equal(t, domain.StatusNotStarted, s.Status)
	age, ok := s.PatientData.Number("ageMonths")
	assert.True(t, ok)
	assert.Equal(t, 2.0, age)

	p, err := e.Progress(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, runtime.Progress{Current: 1, Total: 1, Percent: 100}, p)

	assert.Equal(t, domain.NewSession(""), e.Reset(ctx, nil))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "", domain.PatientData{"ageMonths": domain.NumberValue(2)})
	s, err := e.Submit(ctx, s, domain.ListValue("UNCONSCIOUS"), domain.SeverityNone)
	require.NoError(t, err)
	require.True(t, s.Terminal())

	r := e.Reset(ctx, s)
	assert.Equal(t, domain.NewSession("s1"), r)

	r = e.Reset(ctx, r)
	assert.Equal(t, domain.NewSession("s1"), r, "reset from NotStarted is a no-op")
}

func TestCurrentAndProgress(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s := start(t, e, "", nil)

	n, ok := e.Current(ctx, s)
	require.True(t, ok)
	assert.Equal(t, "SCREEN", n.ID)

	p, err := e.Progress(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, runtime.Progress{Current: 1, Total: 4, Percent: 25}, p)
}

func TestAnswerQuestion_Invariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))
	m := feverModule()
	ids := m.NodeIDs()
	values := []domain.Value{
		domain.BoolValue(true), domain.BoolValue(false), domain.NumberValue(38.5),
		domain.StringValue("COUGH"), domain.ListValue("RETRACTIONS"), domain.ListValue("NONE"),
		domain.StringValue("text"),
	}
	levels := []domain.Severity{domain.SeverityNone, domain.SeverityD, domain.SeverityC, domain.SeverityB}

	for _, halt := range []bool{true, false} {
		e := newEngine(t, runtime.WithHaltOnTopSeverity(halt))
		for range 200 {
			s := start(t, e, "", nil)
			for range 12 {
				node := ids[rng.IntN(len(ids))]
				next, err := e.AnswerQuestion(ctx, s, node, values[rng.IntN(len(values))], levels[rng.IntN(len(levels))])
				if errors.Is(err, domain.ErrSessionTerminal) {
					require.True(t, s.Terminal())
					break
				}
				require.NoError(t, err)
				assert.GreaterOrEqual(t, next.MaxSeverity, s.MaxSeverity, "severity is monotonic")
				assert.Len(t, next.History, len(s.History)+1, "one history entry per answer")
				if next.MaxSeverity == domain.TopSeverity && halt {
					assert.Equal(t, domain.StatusCriticalStop, next.Status)
				}
				s = next
			}
		}
	}
}
