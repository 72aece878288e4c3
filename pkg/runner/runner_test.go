package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symptomModule(t *testing.T) *memory.Loader {
	t.Helper()
	b := dsl.New("symptoms").Title("Symptoms")
	b.Add("SYMPTOMS").MultipleChoice("Which symptoms do you have?").
		Option("Cough", "COUGH", domain.SeverityD).
		Option("Fever", "FEVER", domain.SeverityC).
		Exclusive("None of these", "NONE").
		Go("TEMP").
		Add("TEMP").Numeric("Temperature?", 35, 45, "°C").
		Branch("TEMP >= 39", "ALERT").
		Otherwise("NOTES").
		Add("ALERT").Boolean("Any difficulty breathing?").Criticality(domain.SeverityA).Go("NOTES").
		Add("NOTES").Text("Anything else?")
	loader, err := b.Loader()
	require.NoError(t, err)
	return loader
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	loader := symptomModule(t)
	return session.NewManager(runtime.NewEngine(loader), loader, memory.NewStore(),
		session.WithIDGenerator(func() string { return "sess-1" }))
}

func run(t *testing.T, input string) (*domain.Session, string, error) {
	t.Helper()
	ctx := context.Background()
	mgr := newManager(t)
	s, err := mgr.Start(ctx, "symptoms", "", nil)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := runner.NewRunner(mgr, runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), out)))

	type result struct {
		s   *domain.Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := r.Run(ctx, s.ID)
		done <- result{s, err}
	}()
	select {
	case res := <-done:
		return res.s, out.String(), res.err
	case <-time.After(2 * time.Second):
		t.Fatal("Runner timed out")
		return nil, "", nil
	}
}

func TestRunner_CompletesFlow(t *testing.T) {
	s, out, err := run(t, "1,2\n38,2\nnothing else\n")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusComplete, s.Status)
	assert.Equal(t, domain.SeverityC, s.MaxSeverity)
	assert.Equal(t, []string{"SYMPTOMS", "TEMP", "NOTES"}, s.History)
	assert.Equal(t, domain.StringValue("nothing else"), s.Answers["NOTES"])

	assert.Contains(t, out, "Which symptoms do you have?")
	assert.Contains(t, out, "  3) None of these")
	assert.Contains(t, out, "(number between 35 and 45, in °C)")
	assert.Contains(t, out, "[1/")
	assert.Contains(t, out, "Triage complete: Book a consultation with your doctor.")
}

func TestRunner_RetriesInvalidAnswers(t *testing.T) {
	s, out, err := run(t, "7\n\n40\nyes\n")
	require.NoError(t, err)

	assert.Contains(t, out, `[System] invalid answer for SYMPTOMS: no option "7"`)
	assert.Equal(t, domain.StatusCriticalStop, s.Status)
	assert.Equal(t, "ALERT", s.CurrentNodeID)
	assert.Contains(t, out, "Warning signs detected: Call the emergency number now.")
}

func TestRunner_ExitKeepsSession(t *testing.T) {
	s, _, err := run(t, "2\nquit\n")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, s.Status)
	assert.Equal(t, "TEMP", s.CurrentNodeID)
}

func TestRunner_EOF(t *testing.T) {
	s, _, err := run(t, "")
	require.NoError(t, err)
	assert.Equal(t, "SYMPTOMS", s.CurrentNodeID)
}

func TestRunner_MaxRetries(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)
	s, err := mgr.Start(ctx, "symptoms", "", nil)
	require.NoError(t, err)

	r := runner.NewRunner(mgr,
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("x\ny\nz\n"), &bytes.Buffer{})),
		runner.WithMaxRetries(2),
	)
	_, err = r.Run(ctx, s.ID)
	assert.ErrorIs(t, err, runner.ErrTooManyRetries)
}

func TestRunner_JSONHandler(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)
	s, err := mgr.Start(ctx, "symptoms", "", nil)
	require.NoError(t, err)

	in := strings.NewReader("[\"NONE\"]\n\"36.6\"\n\"ok\"\n")
	out := &bytes.Buffer{}
	r := runner.NewRunner(mgr, runner.WithInputHandler(runner.NewJSONHandler(in, out)))

	final, err := r.Run(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, final.IsComplete)
	assert.Equal(t, domain.ListValue("NONE"), final.Answers["SYMPTOMS"])

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"id":"SYMPTOMS"`)
	assert.Contains(t, lines[3], `"outcome":"scheduled_consultation"`)
	assert.Contains(t, lines[3], `"terminal":true`)
}

func TestLoadOrStart(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t)

	s, resumed, err := runner.LoadOrStart(ctx, mgr, "kiosk-1", "symptoms", "", nil)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, "kiosk-1", s.ID)

	_, _, err = mgr.Submit(ctx, "kiosk-1", domain.ListValue("COUGH"), domain.SeverityNone)
	require.NoError(t, err)

	s, resumed, err = runner.LoadOrStart(ctx, mgr, "kiosk-1", "symptoms", "", nil)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, "TEMP", s.CurrentNodeID)

	s, resumed, err = runner.LoadOrStart(ctx, mgr, "", "symptoms", "", nil)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, "sess-1", s.ID)

	_, _, err = runner.LoadOrStart(ctx, mgr, "kiosk-2", "unknown", "", nil)
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)
}
