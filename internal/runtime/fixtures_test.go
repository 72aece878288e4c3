package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/triage/internal/runtime"
	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/require"
)

func cond(expr string) *domain.Condition {
	c := domain.MustParseCondition(expr)
	return &c
}

func num(v float64) *float64 { return &v }

// feverModule is a small pediatric-style graph: an emergency screen, a
// temperature question that branches on age, and two follow-up blocks.
func feverModule() *domain.Module {
	return &domain.Module{
		ID:           "fever",
		Title:        "Fever",
		Entry:        "SCREEN",
		Entries:      map[string]string{"temperature": "TEMP"},
		RequiredData: []string{domain.KeyAgeMonths},
		Nodes: map[string]*domain.Node{
			"SCREEN": {
				ID: "SCREEN", Type: domain.NodeTypeMultipleChoice, CriticalStop: true,
				Options: []domain.Option{
					{Label: "Unconscious", Value: domain.StringValue("UNCONSCIOUS"), RiskLevel: domain.SeverityA},
					{Label: "Fast breathing", Value: domain.StringValue("BREATHING_FAST"), RiskLevel: domain.SeverityA},
					{Label: "None", Value: domain.StringValue("NONE"), Exclusive: true},
				},
				Next: domain.Goto("TEMP"),
			},
			"TEMP": {
				ID: "TEMP", Type: domain.NodeTypeNumeric, Min: num(35), Max: num(45), Unit: "°C", SaveTo: "temperature",
				Next: domain.Branches(
					domain.Branch{To: "NEONATAL", When: cond("ageMonths ?? 0 < 3 && temperature >= 38")},
					domain.Branch{To: "RESP"},
				),
			},
			"NEONATAL": {
				ID: "NEONATAL", Type: domain.NodeTypeInfo, Criticality: domain.SeverityA, CriticalStop: true,
				Options: []domain.Option{{Label: "Understood", Value: domain.BoolValue(true), RiskLevel: domain.SeverityA}},
			},
			"RESP": {
				ID: "RESP", Type: domain.NodeTypeMultipleChoice,
				Options: []domain.Option{
					{Label: "Retractions", Value: domain.StringValue("RETRACTIONS"), RiskLevel: domain.SeverityB},
					{Label: "Cough", Value: domain.StringValue("COUGH"), RiskLevel: domain.SeverityD},
				},
				Next: domain.Goto("NOTES"),
			},
			"NOTES": {ID: "NOTES", Type: domain.NodeTypeText},
		},
	}
}

func newEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	return runtime.NewEngine(memory.NewLoader(feverModule()), opts...)
}

func start(t *testing.T, e *runtime.Engine, entry string, seed domain.PatientData) *domain.Session {
	t.Helper()
	ctx := context.Background()
	s, err := e.StartModule(ctx, domain.NewSession("s1"), "fever", entry)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, s.Status)
	return e.SetPatientData(ctx, s, seed)
}
