package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/triage/internal/presentation/graph"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func module(t *testing.T) *domain.Module {
	t.Helper()
	b := dsl.New("fever")
	b.Add("P-TEMP").Numeric("Temperature?", 35, 45, "°C").
		SaveTo("temp").
		Branch(`ageMonths ?? 0 < 3 && temp >= 38`, "STOP").
		Otherwise("SYMPTOMS")
	b.Add("STOP").Info("Go to the emergency room.").
		Criticality(domain.SeverityA).CriticalStop().
		Option("Understood", true, domain.SeverityA).
		Terminal()
	b.Add("SYMPTOMS").MultipleChoice("Which ones?").
		Option("Rash", "RASH", domain.SeverityB).
		Go("NOTES")
	b.Add("NOTES").Text("Anything else?")
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestGenerateMermaid(t *testing.T) {
	got := graph.GenerateMermaid(module(t), nil)

	tests := []struct {
		name string
		want string
	}{
		{"entry shape", `P_TEMP(("P-TEMP <br/> numeric"))`},
		{"critical stop shape", `STOP{{"STOP <br/> info · A"}}`},
		{"choice shape", `SYMPTOMS[/"SYMPTOMS <br/> multiple_choice"/]`},
		{"plain shape", `NOTES["NOTES <br/> text"]`},
		{"conditional edge", `P_TEMP -- "ageMonths ?? 0 < 3 && temp >= 38" --> STOP`},
		{"fallback edge", `P_TEMP -- "else" --> SYMPTOMS`},
		{"direct edge", "SYMPTOMS --> NOTES"},
		{"end edge", "NOTES --> __end"},
		{"critical class", "class STOP critical;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, got, tt.want)
		})
	}
	assert.NotContains(t, got, "classDef visited")
	assert.True(t, strings.HasPrefix(got, "graph TD\n"))
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	s := domain.NewSession("s1")
	s.Status = domain.StatusInProgress
	s.History = []string{"P-TEMP", "GHOST", "P-TEMP"}
	s.CurrentNodeID = "SYMPTOMS"

	got := graph.GenerateMermaid(module(t), graph.OverlayOf(s))
	assert.Equal(t, 1, strings.Count(got, "class P_TEMP visited;"))
	assert.NotContains(t, got, "GHOST")
	assert.Contains(t, got, "class SYMPTOMS current;")

	s.Status = domain.StatusComplete
	assert.Empty(t, graph.OverlayOf(s).Current)
	assert.Nil(t, graph.OverlayOf(nil))
}
