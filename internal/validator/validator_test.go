package validator_test

import (
	"testing"

	"github.com/aretw0/triage/internal/validator"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *dsl.Builder) *domain.Module {
	t.Helper()
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestValidate_Valid(t *testing.T) {
	b := dsl.New("fever").
		Requires(domain.KeyAgeMonths).
		NamedEntry("temperature", "TEMP")
	b.Add("SCREEN").MultipleChoice("Warning signs?").CriticalStop().
		Option("Unconscious", "UNCONSCIOUS", domain.SeverityA).
		Exclusive("None", "NONE").
		Go("TEMP").
		Add("TEMP").Numeric("Temperature?", 35, 45, "°C").
		Branch("ageMonths < 3 && TEMP >= 38", "NEONATAL").
		Otherwise("NOTES").
		Add("NEONATAL").Info("Emergency").Criticality(domain.SeverityA).CriticalStop().
		Add("NOTES").Text("Anything else?")
	m := build(t, b)

	assert.NoError(t, validator.Validate(m))
	assert.Empty(t, validator.Check(m))
}

func TestCheck_Issues(t *testing.T) {
	lo, hi := 10.0, 1.0
	m := &domain.Module{
		ID:      "broken",
		Entry:   "START",
		Entries: map[string]string{"alt": "GHOST_ENTRY"},
		Nodes: map[string]*domain.Node{
			"START": {
				ID: "START", Type: domain.NodeTypeSingleChoice, CriticalStop: true,
				Options: []domain.Option{
					{Label: "Yes", Value: domain.StringValue("Y"), RiskLevel: domain.SeverityB},
					{Label: "Also yes", Value: domain.StringValue("Y")},
				},
				Next: domain.Branches(
					domain.Branch{To: "COUNT", When: &domain.Condition{Op: domain.OpEq, Key: "weight", Value: domain.NumberValue(3)}},
					domain.Branch{To: "GHOST"},
				),
			},
			"COUNT":  {ID: "COUNT", Type: domain.NodeTypeNumeric, Min: &lo, Max: &hi},
			"PICK":   {ID: "PICK", Type: domain.NodeTypeMultipleChoice},
			"ORPHAN": {ID: "ORPHAN", Type: domain.NodeTypeText},
		},
	}

	var got []string
	for _, issue := range validator.Check(m) {
		got = append(got, issue.String())
	}
	assert.Equal(t, []string{
		`error: entry "alt" points to missing node "GHOST_ENTRY"`,
		`error: node COUNT: min 10 is greater than max 1`,
		`error: node PICK: multiple_choice question has no options`,
		`error: node START: next node "GHOST" not found`,
		`error: node START: duplicate option value "Y"`,
		`warning: node START: branch to COUNT reads "weight", which no question or required data provides`,
		`warning: node START: criticalStop is set but no answer reaches severity A`,
		`warning: node ORPHAN: unreachable from any entry`,
		`warning: node PICK: unreachable from any entry`,
	}, got)

	err := validator.Validate(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module broken has 5 errors")
	var report *validator.Report
	require.ErrorAs(t, err, &report)
	assert.Len(t, report.Issues, 9)
	assert.Len(t, report.Errors(), 5)
}

func TestCheck_MissingEntry(t *testing.T) {
	m := &domain.Module{ID: "empty", Entry: "NOPE", Nodes: map[string]*domain.Node{}}
	issues := validator.Check(m)
	require.Len(t, issues, 1)
	assert.False(t, issues[0].Warning)

	assert.Error(t, validator.Validate(nil))
}

func TestReachable(t *testing.T) {
	b := dsl.New("wh").
		Entry("PREG").
		NamedEntry("postpartum", "POST")
	b.Add("PREG").Boolean("Bleeding?").Go("PREG_2").
		Add("PREG_2").Boolean("Pain?").
		Add("POST").Boolean("Fever?").
		Add("LOST").Boolean("Never asked")
	m := build(t, b)

	assert.Equal(t, map[string]bool{"PREG": true, "PREG_2": true, "POST": true}, validator.Reachable(m))
}
