package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Module(t *testing.T) {
	b := dsl.New("screening").
		Title("Quick screening").
		Describe("Two questions").
		NamedEntry("age", "AGE").
		Requires(domain.KeyAgeMonths)

	b.Add("CHEST_PAIN").
		Boolean("Chest pain?").
		Criticality(domain.SeverityA).
		CriticalStop().
		Go("AGE").
		Add("AGE").
		Numeric("Age?", 0, 120, "years").
		SaveTo("age").
		Branch("age >= 65", "SENIOR").
		When(domain.Lt("age", 2), "INFANT").
		Otherwise("SYMPTOMS")

	b.Add("SYMPTOMS").
		MultipleChoice("Any of these?").
		Option("Cough", "COUGH", domain.SeverityD).
		Option("Fever", "FEVER", domain.SeverityC).
		Exclusive("None", "NONE").
		Terminal()

	m, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "CHEST_PAIN", m.Entry, "first node is the default entry")
	assert.Equal(t, "AGE", m.ResolveEntry("age"))
	assert.Equal(t, []string{domain.KeyAgeMonths}, m.RequiredData)
	assert.Equal(t, "Quick screening", m.Title)

	chest, ok := m.Node("CHEST_PAIN")
	require.True(t, ok)
	assert.Equal(t, domain.NodeTypeBoolean, chest.Type)
	assert.True(t, chest.CriticalStop)
	assert.Equal(t, "AGE", chest.Next.To)

	age, ok := m.Node("AGE")
	require.True(t, ok)
	require.Len(t, age.Next.Branches, 3)
	assert.Equal(t, "SENIOR", age.Next.Branches[0].To)
	assert.Nil(t, age.Next.Branches[2].When)
	assert.Equal(t, 120.0, *age.Max)

	symptoms, ok := m.Node("SYMPTOMS")
	require.True(t, ok)
	require.Len(t, symptoms.Options, 3)
	assert.True(t, symptoms.Options[2].Exclusive)
	assert.True(t, symptoms.Next.IsEnd())
}

func TestBuilder_ReportsBadConditions(t *testing.T) {
	b := dsl.New("broken")
	b.Add("A").Numeric("x", 0, 1, "").Branch("x <", "B").Branch("((", "C")
	b.Add("B").SingleChoice("y").Option("Map", map[string]any{}, domain.SeverityD)

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "branch to B")
	assert.Contains(t, err.Error(), "branch to C")
	assert.Contains(t, err.Error(), `option "Map"`)

	_, err = dsl.New("").Build()
	assert.Error(t, err)
}

func TestBuilder_Loader(t *testing.T) {
	b := dsl.New("mini")
	b.Add("ONLY").Text("Anything else?")

	loader, err := b.Loader()
	require.NoError(t, err)

	m, err := loader.GetModule(context.Background(), "mini")
	require.NoError(t, err)
	assert.Equal(t, "ONLY", m.Entry)
	assert.Equal(t, 1, m.Info().Questions)
}
