package domain_test

import (
	"errors"
	"testing"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symptomNode() *domain.Node {
	return &domain.Node{
		ID:   "SYMPTOMS",
		Type: domain.NodeTypeMultipleChoice,
		Options: []domain.Option{
			{Label: "Cough", Value: domain.StringValue("COUGH"), RiskLevel: domain.SeverityD},
			{Label: "Fever", Value: domain.StringValue("FEVER"), RiskLevel: domain.SeverityC},
			{Label: "None of the above", Value: domain.StringValue("NONE"), Exclusive: true},
			{Label: "Not sure", Value: domain.StringValue("UNSURE"), Exclusive: true},
		},
	}
}

func TestNode_ToggleOption(t *testing.T) {
	n := symptomNode()

	sel := n.ToggleOption(nil, "COUGH")
	sel = n.ToggleOption(sel, "FEVER")
	assert.Equal(t, []string{"COUGH", "FEVER"}, sel)

	sel = n.ToggleOption(sel, "NONE")
	assert.Equal(t, []string{"NONE"}, sel, "exclusive option clears the rest")

	sel = n.ToggleOption(sel, "FEVER")
	assert.Equal(t, []string{"FEVER"}, sel, "regular option clears exclusive ones")

	sel = n.ToggleOption(sel, "FEVER")
	assert.Empty(t, sel, "second click deselects")
}

func TestNode_NormalizeSelection(t *testing.T) {
	n := symptomNode()
	assert.Equal(t, []string{"COUGH", "FEVER"}, n.NormalizeSelection([]string{"COUGH", "FEVER", "COUGH"}))
	assert.Equal(t, []string{"UNSURE"}, n.NormalizeSelection([]string{"NONE", "COUGH", "UNSURE"}))
	assert.Empty(t, n.NormalizeSelection(nil))
}

func TestNode_CheckAnswer(t *testing.T) {
	lo, hi := 35.0, 45.0
	numeric := &domain.Node{ID: "TEMP", Type: domain.NodeTypeNumeric, Min: &lo, Max: &hi}
	boolean := &domain.Node{ID: "YN", Type: domain.NodeTypeBoolean}
	single := &domain.Node{ID: "ONE", Type: domain.NodeTypeSingleChoice, Options: symptomNode().Options}
	text := &domain.Node{ID: "WHY", Type: domain.NodeTypeText}

	tests := []struct {
		name    string
		node    *domain.Node
		answer  domain.Value
		wantErr bool
	}{
		{"numeric in range", numeric, domain.NumberValue(38), false},
		{"numeric string", numeric, domain.StringValue("39.5"), false},
		{"numeric below", numeric, domain.NumberValue(30), true},
		{"numeric above", numeric, domain.NumberValue(46), true},
		{"numeric garbage", numeric, domain.StringValue("hot"), true},
		{"boolean", boolean, domain.BoolValue(false), false},
		{"boolean garbage", boolean, domain.StringValue("maybe"), true},
		{"single known", single, domain.StringValue("FEVER"), false},
		{"single unknown", single, domain.StringValue("RASH"), true},
		{"single list", single, domain.ListValue("FEVER"), true},
		{"multi known", symptomNode(), domain.ListValue("COUGH", "FEVER"), false},
		{"multi empty", symptomNode(), domain.ListValue(), false},
		{"multi unknown", symptomNode(), domain.ListValue("RASH"), true},
		{"multi number", symptomNode(), domain.NumberValue(1), true},
		{"text", text, domain.StringValue("headache"), false},
		{"text number", text, domain.NumberValue(4), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.CheckAnswer(tt.answer)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidAnswer))
			var ae *domain.AnswerError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.node.ID, ae.NodeID)
		})
	}
}

func TestNext_Targets(t *testing.T) {
	assert.Equal(t, []string{"B"}, domain.Goto("B").Targets())
	assert.True(t, domain.Next{}.IsEnd())

	cond := domain.Lt("age", 3)
	next := domain.Branches(
		domain.Branch{To: "N2", When: &cond},
		domain.Branch{To: "N3"},
		domain.Branch{To: "N2"},
	)
	assert.Equal(t, []string{"N2", "N3"}, next.Targets())
	assert.False(t, next.IsEnd())
	assert.True(t, next.Branches[1].Matches(nil))
}

func TestModule_ResolveEntry(t *testing.T) {
	m := &domain.Module{
		ID:      "womens-health",
		Entry:   "PREG_START",
		Entries: map[string]string{"postpartum": "POST_START", "pregnancy": "PREG_START"},
		Nodes:   map[string]*domain.Node{"PREG_START": {ID: "PREG_START"}, "POST_START": {ID: "POST_START"}},
	}
	assert.Equal(t, "PREG_START", m.ResolveEntry(""))
	assert.Equal(t, "POST_START", m.ResolveEntry("postpartum"))
	assert.Equal(t, "GYN_A1", m.ResolveEntry("GYN_A1"))
	assert.Equal(t, []string{"POST_START", "PREG_START"}, m.NodeIDs())
	assert.Equal(t, []string{"postpartum", "pregnancy"}, m.EntryNames())
	assert.Equal(t, 2, m.Info().Questions)

	_, ok := m.Node("GYN_A1")
	assert.False(t, ok)
	var nilModule *domain.Module
	_, ok = nilModule.Node("PREG_START")
	assert.False(t, ok)
}
