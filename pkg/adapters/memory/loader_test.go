package memory_test

import (
	"testing"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	contract "github.com/aretw0/triage/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	loader := memory.NewLoader(
		&domain.Module{
			ID:    "screening",
			Title: "Screening",
			Entry: "start",
			Nodes: map[string]*domain.Node{
				"start": {Type: domain.NodeTypeBoolean, Text: "Any fever?", Next: domain.Goto("end")},
				"end":   {Type: domain.NodeTypeInfo, Text: "Done"},
			},
		},
		&domain.Module{
			ID:    "admin",
			Entry: "only",
			Nodes: map[string]*domain.Node{"only": {ID: "only", Type: domain.NodeTypeText}},
		},
	)

	contract.ModuleLoaderContractTest(t, loader, map[string]string{
		"screening": "start",
		"admin":     "only",
	})
}

func TestInMemoryLoader_AddRejectsAnonymous(t *testing.T) {
	assert.Error(t, memory.NewLoader().Add(&domain.Module{}))
	assert.Error(t, memory.NewLoader().Add(nil))
}
