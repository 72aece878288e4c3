package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	s := domain.NewSession("iso")
	s.History = []string{"A"}
	require.NoError(t, store.Save(ctx, "iso", s))

	s.History = append(s.History, "B")
	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, loaded.History, "saved copy is detached from the caller")

	loaded.PatientData["x"] = domain.BoolValue(true)
	again, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.False(t, again.PatientData.Has("x"), "loaded copy is detached from the store")
}
