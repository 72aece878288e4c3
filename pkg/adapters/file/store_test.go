package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/triage/pkg/adapters/file"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.NewStore(t.TempDir()))
}

func TestStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, store.Save(ctx, "s1", domain.NewSession("s1")))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())
}

func TestStore_RejectsPathIDs(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", filepath.Join("a", "b"), ".hidden"} {
		assert.Error(t, store.Save(ctx, id, domain.NewSession(id)), id)
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
