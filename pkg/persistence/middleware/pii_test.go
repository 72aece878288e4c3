package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/triage/pkg/adapters/memory"
	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)name$", "^phone"})
	require.NoError(t, err)
	store := mw(underlying)
	ctx := context.Background()

	s := pediatricSession("pii-session")
	s.PatientData["phoneNumber"] = domain.StringValue("+55 11 99999-0000")
	s.Answers["CONTACT_NAME"] = domain.StringValue("Maria")

	require.NoError(t, store.Save(ctx, s.ID, s))

	name, _ := s.PatientData.String("guardianName")
	assert.Equal(t, "Maria Souza", name, "the caller's session is not modified")

	stored, err := underlying.Load(ctx, s.ID)
	require.NoError(t, err)
	for _, key := range []string{"guardianName", "phoneNumber"} {
		v, _ := stored.PatientData.String(key)
		assert.Equal(t, middleware.Masked, v, key)
	}
	assert.True(t, stored.Answers["CONTACT_NAME"].Equal(domain.StringValue(middleware.Masked)))

	age, ok := stored.PatientData.Number(domain.KeyAgeMonths)
	assert.True(t, ok)
	assert.Equal(t, 2.0, age, "keys not matching any pattern are kept")
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain_EncryptsMaskedData(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"Name$"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "chain", pediatricSession("chain")))

	loaded, err := store.Load(ctx, "chain")
	require.NoError(t, err)
	name, _ := loaded.PatientData.String("guardianName")
	assert.Equal(t, middleware.Masked, name)
}
