package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.ModuleID = "pediatrics"
		session.EntryNodeID = "P_A_INITIAL"
		session.CurrentNodeID = "P_BLOCK1_RESP"
		session.Status = domain.StatusInProgress
		session.MaxSeverity = domain.SeverityC
		session.History = []string{"P_A_INITIAL", "P_FEVER_INPUT"}
		session.Answers["P_FEVER_INPUT"] = domain.NumberValue(37.5)
		session.PatientData[domain.KeyAgeMonths] = domain.NumberValue(14)
		session.PatientData["P_A_INITIAL"] = domain.ListValue()
		session.PatientData["notes"] = domain.StringValue("started after lunch")

		require.NoError(t, store.Save(ctx, sessionID, session), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.CurrentNodeID, loaded.CurrentNodeID)
		assert.Equal(t, session.EntryNodeID, loaded.EntryNodeID)
		assert.Equal(t, session.Status, loaded.Status)
		assert.Equal(t, domain.SeverityC, loaded.MaxSeverity)
		assert.Equal(t, session.History, loaded.History)

		age, ok := loaded.PatientData.Number(domain.KeyAgeMonths)
		assert.True(t, ok)
		assert.Equal(t, 14.0, age)
		assert.Equal(t, domain.KindList, loaded.PatientData["P_A_INITIAL"].Kind())
		assert.True(t, loaded.Answers["P_FEVER_INPUT"].Equal(domain.NumberValue(37.5)))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		first := domain.NewSession(sessionID)
		first.CurrentNodeID = "A"
		require.NoError(t, store.Save(ctx, sessionID, first))

		second := domain.NewSession(sessionID)
		second.CurrentNodeID = "B"
		require.NoError(t, store.Save(ctx, sessionID, second))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "B", loaded.CurrentNodeID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunOutcomeLedgerContract verifies an OutcomeLedger implementation.
// The ledger must be empty when the suite starts.
func RunOutcomeLedgerContract(t *testing.T, ledger OutcomeLedger) {
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	records := []domain.OutcomeRecord{
		{ID: "r1", SessionID: "s1", ModuleID: "adults", Status: domain.StatusComplete, MaxSeverity: domain.SeverityC, Outcome: domain.OutcomeScheduledConsultation, Steps: 5, RecordedAt: base},
		{ID: "r2", SessionID: "s2", ModuleID: "pediatrics", Status: domain.StatusCriticalStop, MaxSeverity: domain.SeverityA, Outcome: domain.OutcomeEmergencyCall, Steps: 2, RecordedAt: base.Add(time.Minute)},
		{ID: "r3", SessionID: "s1", ModuleID: "adults", Status: domain.StatusComplete, MaxSeverity: domain.SeverityNone, Outcome: domain.OutcomeScheduledConsultation, Steps: 5, RecordedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		require.NoError(t, ledger.RecordOutcome(ctx, rec))
	}

	t.Run("List All Newest First", func(t *testing.T) {
		got, err := ledger.ListOutcomes(ctx, OutcomeFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "r3", got[0].ID)
		assert.Equal(t, "r1", got[2].ID)
		assert.Equal(t, domain.SeverityNone, got[0].MaxSeverity)
		assert.True(t, base.Equal(got[2].RecordedAt))
	})

	t.Run("Filter By Module", func(t *testing.T) {
		got, err := ledger.ListOutcomes(ctx, OutcomeFilter{ModuleID: "pediatrics"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.StatusCriticalStop, got[0].Status)
		assert.Equal(t, domain.OutcomeEmergencyCall, got[0].Outcome)
		assert.Equal(t, domain.SeverityA, got[0].MaxSeverity)
	})

	t.Run("Filter By Session With Limit", func(t *testing.T) {
		got, err := ledger.ListOutcomes(ctx, OutcomeFilter{SessionID: "s1", Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "r3", got[0].ID)
	})
}
