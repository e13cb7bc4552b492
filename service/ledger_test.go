package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseguard/models"
)

func newTestLedger() (*EscalationLedger, *fakeLogStore, *fakeCaseStore, *recordingSink) {
	logs := newFakeLogStore()
	cases := newFakeCaseStore()
	sink := &recordingSink{}
	return NewEscalationLedger(logs, cases, sink), logs, cases, sink
}

func testRule() models.EscalationRule {
	return models.EscalationRule{
		RuleID:           1,
		Name:             "stale application",
		TriggerCondition: models.TriggerDaysSinceSubmission,
		ThresholdValue:   7,
		PriorityLevel:    3,
	}
}

func testSnapshot() models.CaseSnapshot {
	return models.CaseSnapshot{
		Ref:    models.EntityRef{Kind: models.KindGunApplication, ID: 42},
		Number: "APP-2024-042",
		Status: "under_review",
	}
}

func TestOpenCreatesPendingLog(t *testing.T) {
	ledger, _, cases, sink := newTestLedger()

	entry, created, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, models.EscalationPending, entry.Status)
	assert.Equal(t, "No action taken for 7 days since submission", entry.EscalationReason)
	assert.False(t, entry.EscalatedBy.Valid)
	assert.Equal(t, 3, cases.escalated[testSnapshot().Ref.String()])
	assert.Contains(t, sink.events, "escalation_opened")
}

func TestOpenIsIdempotentWhileLogOpen(t *testing.T) {
	ledger, _, _, _ := newTestLedger()

	first, created, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.LogID, second.LogID)
}

func TestOpenRecordsManualEscalator(t *testing.T) {
	ledger, _, _, _ := newTestLedger()
	operator := int64(9)

	entry, _, err := ledger.Open(testSnapshot(), testRule(), &operator)
	require.NoError(t, err)

	assert.True(t, entry.EscalatedBy.Valid)
	assert.Equal(t, int64(9), entry.EscalatedBy.Int64)
}

func TestAcknowledgeTransitionsPending(t *testing.T) {
	ledger, _, _, _ := newTestLedger()
	entry, _, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)

	acked, err := ledger.Acknowledge(entry.LogID, 5)
	require.NoError(t, err)
	assert.Equal(t, models.EscalationAcknowledged, acked.Status)
	assert.True(t, acked.AcknowledgedAt.Valid)
}

func TestAcknowledgeTwiceConflicts(t *testing.T) {
	ledger, _, _, _ := newTestLedger()
	entry, _, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)

	_, err = ledger.Acknowledge(entry.LogID, 5)
	require.NoError(t, err)

	_, err = ledger.Acknowledge(entry.LogID, 6)
	assert.True(t, models.IsInvalidState(err))
}

func TestAcknowledgeMissingLog(t *testing.T) {
	ledger, _, _, _ := newTestLedger()

	_, err := ledger.Acknowledge(999, 5)
	assert.True(t, models.IsNotFound(err))
}

func TestResolveFromPending(t *testing.T) {
	ledger, _, cases, sink := newTestLedger()
	entry, _, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)

	resolved, err := ledger.Resolve(entry.LogID, 5, "handled by supervisor")
	require.NoError(t, err)

	assert.Equal(t, models.EscalationResolved, resolved.Status)
	assert.Equal(t, "handled by supervisor", resolved.ResolutionNotes.String)
	assert.True(t, cases.cleared[testSnapshot().Ref.String()])
	assert.Contains(t, sink.events, "escalation_resolved")
}

func TestResolveFromAcknowledged(t *testing.T) {
	ledger, _, _, _ := newTestLedger()
	entry, _, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)
	_, err = ledger.Acknowledge(entry.LogID, 5)
	require.NoError(t, err)

	resolved, err := ledger.Resolve(entry.LogID, 5, "")
	require.NoError(t, err)
	assert.Equal(t, models.EscalationResolved, resolved.Status)
}

func TestResolveTwiceConflicts(t *testing.T) {
	ledger, _, _, _ := newTestLedger()
	entry, _, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)

	_, err = ledger.Resolve(entry.LogID, 5, "")
	require.NoError(t, err)

	_, err = ledger.Resolve(entry.LogID, 5, "")
	assert.True(t, models.IsInvalidState(err))
}

func TestReopenAfterResolutionAllowed(t *testing.T) {
	ledger, _, _, _ := newTestLedger()

	first, _, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)
	_, err = ledger.Resolve(first.LogID, 5, "")
	require.NoError(t, err)

	second, created, err := ledger.Open(testSnapshot(), testRule(), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.LogID, second.LogID)
}

func TestEscalationReasonPerTrigger(t *testing.T) {
	tests := []struct {
		trigger   models.TriggerCondition
		threshold int
		want      string
	}{
		{models.TriggerDaysSinceSubmission, 7, "No action taken for 7 days since submission"},
		{models.TriggerHoursSinceSubmission, 48, "No action taken for 48 hours since submission"},
		{models.TriggerDaysSinceLastUpdate, 3, "No updates for 3 days"},
		{models.TriggerStatusUnchanged, 14, "Status unchanged for 14 days"},
		{models.TriggerDocumentsPending, 2, "2 or more documents pending verification"},
		{models.TriggerCrimeSeverityLevel, 4, "Crime severity level 4 or above"},
		{models.TriggerHighPriority, 5, "Application priority level 5 or above"},
	}

	for _, tt := range tests {
		rule := models.EscalationRule{Name: "r", TriggerCondition: tt.trigger, ThresholdValue: tt.threshold}
		assert.Equal(t, tt.want, escalationReason(rule), string(tt.trigger))
	}

	fallback := models.EscalationRule{Name: "custom rule", TriggerCondition: "something_else"}
	assert.Equal(t, "Escalation triggered by rule: custom rule", escalationReason(fallback))
}

func TestStatisticsCountsByStatus(t *testing.T) {
	ledger, _, _, _ := newTestLedger()

	for i := int64(1); i <= 3; i++ {
		snapshot := testSnapshot()
		snapshot.Ref.ID = i
		entry, _, err := ledger.Open(snapshot, testRule(), nil)
		require.NoError(t, err)
		if i == 2 {
			_, err = ledger.Acknowledge(entry.LogID, 5)
			require.NoError(t, err)
		}
		if i == 3 {
			_, err = ledger.Resolve(entry.LogID, 5, "")
			require.NoError(t, err)
		}
	}

	stats, err := ledger.Statistics(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Acknowledged)
	assert.Equal(t, 1, stats.Resolved)
}
