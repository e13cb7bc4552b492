package service

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"caseguard/models"
)

// EscalationLedger owns the lifecycle of escalation logs: open on rule
// match, acknowledge and resolve on operator action. The open-escalation
// invariant and the transition rules are enforced with conditional writes
// in the log store, so racing sweeps and racing operators both lose
// cleanly instead of corrupting state.
type EscalationLedger struct {
	logs  LogStore
	cases CaseStore
	audit AuditSink
}

// NewEscalationLedger creates a new escalation ledger
func NewEscalationLedger(logs LogStore, cases CaseStore, audit AuditSink) *EscalationLedger {
	return &EscalationLedger{logs: logs, cases: cases, audit: audit}
}

// Open creates a pending escalation log for the entity unless one is
// already open, in which case the existing log is returned and created is
// false. On creation the entity is flagged escalated and its priority
// raised to at least the rule's level (never lowered).
func (l *EscalationLedger) Open(
	snapshot models.CaseSnapshot,
	rule models.EscalationRule,
	escalatedBy *int64,
) (*models.EscalationLog, bool, error) {
	entry := &models.EscalationLog{
		Entity:           snapshot.Ref,
		RuleID:           rule.RuleID,
		EscalationReason: escalationReason(rule),
	}
	if escalatedBy != nil {
		entry.EscalatedBy = sql.NullInt64{Int64: *escalatedBy, Valid: true}
	}

	created, isNew, err := l.logs.CreateLogIfAbsent(entry)
	if err != nil {
		return nil, false, err
	}
	if !isNew {
		return created, false, nil
	}

	if err := l.cases.MarkEscalated(snapshot.Ref, rule.PriorityLevel); err != nil {
		return nil, false, err
	}

	if err := l.audit.RecordEvent(snapshot.Ref, "escalation_opened", map[string]interface{}{
		"log_id":         created.LogID,
		"rule_id":        rule.RuleID,
		"rule_name":      rule.Name,
		"reason":         created.EscalationReason,
		"priority_level": rule.PriorityLevel,
	}); err != nil {
		// Audit writes must not undo an escalation that already happened.
		log.Printf("[LEDGER] audit write failed for %s: %v", snapshot.Ref, err)
	}

	log.Printf("[LEDGER] escalation opened for %s (rule %d: %s)", snapshot.Ref, rule.RuleID, rule.Name)
	return created, true, nil
}

// Acknowledge moves a pending log to acknowledged and records who took
// it. Any other starting state fails with InvalidStateError, including
// when another operator acknowledged first.
func (l *EscalationLedger) Acknowledge(logID, byUserID int64) (*models.EscalationLog, error) {
	ok, err := l.logs.Acknowledge(logID, byUserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := l.logs.GetLogByID(logID)
		if err != nil {
			return nil, err
		}
		return nil, &models.InvalidStateError{
			LogID:   logID,
			Message: fmt.Sprintf("cannot acknowledge from status %q", current.Status),
		}
	}
	return l.logs.GetLogByID(logID)
}

// Resolve moves a pending or acknowledged log to resolved and clears the
// entity's escalated flag. A log already resolved fails with
// InvalidStateError.
func (l *EscalationLedger) Resolve(logID, byUserID int64, notes string) (*models.EscalationLog, error) {
	entry, err := l.logs.GetLogByID(logID)
	if err != nil {
		return nil, err
	}

	ok, err := l.logs.Resolve(logID, notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &models.InvalidStateError{
			LogID:   logID,
			Message: fmt.Sprintf("cannot resolve from status %q", entry.Status),
		}
	}

	if err := l.cases.ClearEscalated(entry.Entity); err != nil {
		return nil, err
	}

	if err := l.audit.RecordEvent(entry.Entity, "escalation_resolved", map[string]interface{}{
		"log_id":      logID,
		"resolved_by": byUserID,
	}); err != nil {
		log.Printf("[LEDGER] audit write failed for %s: %v", entry.Entity, err)
	}

	return l.logs.GetLogByID(logID)
}

// Statistics returns status counts and the average resolution time in
// minutes, optionally bounded by escalated_at range. Read-only reporting.
func (l *EscalationLedger) Statistics(from, to *time.Time) (*models.EscalationStats, error) {
	return l.logs.GetStatistics(from, to)
}

// escalationReason phrases why a rule fired from its trigger kind and
// threshold.
func escalationReason(rule models.EscalationRule) string {
	switch rule.TriggerCondition {
	case models.TriggerDaysSinceSubmission:
		return fmt.Sprintf("No action taken for %d days since submission", rule.ThresholdValue)
	case models.TriggerHoursSinceSubmission:
		return fmt.Sprintf("No action taken for %d hours since submission", rule.ThresholdValue)
	case models.TriggerDaysSinceLastUpdate:
		return fmt.Sprintf("No updates for %d days", rule.ThresholdValue)
	case models.TriggerStatusUnchanged:
		return fmt.Sprintf("Status unchanged for %d days", rule.ThresholdValue)
	case models.TriggerDocumentsPending:
		return fmt.Sprintf("%d or more documents pending verification", rule.ThresholdValue)
	case models.TriggerCrimeSeverityLevel:
		return fmt.Sprintf("Crime severity level %d or above", rule.ThresholdValue)
	case models.TriggerHighPriority:
		return fmt.Sprintf("Application priority level %d or above", rule.ThresholdValue)
	}
	return "Escalation triggered by rule: " + rule.Name
}
