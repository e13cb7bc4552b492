package models

import (
	"database/sql"
	"time"
)

// TriggerCondition is the named predicate kind a rule uses to decide
// whether to fire.
type TriggerCondition string

const (
	TriggerDaysSinceSubmission  TriggerCondition = "days_since_submission"
	TriggerHoursSinceSubmission TriggerCondition = "hours_since_submission"
	TriggerDaysSinceLastUpdate  TriggerCondition = "days_since_last_update"
	TriggerStatusUnchanged      TriggerCondition = "status_unchanged"
	TriggerDocumentsPending     TriggerCondition = "documents_pending"
	TriggerCrimeSeverityLevel   TriggerCondition = "crime_severity_level"
	TriggerHighPriority         TriggerCondition = "high_priority_application"
)

// Known reports whether the trigger kind is one the evaluator understands.
// A rule with an unknown kind never fires; it is logged as a configuration
// issue, not an error.
func (t TriggerCondition) Known() bool {
	switch t {
	case TriggerDaysSinceSubmission, TriggerHoursSinceSubmission,
		TriggerDaysSinceLastUpdate, TriggerStatusUnchanged,
		TriggerDocumentsPending, TriggerCrimeSeverityLevel, TriggerHighPriority:
		return true
	}
	return false
}

// TargetKind tags an escalation target entry.
type TargetKind string

const (
	TargetUserID TargetKind = "user_id"
	TargetRole   TargetKind = "role"
)

// EscalationTarget is one parsed entry of a rule's target list: either a
// specific user or every active holder of a role. Raw entries are parsed
// eagerly at rule load; malformed entries are rejected there, never
// silently skipped at resolution time.
type EscalationTarget struct {
	Kind   TargetKind `json:"kind"`
	UserID int64      `json:"user_id,omitempty"`
	Role   string     `json:"role,omitempty"`
}

// EscalationRule represents a row of escalation_rules. Rules are authored
// by administrators and read-only to this service; deactivation is the
// only form of removal once a log references the rule.
type EscalationRule struct {
	RuleID           int64              `db:"rule_id" json:"rule_id"`
	Name             string             `db:"name" json:"name"`
	Description      sql.NullString     `db:"description" json:"description"`
	TriggerCondition TriggerCondition   `db:"trigger_condition" json:"trigger_condition"`
	ThresholdValue   int                `db:"threshold_value" json:"threshold_value"`
	Targets          []EscalationTarget `json:"escalation_targets"`
	PriorityLevel    int                `db:"priority_level" json:"priority_level"`
	IsActive         bool               `db:"is_active" json:"is_active"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        sql.NullTime       `db:"updated_at" json:"updated_at"`
}

// EscalationStatus is the lifecycle state of an escalation log.
// Transitions are strictly forward: pending -> acknowledged -> resolved,
// or pending -> resolved.
type EscalationStatus string

const (
	EscalationPending      EscalationStatus = "pending"
	EscalationAcknowledged EscalationStatus = "acknowledged"
	EscalationResolved     EscalationStatus = "resolved"
)

// Open reports whether the status still counts against the
// open-escalation invariant.
func (s EscalationStatus) Open() bool {
	return s == EscalationPending || s == EscalationAcknowledged
}

// EscalationLog represents a row of escalation_logs.
type EscalationLog struct {
	LogID            int64            `db:"log_id" json:"log_id"`
	Entity           EntityRef        `json:"entity"`
	RuleID           int64            `db:"rule_id" json:"rule_id"`
	EscalatedBy      sql.NullInt64    `db:"escalated_by" json:"escalated_by"`
	EscalatedTo      sql.NullInt64    `db:"escalated_to" json:"escalated_to"`
	EscalationReason string           `db:"escalation_reason" json:"escalation_reason"`
	Status           EscalationStatus `db:"status" json:"status"`
	EscalatedAt      time.Time        `db:"escalated_at" json:"escalated_at"`
	AcknowledgedAt   sql.NullTime     `db:"acknowledged_at" json:"acknowledged_at"`
	ResolvedAt       sql.NullTime     `db:"resolved_at" json:"resolved_at"`
	ResolutionNotes  sql.NullString   `db:"resolution_notes" json:"resolution_notes"`
}

// EscalationStats is the read-only reporting view over escalation logs.
type EscalationStats struct {
	Total                    int     `json:"total_escalations"`
	Pending                  int     `json:"pending_escalations"`
	Acknowledged             int     `json:"acknowledged_escalations"`
	Resolved                 int     `json:"resolved_escalations"`
	AverageResolutionMinutes float64 `json:"average_resolution_minutes"`
}

// SweepResult summarizes one evaluation pass.
type SweepResult struct {
	Examined    int       `json:"examined"`
	Escalated   int       `json:"escalated"`
	Skipped     int       `json:"skipped"`
	ProcessedAt time.Time `json:"processed_at"`
}
