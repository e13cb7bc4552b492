package service

import (
	"time"

	"caseguard/models"
)

// Storage interfaces the services depend on. The repository package
// provides the MySQL implementations; tests substitute in-memory fakes.

// RuleStore provides read access to escalation rules.
type RuleStore interface {
	GetActiveRules() ([]models.EscalationRule, error)
	GetRuleByID(ruleID int64) (*models.EscalationRule, error)
}

// LogStore owns escalation log rows and their conditional writes.
type LogStore interface {
	GetLogByID(logID int64) (*models.EscalationLog, error)
	GetOpenLogForEntity(ref models.EntityRef) (*models.EscalationLog, error)
	HasOpenLog(ref models.EntityRef) (bool, error)
	CreateLogIfAbsent(l *models.EscalationLog) (*models.EscalationLog, bool, error)
	Acknowledge(logID, byUserID int64) (bool, error)
	Resolve(logID int64, notes string) (bool, error)
	GetStatistics(from, to *time.Time) (*models.EscalationStats, error)
}

// CaseStore is the narrow read/write window onto the entity lifecycle
// subsystem: snapshots in, escalated flag and priority out.
type CaseStore interface {
	ListOpenCases() ([]models.CaseSnapshot, error)
	CountPendingDocuments(ref models.EntityRef) (int, error)
	LastStatusChangeAt(ref models.EntityRef) (*time.Time, error)
	MarkEscalated(ref models.EntityRef, priorityLevel int) error
	ClearEscalated(ref models.EntityRef) error
}

// UserDirectory looks up recipients in the identity subsystem.
type UserDirectory interface {
	GetUserByID(userID int64) (*models.User, error)
	GetActiveUsersByRole(roleName string) ([]models.User, error)
}

// TemplateSource yields active notification templates, normally through
// the read-through cache.
type TemplateSource interface {
	Get(name string) (*models.NotificationTemplate, error)
}
