package repository

import (
	"database/sql"
	"fmt"

	"caseguard/models"
)

// DispatchRepository owns the append-only dispatch audit trail and the
// in-app notification store. Dispatch records are never updated or
// deleted.
type DispatchRepository struct {
	db *sql.DB
}

// NewDispatchRepository creates a new dispatch repository
func NewDispatchRepository(db *sql.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

// CreateDispatchRecord appends one recipient/channel attempt.
func (r *DispatchRepository) CreateDispatchRecord(record *models.DispatchRecord) error {
	query := `
		INSERT INTO dispatch_records (
			reference, log_id, user_id, recipient, channel,
			template_name, variables, outcome, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(
		query,
		record.Reference,
		record.LogID,
		record.UserID,
		record.Recipient,
		record.Channel,
		record.TemplateName,
		record.Variables,
		record.Outcome,
		record.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to create dispatch record: %w", err)
	}

	recordID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get dispatch record id: %w", err)
	}
	record.RecordID = recordID
	return nil
}

// CreateInAppNotification writes a row for the persisted channel.
func (r *DispatchRepository) CreateInAppNotification(n *models.InAppNotification) error {
	query := `
		INSERT INTO inapp_notifications (user_id, subject, body, template_name)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, n.UserID, n.Subject, n.Body, n.TemplateName)
	if err != nil {
		return fmt.Errorf("failed to create in-app notification: %w", err)
	}

	notificationID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get in-app notification id: %w", err)
	}
	n.NotificationID = notificationID
	return nil
}

// CreateAuditLog appends an audit trail entry (immutable).
func (r *DispatchRepository) CreateAuditLog(audit *models.AuditLog) error {
	query := `
		INSERT INTO audit_log (entity_kind, entity_id, action, metadata)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.Exec(query, audit.EntityKind, audit.EntityID, audit.Action, audit.Metadata)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	auditID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get audit log id: %w", err)
	}
	audit.AuditID = auditID
	return nil
}
