package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"caseguard/models"
)

// EscalationLogRepository handles database operations for escalation logs.
// The open-escalation invariant (at most one non-resolved log per entity)
// is enforced here with conditional writes so overlapping sweeps cannot
// create duplicates.
type EscalationLogRepository struct {
	db *sql.DB
}

// NewEscalationLogRepository creates a new escalation log repository
func NewEscalationLogRepository(db *sql.DB) *EscalationLogRepository {
	return &EscalationLogRepository{db: db}
}

const logColumns = `
	log_id, entity_kind, entity_id, rule_id, escalated_by, escalated_to,
	escalation_reason, status, escalated_at, acknowledged_at, resolved_at,
	resolution_notes
`

func scanLog(row interface{ Scan(...interface{}) error }) (*models.EscalationLog, error) {
	var l models.EscalationLog
	err := row.Scan(
		&l.LogID,
		&l.Entity.Kind,
		&l.Entity.ID,
		&l.RuleID,
		&l.EscalatedBy,
		&l.EscalatedTo,
		&l.EscalationReason,
		&l.Status,
		&l.EscalatedAt,
		&l.AcknowledgedAt,
		&l.ResolvedAt,
		&l.ResolutionNotes,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLogByID retrieves an escalation log by id.
func (r *EscalationLogRepository) GetLogByID(logID int64) (*models.EscalationLog, error) {
	query := `SELECT ` + logColumns + ` FROM escalation_logs WHERE log_id = ?`
	l, err := scanLog(r.db.QueryRow(query, logID))
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "escalation log", Key: strconv.FormatInt(logID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation log: %w", err)
	}
	return l, nil
}

// GetOpenLogForEntity returns the entity's log with status pending or
// acknowledged, or nil when none is open.
func (r *EscalationLogRepository) GetOpenLogForEntity(ref models.EntityRef) (*models.EscalationLog, error) {
	query := `
		SELECT ` + logColumns + `
		FROM escalation_logs
		WHERE entity_kind = ? AND entity_id = ?
			AND status IN ('pending', 'acknowledged')
		LIMIT 1
	`
	l, err := scanLog(r.db.QueryRow(query, ref.Kind, ref.ID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open escalation log: %w", err)
	}
	return l, nil
}

// CreateLogIfAbsent inserts a pending log for the entity unless an open
// one already exists. The guard and the insert are one statement, so two
// overlapping sweeps cannot both create a log. Returns the created log
// and true, or the pre-existing open log and false.
func (r *EscalationLogRepository) CreateLogIfAbsent(l *models.EscalationLog) (*models.EscalationLog, bool, error) {
	query := `
		INSERT INTO escalation_logs (
			entity_kind, entity_id, rule_id, escalated_by,
			escalation_reason, status, escalated_at
		)
		SELECT ?, ?, ?, ?, ?, 'pending', ?
		FROM DUAL
		WHERE NOT EXISTS (
			SELECT 1 FROM escalation_logs
			WHERE entity_kind = ? AND entity_id = ?
				AND status IN ('pending', 'acknowledged')
		)
	`

	escalatedAt := time.Now().UTC()
	result, err := r.db.Exec(
		query,
		l.Entity.Kind, l.Entity.ID, l.RuleID, l.EscalatedBy,
		l.EscalationReason, escalatedAt,
		l.Entity.Kind, l.Entity.ID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create escalation log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		existing, err := r.GetOpenLogForEntity(l.Entity)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			// Lost the race twice over: the competing log resolved between
			// our insert and this read. Treat as no-op; the next sweep
			// re-evaluates.
			return nil, false, nil
		}
		return existing, false, nil
	}

	logID, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get escalation log id: %w", err)
	}

	l.LogID = logID
	l.Status = models.EscalationPending
	l.EscalatedAt = escalatedAt
	return l, true, nil
}

// Acknowledge transitions a pending log to acknowledged with a
// compare-and-set on status. Returns false when the log was not pending,
// i.e. the transition is illegal or another operator won the race.
func (r *EscalationLogRepository) Acknowledge(logID, byUserID int64) (bool, error) {
	query := `
		UPDATE escalation_logs
		SET status = 'acknowledged',
			acknowledged_at = ?,
			escalated_to = ?
		WHERE log_id = ? AND status = 'pending'
	`

	result, err := r.db.Exec(query, time.Now().UTC(), byUserID, logID)
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge escalation log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// Resolve transitions a pending or acknowledged log to resolved with a
// compare-and-set on status. Returns false when the log was already
// terminal.
func (r *EscalationLogRepository) Resolve(logID int64, notes string) (bool, error) {
	query := `
		UPDATE escalation_logs
		SET status = 'resolved',
			resolved_at = ?,
			resolution_notes = ?
		WHERE log_id = ? AND status IN ('pending', 'acknowledged')
	`

	result, err := r.db.Exec(query, time.Now().UTC(), notes, logID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve escalation log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// HasOpenLog reports whether the entity currently holds a non-resolved log.
func (r *EscalationLogRepository) HasOpenLog(ref models.EntityRef) (bool, error) {
	query := `
		SELECT COUNT(*) FROM escalation_logs
		WHERE entity_kind = ? AND entity_id = ?
			AND status IN ('pending', 'acknowledged')
	`
	var count int
	if err := r.db.QueryRow(query, ref.Kind, ref.ID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check open escalation log: %w", err)
	}
	return count > 0, nil
}

// GetStatistics returns counts per status and the average resolution time
// in minutes over resolved logs, optionally bounded by escalated_at range.
func (r *EscalationLogRepository) GetStatistics(from, to *time.Time) (*models.EscalationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'pending'), 0),
			COALESCE(SUM(status = 'acknowledged'), 0),
			COALESCE(SUM(status = 'resolved'), 0),
			COALESCE(AVG(CASE WHEN status = 'resolved' AND resolved_at IS NOT NULL
				THEN TIMESTAMPDIFF(MINUTE, escalated_at, resolved_at) END), 0)
		FROM escalation_logs
		WHERE 1=1
	`
	args := []interface{}{}
	if from != nil {
		query += " AND escalated_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		query += " AND escalated_at <= ?"
		args = append(args, *to)
	}

	var stats models.EscalationStats
	err := r.db.QueryRow(query, args...).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.Acknowledged,
		&stats.Resolved,
		&stats.AverageResolutionMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation statistics: %w", err)
	}
	return &stats, nil
}
