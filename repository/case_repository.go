package repository

import (
	"database/sql"
	"fmt"
	"time"

	"caseguard/models"
)

// CaseRepository is the narrow window onto the entity lifecycle
// subsystem's tables: read the fields the trigger predicates need, write
// nothing but the escalated flag and priority columns.
type CaseRepository struct {
	db *sql.DB
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// ListOpenCases returns a snapshot of every entity still eligible for
// escalation: crime reports outside resolved/closed and gun applications
// outside approved/rejected.
func (r *CaseRepository) ListOpenCases() ([]models.CaseSnapshot, error) {
	reports, err := r.listOpenReports()
	if err != nil {
		return nil, err
	}
	applications, err := r.listOpenApplications()
	if err != nil {
		return nil, err
	}
	return append(reports, applications...), nil
}

func (r *CaseRepository) listOpenReports() ([]models.CaseSnapshot, error) {
	query := `
		SELECT report_id, report_number, status, priority_level,
			severity_level, is_escalated, created_at, created_at,
			COALESCE(updated_at, created_at)
		FROM crime_reports
		WHERE status NOT IN (?, ?)
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, models.ReportStatusResolved, models.ReportStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to query open crime reports: %w", err)
	}
	defer rows.Close()

	var snapshots []models.CaseSnapshot
	for rows.Next() {
		s := models.CaseSnapshot{Ref: models.EntityRef{Kind: models.KindCrimeReport}}
		err := rows.Scan(
			&s.Ref.ID, &s.Number, &s.Status, &s.PriorityLevel,
			&s.SeverityLevel, &s.IsEscalated, &s.SubmittedAt,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crime report: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crime reports: %w", err)
	}
	return snapshots, nil
}

func (r *CaseRepository) listOpenApplications() ([]models.CaseSnapshot, error) {
	query := `
		SELECT application_id, application_number, status, priority_level,
			is_escalated, submitted_at, created_at,
			COALESCE(updated_at, created_at)
		FROM gun_applications
		WHERE status NOT IN (?, ?)
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, models.ApplicationStatusApproved, models.ApplicationStatusRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to query open gun applications: %w", err)
	}
	defer rows.Close()

	var snapshots []models.CaseSnapshot
	for rows.Next() {
		s := models.CaseSnapshot{Ref: models.EntityRef{Kind: models.KindGunApplication}}
		err := rows.Scan(
			&s.Ref.ID, &s.Number, &s.Status, &s.PriorityLevel,
			&s.IsEscalated, &s.SubmittedAt, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gun application: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating gun applications: %w", err)
	}
	return snapshots, nil
}

// CountPendingDocuments counts the entity's documents awaiting
// verification, for the documents_pending trigger.
func (r *CaseRepository) CountPendingDocuments(ref models.EntityRef) (int, error) {
	query := `
		SELECT COUNT(*) FROM documents
		WHERE entity_kind = ? AND entity_id = ? AND verification_status = ?
	`
	var count int
	err := r.db.QueryRow(query, ref.Kind, ref.ID, models.DocumentStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending documents: %w", err)
	}
	return count, nil
}

// LastStatusChangeAt returns when the entity's status last changed, from
// the audit log, or nil when no status change was ever recorded.
func (r *CaseRepository) LastStatusChangeAt(ref models.EntityRef) (*time.Time, error) {
	query := `
		SELECT MAX(created_at) FROM audit_log
		WHERE entity_kind = ? AND entity_id = ? AND action = 'status_changed'
	`
	var at sql.NullTime
	err := r.db.QueryRow(query, ref.Kind, ref.ID).Scan(&at)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last status change: %w", err)
	}
	if !at.Valid {
		return nil, nil
	}
	return &at.Time, nil
}

// MarkEscalated flags the entity and raises its priority to at least
// priorityLevel. GREATEST keeps the raise monotonic: a low-priority rule
// never lowers a priority a higher one already set.
func (r *CaseRepository) MarkEscalated(ref models.EntityRef, priorityLevel int) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_escalated = true,
			escalated_at = ?,
			priority_level = GREATEST(priority_level, ?)
		WHERE %s = ?
	`, caseTable(ref.Kind), caseIDColumn(ref.Kind))

	_, err := r.db.Exec(query, time.Now().UTC(), priorityLevel, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to mark %s escalated: %w", ref, err)
	}
	return nil
}

// ClearEscalated drops the entity's escalated flag after resolution.
// Priority stays raised; only the flag is cleared.
func (r *CaseRepository) ClearEscalated(ref models.EntityRef) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_escalated = false WHERE %s = ?
	`, caseTable(ref.Kind), caseIDColumn(ref.Kind))

	_, err := r.db.Exec(query, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to clear escalated flag on %s: %w", ref, err)
	}
	return nil
}

func caseTable(kind models.EntityKind) string {
	if kind == models.KindCrimeReport {
		return "crime_reports"
	}
	return "gun_applications"
}

func caseIDColumn(kind models.EntityKind) string {
	if kind == models.KindCrimeReport {
		return "report_id"
	}
	return "application_id"
}
