package models

import (
	"database/sql"
	"fmt"
	"time"
)

// EntityKind identifies which case table an escalatable entity lives in.
type EntityKind string

const (
	KindCrimeReport    EntityKind = "crime_report"
	KindGunApplication EntityKind = "gun_application"
)

// EntityRef is a tagged reference to an escalatable case entity.
type EntityRef struct {
	Kind EntityKind `db:"entity_kind" json:"entity_kind"`
	ID   int64      `db:"entity_id" json:"entity_id"`
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// CaseSnapshot is the read view of an escalatable entity the evaluator
// works against. It carries only the fields the trigger predicates need;
// the owning subsystem keeps everything else.
type CaseSnapshot struct {
	Ref           EntityRef
	Number        string
	Status        string
	PriorityLevel int
	SeverityLevel int // crime reports only; zero for applications
	IsEscalated   bool
	SubmittedAt   sql.NullTime
	UpdatedAt     time.Time
	CreatedAt     time.Time
}

// Crime report terminal statuses.
const (
	ReportStatusResolved = "resolved"
	ReportStatusClosed   = "closed"
)

// Gun application terminal statuses.
const (
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

// DocumentStatusPending is the verification status counted by the
// documents_pending trigger.
const DocumentStatusPending = "pending"

// User is the slice of the identity subsystem the resolver reads:
// who someone is and how to reach them.
type User struct {
	UserID      int64          `db:"user_id" json:"user_id"`
	FirstName   string         `db:"first_name" json:"first_name"`
	LastName    string         `db:"last_name" json:"last_name"`
	Email       sql.NullString `db:"email" json:"email"`
	PhoneNumber sql.NullString `db:"phone_number" json:"phone_number"`
	IsActive    bool           `db:"is_active" json:"is_active"`
}

// FullName joins first and last name for template variables.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AuditLog represents an audit trail entry (immutable)
type AuditLog struct {
	AuditID    int64          `db:"audit_id" json:"audit_id"`
	EntityKind string         `db:"entity_kind" json:"entity_kind"`
	EntityID   int64          `db:"entity_id" json:"entity_id"`
	Action     string         `db:"action" json:"action"`
	Metadata   sql.NullString `db:"metadata" json:"metadata"` // JSON
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// ErrorResponse is the standard error payload for API responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
