package service

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"caseguard/models"
)

// AuditSink records dispatch attempts and evaluator events for
// observability. Implementations must treat records as append-only.
type AuditSink interface {
	RecordDispatch(record *models.DispatchRecord) error
	RecordEvent(ref models.EntityRef, action string, metadata map[string]interface{}) error
}

// AuditStore is the persistence the DB sink writes through.
type AuditStore interface {
	CreateDispatchRecord(record *models.DispatchRecord) error
	CreateAuditLog(audit *models.AuditLog) error
}

// DBAuditSink writes audit rows through the dispatch repository.
type DBAuditSink struct {
	store AuditStore
}

// NewDBAuditSink creates an audit sink backed by store.
func NewDBAuditSink(store AuditStore) *DBAuditSink {
	return &DBAuditSink{store: store}
}

// RecordDispatch appends one recipient/channel attempt, assigning a
// reference when the caller left it empty.
func (s *DBAuditSink) RecordDispatch(record *models.DispatchRecord) error {
	if record.Reference == "" {
		record.Reference = uuid.NewString()
	}
	if err := s.store.CreateDispatchRecord(record); err != nil {
		return fmt.Errorf("failed to record dispatch attempt: %w", err)
	}
	return nil
}

// RecordEvent appends an audit log entry with JSON metadata.
func (s *DBAuditSink) RecordEvent(ref models.EntityRef, action string, metadata map[string]interface{}) error {
	audit := &models.AuditLog{
		EntityKind: string(ref.Kind),
		EntityID:   ref.ID,
		Action:     action,
	}
	if len(metadata) > 0 {
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		audit.Metadata = sql.NullString{String: string(metadataJSON), Valid: true}
	}
	if err := s.store.CreateAuditLog(audit); err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}
