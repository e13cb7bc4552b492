// Package schema: safe database initialization — create only missing tables, never drop or overwrite.

package schema

import (
	"database/sql"
	"log"
)

// InitializeDatabase ensures the escalation and notification tables exist.
// Checks INFORMATION_SCHEMA.TABLES; creates only missing tables. Does not
// drop or recreate tables; does not remove data. The case tables
// (crime_reports, gun_applications, documents, users) belong to the case
// management system and are validated, never created, here.
func InitializeDatabase(db *sql.DB) {
	ensure(db, "escalation_rules", createEscalationRulesTable)
	ensure(db, "escalation_logs", createEscalationLogsTable)
	ensure(db, "notification_templates", createNotificationTemplatesTable)
	ensure(db, "dispatch_records", createDispatchRecordsTable)
	ensure(db, "inapp_notifications", createInAppNotificationsTable)
	ensure(db, "audit_log", createAuditLogTable)
}

func ensure(db *sql.DB, table string, create func(*sql.DB)) {
	exists, err := tableExists(db, table)
	if err != nil {
		log.Fatalf("[SCHEMA] Failed to check if table %s exists: %v", table, err)
	}
	if exists {
		log.Printf("[SCHEMA] %s table exists", table)
		return
	}
	create(db)
	log.Printf("[SCHEMA] created %s table", table)
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func createEscalationRulesTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS escalation_rules (
    rule_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL COMMENT 'Rule display name',
    description TEXT NULL COMMENT 'What the rule watches for',
    trigger_condition VARCHAR(50) NOT NULL COMMENT 'Trigger kind, e.g. days_since_submission',
    threshold_value INT NOT NULL COMMENT 'Threshold the trigger compares against',
    escalation_targets JSON NOT NULL COMMENT 'Target list: user ids and role names',
    priority_level INT NOT NULL DEFAULT 1 COMMENT 'Priority assigned on escalation',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NULL ON UPDATE CURRENT_TIMESTAMP,
    INDEX idx_active_priority (is_active, priority_level)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table escalation_rules: %v", err)
	}
}

func createEscalationLogsTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS escalation_logs (
    log_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    entity_kind ENUM('crime_report', 'gun_application') NOT NULL COMMENT 'Which case table the entity lives in',
    entity_id BIGINT NOT NULL COMMENT 'Row id within the entity table',
    rule_id BIGINT NOT NULL COMMENT 'Rule that fired',
    escalated_by BIGINT NULL COMMENT 'Operator who escalated manually; NULL for sweep',
    escalated_to BIGINT NULL COMMENT 'Operator who acknowledged the escalation',
    escalation_reason VARCHAR(500) NOT NULL,
    status ENUM('pending', 'acknowledged', 'resolved') NOT NULL DEFAULT 'pending',
    escalated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    acknowledged_at TIMESTAMP NULL,
    resolved_at TIMESTAMP NULL,
    resolution_notes TEXT NULL,
    FOREIGN KEY (rule_id) REFERENCES escalation_rules(rule_id) ON DELETE RESTRICT,
    INDEX idx_entity (entity_kind, entity_id),
    INDEX idx_entity_status (entity_kind, entity_id, status),
    INDEX idx_status (status),
    INDEX idx_escalated_at (escalated_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table escalation_logs: %v", err)
	}
}

func createNotificationTemplatesTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS notification_templates (
    template_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(100) UNIQUE NOT NULL COMMENT 'Lookup key, e.g. escalation_notification',
    subject VARCHAR(500) NOT NULL,
    email_body TEXT NOT NULL,
    sms_body VARCHAR(1000) NOT NULL,
    type ENUM('email', 'sms', 'both') NOT NULL DEFAULT 'both',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    INDEX idx_name_active (name, is_active)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table notification_templates: %v", err)
	}
}

func createDispatchRecordsTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS dispatch_records (
    record_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    reference VARCHAR(36) NOT NULL COMMENT 'Dispatch attempt reference (UUID)',
    log_id BIGINT NULL COMMENT 'Escalation log this dispatch served, if any',
    user_id BIGINT NOT NULL COMMENT 'Recipient user',
    recipient VARCHAR(255) NOT NULL COMMENT 'Recipient display name at dispatch time',
    channel ENUM('email', 'sms', 'in_app') NOT NULL,
    template_name VARCHAR(100) NOT NULL,
    variables JSON NULL COMMENT 'Variable map used for rendering',
    outcome ENUM('sent', 'failed', 'skipped') NOT NULL,
    detail VARCHAR(500) NULL COMMENT 'Failure or skip reason',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_log_id (log_id),
    INDEX idx_user_id (user_id),
    INDEX idx_outcome_created (outcome, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table dispatch_records: %v", err)
	}
}

func createInAppNotificationsTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS inapp_notifications (
    notification_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    user_id BIGINT NOT NULL,
    subject VARCHAR(500) NOT NULL,
    body TEXT NOT NULL,
    template_name VARCHAR(100) NOT NULL,
    read_at TIMESTAMP NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_user_unread (user_id, read_at),
    INDEX idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table inapp_notifications: %v", err)
	}
}

func createAuditLogTable(db *sql.DB) {
	q := `
CREATE TABLE IF NOT EXISTS audit_log (
    audit_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    entity_kind VARCHAR(50) NOT NULL,
    entity_id BIGINT NOT NULL,
    action VARCHAR(100) NOT NULL COMMENT 'e.g. escalation_opened, status_changed',
    metadata JSON NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_entity (entity_kind, entity_id),
    INDEX idx_action_created (action, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table audit_log: %v", err)
	}
}
