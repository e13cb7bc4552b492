package schema

import (
	"database/sql"
	"log"
	"strings"
)

// RequiredColumn defines a required column for a table.
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns returns the case-table columns the evaluator
// reads and writes. These tables are owned by the case management system;
// if any column is missing, the server should not start (avoids sweep
// failures halfway through a batch).
var DefaultRequiredColumns = []RequiredColumn{
	{Table: "crime_reports", Column: "severity_level"},
	{Table: "crime_reports", Column: "priority_level"},
	{Table: "crime_reports", Column: "is_escalated"},
	{Table: "gun_applications", Column: "submitted_at"},
	{Table: "gun_applications", Column: "priority_level"},
	{Table: "gun_applications", Column: "is_escalated"},
	{Table: "documents", Column: "verification_status"},
	{Table: "users", Column: "is_active"},
}

// ValidateRequiredColumns checks that all required columns exist. On failure, logs a fatal error listing missing columns.
func ValidateRequiredColumns(db *sql.DB, required []RequiredColumn) {
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(db, rc.Table, rc.Column)
		if err != nil {
			log.Fatalf("[SCHEMA] Failed to check column %s.%s: %v", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("[SCHEMA] Missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	log.Println("[SCHEMA] Required columns verified")
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
