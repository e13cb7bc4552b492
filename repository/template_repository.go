package repository

import (
	"database/sql"
	"fmt"

	"caseguard/models"
)

// TemplateRepository reads notification templates. Authoring happens in
// the administrative UI; this service only loads active templates.
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetTemplateByName retrieves the active template with the given name.
func (r *TemplateRepository) GetTemplateByName(name string) (*models.NotificationTemplate, error) {
	query := `
		SELECT template_id, name, subject, email_body, sms_body,
			type, is_active, updated_at
		FROM notification_templates
		WHERE name = ? AND is_active = true
		LIMIT 1
	`

	tpl := &models.NotificationTemplate{}
	err := r.db.QueryRow(query, name).Scan(
		&tpl.TemplateID,
		&tpl.Name,
		&tpl.Subject,
		&tpl.EmailBody,
		&tpl.SMSBody,
		&tpl.Type,
		&tpl.IsActive,
		&tpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "notification template", Key: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification template: %w", err)
	}
	return tpl, nil
}
