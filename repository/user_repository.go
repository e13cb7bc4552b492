package repository

import (
	"database/sql"
	"fmt"

	"caseguard/models"
)

// UserRepository reads the slice of the identity subsystem the resolver
// needs: user by id, active users by role, contact fields.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByID retrieves user by ID. Returns nil, nil when the user does
// not exist; missing identities are the resolver's business, not an error.
func (r *UserRepository) GetUserByID(userID int64) (*models.User, error) {
	query := `
		SELECT user_id, first_name, last_name, email, phone_number, is_active
		FROM users
		WHERE user_id = ?
		LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRow(query, userID).Scan(
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PhoneNumber,
		&user.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetActiveUsersByRole retrieves all active users holding the named role.
func (r *UserRepository) GetActiveUsersByRole(roleName string) ([]models.User, error) {
	query := `
		SELECT u.user_id, u.first_name, u.last_name, u.email, u.phone_number, u.is_active
		FROM users u
		INNER JOIN user_roles ur ON ur.user_id = u.user_id
		INNER JOIN roles r ON r.role_id = ur.role_id
		WHERE r.name = ? AND u.is_active = true
	`

	rows, err := r.db.Query(query, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by role: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.UserID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&user.PhoneNumber,
			&user.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UserExists reports whether an active user with the id exists. Used by
// the auth middleware.
func (r *UserRepository) UserExists(userID int64) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE user_id = ? AND is_active = true`
	var count int
	if err := r.db.QueryRow(query, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}
