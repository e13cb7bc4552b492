package service

import (
	"fmt"
	"log"

	"caseguard/models"
)

// TargetResolver expands a rule's target list into concrete recipients.
// Missing identities never abort a resolution: escalation proceeds with
// whoever resolves.
type TargetResolver struct {
	users UserDirectory
}

// NewTargetResolver creates a new target resolver
func NewTargetResolver(users UserDirectory) *TargetResolver {
	return &TargetResolver{users: users}
}

// Resolve expands targets in order into a recipient set deduplicated by
// user id. A user-id target that does not resolve is skipped with a
// logged note; a role target yields every active holder of the role.
func (r *TargetResolver) Resolve(targets []models.EscalationTarget) ([]models.Recipient, error) {
	seen := make(map[int64]bool)
	var recipients []models.Recipient

	add := func(user *models.User) {
		if seen[user.UserID] {
			return
		}
		seen[user.UserID] = true
		recipient := models.Recipient{
			UserID: user.UserID,
			Name:   user.FullName(),
		}
		if user.Email.Valid {
			recipient.Email = user.Email.String
		}
		if user.PhoneNumber.Valid {
			recipient.PhoneNumber = user.PhoneNumber.String
		}
		recipients = append(recipients, recipient)
	}

	for _, target := range targets {
		switch target.Kind {
		case models.TargetUserID:
			user, err := r.users.GetUserByID(target.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve user target %d: %w", target.UserID, err)
			}
			if user == nil {
				log.Printf("[RESOLVER] target user %d not found, skipping", target.UserID)
				continue
			}
			add(user)
		case models.TargetRole:
			users, err := r.users.GetActiveUsersByRole(target.Role)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve role target %q: %w", target.Role, err)
			}
			if len(users) == 0 {
				log.Printf("[RESOLVER] role %q has no active users, skipping", target.Role)
				continue
			}
			for i := range users {
				add(&users[i])
			}
		default:
			log.Printf("[RESOLVER] unknown target kind %q, skipping", target.Kind)
		}
	}

	return recipients, nil
}
