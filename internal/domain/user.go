package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the learner's role as reported by the identity provider.
type Role string

// Known roles.
const (
	RoleLearner    Role = "learner"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// CanBypassLocks reports whether the role may submit answers to locked lessons.
func (r Role) CanBypassLocks() bool {
	return r == RoleAdmin || r == RoleInstructor
}

// User is the engine's view of a learner. TotalPointsEarned is a running
// aggregate over the user's completed progress rows and is only ever
// incremented by answer submission.
type User struct {
	ID                uuid.UUID `json:"id"`
	DisplayName       string    `json:"display_name"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	Role              Role      `json:"role"`
	TotalPointsEarned int       `json:"total_points_earned"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if u.TotalPointsEarned < 0 {
		return NewValidationError("total_points_earned", "cannot be negative", nil)
	}
	return nil
}
