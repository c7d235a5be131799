package plan

import (
	"time"

	"github.com/google/uuid"
)

// PracticePlan holds a user's cadence targets. GraceDays overrides the
// engine-wide streak grace allowance for that user.
type PracticePlan struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	UserID                uuid.UUID `json:"user_id" db:"user_id"`
	Frequency             string    `json:"frequency" db:"frequency"`
	TargetSessionsPerWeek *int      `json:"target_sessions_per_week" db:"target_sessions_per_week"`
	TargetMinutesPerWeek  *int      `json:"target_minutes_per_week" db:"target_minutes_per_week"`
	GraceDays             int       `json:"grace_days" db:"grace_days"`
	IsActive              bool      `json:"is_active" db:"is_active"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

type UpsertPlanRequest struct {
	Frequency             string `json:"frequency"`
	TargetSessionsPerWeek *int   `json:"target_sessions_per_week,omitempty"`
	TargetMinutesPerWeek  *int   `json:"target_minutes_per_week,omitempty"`
	GraceDays             *int   `json:"grace_days,omitempty"`
}
