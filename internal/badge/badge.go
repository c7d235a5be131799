package badge

import (
	"time"

	"github.com/google/uuid"
)

type RequirementType string

const (
	RequirementTotalSessions     RequirementType = "total_sessions"
	RequirementTotalMinutes      RequirementType = "total_minutes"
	RequirementStreakDays        RequirementType = "streak_days"
	RequirementBreathingSessions RequirementType = "breathing_sessions"
	RequirementCoursesCompleted  RequirementType = "courses_completed"
)

type Badge struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Description      string          `json:"description" db:"description"`
	Icon             string          `json:"icon" db:"icon"`
	Category         string          `json:"category" db:"category"`
	Tier             *string         `json:"tier" db:"tier"`
	RequirementType  RequirementType `json:"requirement_type" db:"requirement_type"`
	RequirementValue int             `json:"requirement_value" db:"requirement_value"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

type UserBadge struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID  uuid.UUID `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

type BadgeWithStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// Stats is the snapshot of a user's aggregates the award rules run against.
type Stats struct {
	TotalSessions     int
	TotalMinutes      int
	LongestStreak     int
	BreathingSessions int
	CoursesCompleted  int
}

// Meets reports whether the user's stats satisfy the badge requirement.
// Unknown requirement types never match, so a catalog entry added ahead of
// engine support is inert rather than an error.
func Meets(b Badge, s Stats) bool {
	var have int
	switch b.RequirementType {
	case RequirementTotalSessions:
		have = s.TotalSessions
	case RequirementTotalMinutes:
		have = s.TotalMinutes
	case RequirementStreakDays:
		have = s.LongestStreak
	case RequirementBreathingSessions:
		have = s.BreathingSessions
	case RequirementCoursesCompleted:
		have = s.CoursesCompleted
	default:
		return false
	}
	return have >= b.RequirementValue
}
