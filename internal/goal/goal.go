package goal

import (
	"time"

	"github.com/google/uuid"
)

type GoalType string

const (
	TypeTotalSessions  GoalType = "total_sessions"
	TypeTotalMinutes   GoalType = "total_minutes"
	TypeStreakDays     GoalType = "streak_days"
	TypeWeeklySessions GoalType = "weekly_sessions"
)

func ValidType(t GoalType) bool {
	switch t {
	case TypeTotalSessions, TypeTotalMinutes, TypeStreakDays, TypeWeeklySessions:
		return true
	}
	return false
}

type Goal struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description" db:"description"`
	GoalType     GoalType   `json:"goal_type" db:"goal_type"`
	TargetValue  int        `json:"target_value" db:"target_value"`
	CurrentValue int        `json:"current_value" db:"current_value"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	Deadline     *time.Time `json:"deadline" db:"deadline"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateGoalRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	GoalType    GoalType   `json:"goal_type"`
	TargetValue int        `json:"target_value"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// Activity is one completed practice event as seen by goal progress:
// Sessions/Minutes are deltas, StreakDays and WeeklySessions are the
// current observed values for the user.
type Activity struct {
	Sessions       int
	Minutes        int
	StreakDays     int
	WeeklySessions int
}

// Apply advances the goal's current value for one activity. current_value
// never decreases while the goal is active. Returns whether the row changed
// and whether the target was reached by this activity.
func Apply(g *Goal, a Activity) (changed bool, completed bool) {
	if !g.IsActive {
		return false, false
	}

	next := g.CurrentValue
	switch g.GoalType {
	case TypeTotalSessions:
		next += a.Sessions
	case TypeTotalMinutes:
		next += a.Minutes
	case TypeStreakDays:
		if a.StreakDays > next {
			next = a.StreakDays
		}
	case TypeWeeklySessions:
		if a.WeeklySessions > next {
			next = a.WeeklySessions
		}
	}

	if next == g.CurrentValue {
		return false, false
	}

	g.CurrentValue = next
	return true, g.CurrentValue >= g.TargetValue
}
