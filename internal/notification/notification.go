package notification

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeBadgeEarned     NotificationType = "badge_earned"
	TypeGoalCompleted   NotificationType = "goal_completed"
	TypeStreakMilestone NotificationType = "streak_milestone"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type UnreadCount struct {
	Count int `json:"count"`
}
