package session

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Terminal reports whether the session can no longer be mutated.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type MeditationSession struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	UserID                uuid.UUID  `json:"user_id" db:"user_id"`
	SessionType           string     `json:"session_type" db:"session_type"`
	DurationMinutes       int        `json:"duration_minutes" db:"duration_minutes"`
	IntervalMinutes       *int       `json:"interval_minutes" db:"interval_minutes"`
	Status                Status     `json:"status" db:"status"`
	StartedAt             time.Time  `json:"started_at" db:"started_at"`
	PausedAt              *time.Time `json:"paused_at" db:"paused_at"`
	ResumedAt             *time.Time `json:"resumed_at" db:"resumed_at"`
	CompletedAt           *time.Time `json:"completed_at" db:"completed_at"`
	AbandonedAt           *time.Time `json:"abandoned_at" db:"abandoned_at"`
	TotalMinutesMeditated int        `json:"total_minutes_meditated" db:"total_minutes_meditated"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// SyncRequest carries a session recorded by a possibly-offline client. The
// engine upserts by started_at so a retried sync never duplicates the row.
type SyncRequest struct {
	SessionType     string     `json:"session_type"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          Status     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TotalMinutes    int        `json:"total_minutes,omitempty"`
}

type SyncResult struct {
	SessionID uuid.UUID `json:"session_id"`
}

type BreathingSession struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	UserID               uuid.UUID  `json:"user_id" db:"user_id"`
	PatternName          string     `json:"pattern_name" db:"pattern_name"`
	InhaleSeconds        int        `json:"inhale_seconds" db:"inhale_seconds"`
	HoldSeconds          int        `json:"hold_seconds" db:"hold_seconds"`
	ExhaleSeconds        int        `json:"exhale_seconds" db:"exhale_seconds"`
	RoundsCompleted      int        `json:"rounds_completed" db:"rounds_completed"`
	TotalDurationSeconds int        `json:"total_duration_seconds" db:"total_duration_seconds"`
	StartedAt            time.Time  `json:"started_at" db:"started_at"`
	CompletedAt          *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

type RecordBreathingRequest struct {
	PatternName          string    `json:"pattern_name"`
	InhaleSeconds        int       `json:"inhale_seconds"`
	HoldSeconds          int       `json:"hold_seconds"`
	ExhaleSeconds        int       `json:"exhale_seconds"`
	RoundsCompleted      int       `json:"rounds_completed"`
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	StartedAt            time.Time `json:"started_at"`
}

type CourseProgress struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	UserID              uuid.UUID  `json:"user_id" db:"user_id"`
	CourseSessionID     uuid.UUID  `json:"course_session_id" db:"course_session_id"`
	LastPositionSeconds int        `json:"last_position_seconds" db:"last_position_seconds"`
	CompletedAt         *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

type CourseProgressRequest struct {
	CourseSessionID     string `json:"course_session_id"`
	LastPositionSeconds int    `json:"last_position_seconds"`
	Completed           bool   `json:"completed"`
}
