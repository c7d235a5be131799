package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stillpointAPI/internal/goal"
	"stillpointAPI/internal/session"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PracticeService records practice activity: meditation sessions synced from
// clients, breathing rounds and course listening progress. Goal progress is
// applied in the same transaction as the activity row.
type PracticeService struct {
	db    *pgxpool.Pool
	goals *GoalService
}

func NewPracticeService(db *pgxpool.Pool, goals *GoalService) *PracticeService {
	return &PracticeService{db: db, goals: goals}
}

// SyncMeditationSession upserts a session recorded by a possibly-offline
// client, keyed by (user, started_at) so retries never duplicate the row.
// Sessions already in a terminal state are immutable; re-syncing one returns
// its id unchanged.
func (s *PracticeService) SyncMeditationSession(ctx context.Context, clerkID string, req *session.SyncRequest) (*session.SyncResult, error) {
	if req.SessionType == "" || req.DurationMinutes <= 0 || req.StartedAt.IsZero() {
		return nil, fmt.Errorf("session type, positive duration and start time required: %w", ErrInvalidInput)
	}
	if !session.ValidStatus(req.Status) {
		return nil, fmt.Errorf("unknown session status %q: %w", req.Status, ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, err := resolveUserID(ctx, tx, clerkID)
	if err != nil {
		return nil, err
	}

	var sessionID uuid.UUID
	var prevStatus session.Status
	err = tx.QueryRow(ctx, `
		SELECT id, status FROM meditation_sessions
		WHERE user_id = $1 AND started_at = $2
		FOR UPDATE
	`, userID, req.StartedAt).Scan(&sessionID, &prevStatus)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		sessionID = uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO meditation_sessions
				(id, user_id, session_type, duration_minutes, status, started_at, completed_at, total_minutes_meditated, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		`, sessionID, userID, req.SessionType, req.DurationMinutes, req.Status, req.StartedAt, req.CompletedAt, req.TotalMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to insert session: %w", err)
		}

	case err != nil:
		return nil, fmt.Errorf("failed to look up session: %w", err)

	case session.Terminal(prevStatus):
		// Already finalized; a retried sync is a no-op.
		return &session.SyncResult{SessionID: sessionID}, nil

	default:
		_, err = tx.Exec(ctx, `
			UPDATE meditation_sessions
			SET status = $1, completed_at = $2, total_minutes_meditated = $3, updated_at = NOW()
			WHERE id = $4
		`, req.Status, req.CompletedAt, req.TotalMinutes, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
	}

	if req.Status == session.StatusCompleted {
		weekly, err := s.weeklyCompleted(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		act := goal.Activity{Sessions: 1, Minutes: req.TotalMinutes, WeeklySessions: weekly}
		if err := s.goals.applyActivity(ctx, tx, userID, act); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &session.SyncResult{SessionID: sessionID}, nil
}

// RecordBreathingSession stores one finished breathing exercise and applies
// goal progress for it.
func (s *PracticeService) RecordBreathingSession(ctx context.Context, clerkID string, req *session.RecordBreathingRequest) (*session.BreathingSession, error) {
	if req.PatternName == "" || req.RoundsCompleted <= 0 || req.StartedAt.IsZero() {
		return nil, fmt.Errorf("pattern name, rounds and start time required: %w", ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, err := resolveUserID(ctx, tx, clerkID)
	if err != nil {
		return nil, err
	}

	bs := &session.BreathingSession{}
	err = tx.QueryRow(ctx, `
		INSERT INTO breathing_sessions
			(id, user_id, pattern_name, inhale_seconds, hold_seconds, exhale_seconds, rounds_completed, total_duration_seconds, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, user_id, pattern_name, inhale_seconds, hold_seconds, exhale_seconds, rounds_completed, total_duration_seconds, started_at, completed_at, created_at
	`, uuid.New(), userID, req.PatternName, req.InhaleSeconds, req.HoldSeconds, req.ExhaleSeconds,
		req.RoundsCompleted, req.TotalDurationSeconds, req.StartedAt,
	).Scan(
		&bs.ID, &bs.UserID, &bs.PatternName, &bs.InhaleSeconds, &bs.HoldSeconds, &bs.ExhaleSeconds,
		&bs.RoundsCompleted, &bs.TotalDurationSeconds, &bs.StartedAt, &bs.CompletedAt, &bs.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record breathing session: %w", err)
	}

	weekly, err := s.weeklyCompleted(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	act := goal.Activity{Sessions: 1, Minutes: req.TotalDurationSeconds / 60, WeeklySessions: weekly}
	if err := s.goals.applyActivity(ctx, tx, userID, act); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bs, nil
}

// UpdateCourseProgress upserts the listening position for one course session.
// The first completion stamps completed_at and feeds goal progress; later
// calls can move the position but never un-complete.
func (s *PracticeService) UpdateCourseProgress(ctx context.Context, clerkID string, req *session.CourseProgressRequest) (*session.CourseProgress, error) {
	courseSessionID, err := uuid.Parse(req.CourseSessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid course session id: %w", ErrInvalidInput)
	}
	if req.LastPositionSeconds < 0 {
		return nil, fmt.Errorf("position must not be negative: %w", ErrInvalidInput)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, err := resolveUserID(ctx, tx, clerkID)
	if err != nil {
		return nil, err
	}

	var durationMinutes int
	err = tx.QueryRow(ctx, `SELECT duration_minutes FROM course_sessions WHERE id = $1`, courseSessionID).Scan(&durationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("course session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up course session: %w", err)
	}

	var wasCompleted bool
	err = tx.QueryRow(ctx, `
		SELECT completed_at IS NOT NULL FROM course_progress
		WHERE user_id = $1 AND course_session_id = $2
		FOR UPDATE
	`, userID, courseSessionID).Scan(&wasCompleted)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up course progress: %w", err)
	}

	cp := &session.CourseProgress{}
	err = tx.QueryRow(ctx, `
		INSERT INTO course_progress (id, user_id, course_session_id, last_position_seconds, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $5 THEN NOW() END, NOW(), NOW())
		ON CONFLICT (user_id, course_session_id) DO UPDATE SET
			last_position_seconds = EXCLUDED.last_position_seconds,
			completed_at = COALESCE(course_progress.completed_at, EXCLUDED.completed_at),
			updated_at = NOW()
		RETURNING id, user_id, course_session_id, last_position_seconds, completed_at, created_at, updated_at
	`, uuid.New(), userID, courseSessionID, req.LastPositionSeconds, req.Completed).Scan(
		&cp.ID, &cp.UserID, &cp.CourseSessionID, &cp.LastPositionSeconds, &cp.CompletedAt, &cp.CreatedAt, &cp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert course progress: %w", err)
	}

	if req.Completed && !wasCompleted {
		weekly, werr := s.weeklyCompleted(ctx, tx, userID)
		if werr != nil {
			return nil, werr
		}
		act := goal.Activity{Sessions: 1, Minutes: durationMinutes, WeeklySessions: weekly}
		if err := s.goals.applyActivity(ctx, tx, userID, act); err != nil {
			return nil, err
		}
		log.Printf("Course session %s completed by user %s", courseSessionID, userID)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return cp, nil
}

// EnrollInCourse is idempotent; enrolling twice keeps the original row.
func (s *PracticeService) EnrollInCourse(ctx context.Context, clerkID string, courseID uuid.UUID) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up course: %w", err)
	}
	if !exists {
		return fmt.Errorf("course: %w", ErrNotFound)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO course_enrollments (id, user_id, course_id, enrolled_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, uuid.New(), userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to enroll in course: %w", err)
	}
	return nil
}

// weeklyCompleted counts the user's completed sessions (meditation plus
// breathing) since the start of the current week, for weekly goals.
func (s *PracticeService) weeklyCompleted(ctx context.Context, q querier, userID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM meditation_sessions
			  WHERE user_id = $1 AND status = 'completed'
			    AND started_at >= DATE_TRUNC('week', CURRENT_DATE)) +
			(SELECT COUNT(*) FROM breathing_sessions
			  WHERE user_id = $1 AND completed_at IS NOT NULL
			    AND started_at >= DATE_TRUNC('week', CURRENT_DATE))
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count weekly sessions: %w", err)
	}
	return count, nil
}
