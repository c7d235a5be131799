package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stillpointAPI/internal/goal"
	"stillpointAPI/internal/notification"
	"stillpointAPI/internal/streak"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreakConfig carries the engine-wide grace allowance. A user's active
// practice plan can override it per user.
type StreakConfig struct {
	GraceDays int
}

type StreakService struct {
	db            *pgxpool.Pool
	cfg           StreakConfig
	goals         *GoalService
	notifications *NotificationService
}

func NewStreakService(db *pgxpool.Pool, cfg StreakConfig, goals *GoalService, notifications *NotificationService) *StreakService {
	return &StreakService{db: db, cfg: cfg, goals: goals, notifications: notifications}
}

var streakMilestones = map[int]bool{7: true, 30: true, 100: true, 365: true}

// UpdateStreak records one qualifying activity date for (user, streakType).
// The streak row is locked for the duration of the transaction so concurrent
// completions serialize; recording the same date twice is a no-op.
func (s *StreakService) UpdateStreak(ctx context.Context, clerkID string, streakType streak.StreakType, activityDate time.Time) (*streak.Streak, error) {
	if streakType == "" {
		return nil, fmt.Errorf("streak type required: %w", ErrInvalidInput)
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

	st, outcome, err := s.advanceTx(ctx, tx, userID, streakType, activityDate)
	if err != nil {
		return nil, err
	}

	if outcome != streak.OutcomeNoChange {
		// Streak-day goals track the best observed run length.
		if err := s.goals.applyActivity(ctx, tx, userID, goal.Activity{StreakDays: st.CurrentStreak}); err != nil {
			return nil, err
		}

		if streakMilestones[st.CurrentStreak] && streakType == streak.TypeOverall {
			body := fmt.Sprintf("%d days of practice in a row. Keep going!", st.CurrentStreak)
			if err := s.notifications.insert(ctx, tx, userID, notification.TypeStreakMilestone, "Streak milestone", body); err != nil {
				return nil, err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	engineOps.WithLabelValues("update_streak", outcome.String()).Inc()

	return st, nil
}

// advanceTx runs the streak transition inside an existing transaction. It is
// shared by the public UpdateStreak endpoint and by session recording.
func (s *StreakService) advanceTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType streak.StreakType, activityDate time.Time) (*streak.Streak, streak.Outcome, error) {
	// Ensure the row exists before locking it; the unique index makes the
	// insert a no-op when another call got there first.
	_, err := tx.Exec(ctx, `
		INSERT INTO streaks (id, user_id, streak_type, current_streak, longest_streak, grace_used, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, NOW(), NOW())
		ON CONFLICT (user_id, streak_type) DO NOTHING
	`, uuid.New(), userID, streakType)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to ensure streak row: %w", err)
	}

	st := &streak.Streak{}
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, streak_type, current_streak, longest_streak, last_activity_date, grace_used, created_at, updated_at
		FROM streaks
		WHERE user_id = $1 AND streak_type = $2
		FOR UPDATE
	`, userID, streakType).Scan(
		&st.ID, &st.UserID, &st.StreakType, &st.CurrentStreak, &st.LongestStreak,
		&st.LastActivityDate, &st.GraceUsed, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock streak: %w", err)
	}

	policy := streak.Policy{GraceDays: s.graceDays(ctx, tx, userID)}
	outcome := streak.Advance(st, activityDate, policy)
	if outcome == streak.OutcomeNoChange {
		return st, outcome, nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE streaks
		SET current_streak = $1, longest_streak = $2, last_activity_date = $3, grace_used = $4, updated_at = NOW()
		WHERE id = $5
	`, st.CurrentStreak, st.LongestStreak, st.LastActivityDate, st.GraceUsed, st.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to update streak: %w", err)
	}

	if outcome == streak.OutcomeReset {
		log.Printf("Streak %s/%s reset for user %s", streakType, st.ID, userID)
	}

	return st, outcome, nil
}

// graceDays returns the user's plan override when present, otherwise the
// configured default.
func (s *StreakService) graceDays(ctx context.Context, q querier, userID uuid.UUID) int {
	var days int
	err := q.QueryRow(ctx,
		`SELECT grace_days FROM practice_plans WHERE user_id = $1 AND is_active = true`,
		userID,
	).Scan(&days)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Failed to read practice plan grace days for %s: %v", userID, err)
		}
		return s.cfg.GraceDays
	}
	return days
}

func (s *StreakService) GetUserStreaks(ctx context.Context, clerkID string) ([]*streak.Streak, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, streak_type, current_streak, longest_streak, last_activity_date, grace_used, created_at, updated_at
		FROM streaks
		WHERE user_id = $1
		ORDER BY streak_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch streaks: %w", err)
	}
	defer rows.Close()

	var streaks []*streak.Streak
	for rows.Next() {
		st := &streak.Streak{}
		err := rows.Scan(
			&st.ID, &st.UserID, &st.StreakType, &st.CurrentStreak, &st.LongestStreak,
			&st.LastActivityDate, &st.GraceUsed, &st.CreatedAt, &st.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		streaks = append(streaks, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating streaks: %w", err)
	}

	if streaks == nil {
		streaks = []*streak.Streak{}
	}
	return streaks, nil
}
