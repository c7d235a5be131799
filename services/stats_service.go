package services

import (
	"context"
	"fmt"

	"stillpointAPI/internal/stats"
	"stillpointAPI/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsService serves read-only aggregations. Nothing here mutates state, so
// queries run straight against the pool without a transaction.
type StatsService struct {
	db *pgxpool.Pool
}

func NewStatsService(db *pgxpool.Pool) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) GetDashboardSummary(ctx context.Context, clerkID string) (*stats.DashboardSummary, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	summary := &stats.DashboardSummary{}
	var badgesEarned int
	err = s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM meditation_sessions WHERE user_id = $1 AND status = 'completed'),
			(SELECT COALESCE(SUM(total_minutes_meditated), 0) FROM meditation_sessions WHERE user_id = $1 AND status = 'completed'),
			(SELECT COALESCE(MAX(current_streak), 0) FROM streaks WHERE user_id = $1 AND streak_type = 'overall'),
			(SELECT COALESCE(balance, 0) FROM user_tokens WHERE user_id = $1),
			(SELECT COUNT(*) FROM goals WHERE user_id = $1 AND is_active = TRUE),
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE),
			(SELECT COUNT(*) FROM course_enrollments WHERE user_id = $1),
			(SELECT COUNT(*) FROM user_badges WHERE user_id = $1)
	`, userID).Scan(
		&summary.TotalSessions,
		&summary.TotalMinutes,
		&summary.CurrentStreak,
		&summary.TokenBalance,
		&summary.ActiveGoals,
		&summary.UnreadNotifications,
		&summary.EnrolledCourses,
		&badgesEarned,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
	}

	summary.MindfulnessScore = utils.CalculateMindfulnessScore(summary.CurrentStreak, summary.TotalMinutes, badgesEarned)
	return summary, nil
}

func (s *StatsService) GetProgressStats(ctx context.Context, clerkID string) (*stats.ProgressStats, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ps := &stats.ProgressStats{}
	err = s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM meditation_sessions
			  WHERE user_id = $1 AND status = 'completed' AND started_at >= DATE_TRUNC('week', CURRENT_DATE)),
			(SELECT COALESCE(SUM(total_minutes_meditated), 0) FROM meditation_sessions
			  WHERE user_id = $1 AND status = 'completed' AND started_at >= DATE_TRUNC('week', CURRENT_DATE)),
			(SELECT COUNT(*) FROM meditation_sessions
			  WHERE user_id = $1 AND status = 'completed' AND started_at >= DATE_TRUNC('month', CURRENT_DATE)),
			(SELECT COALESCE(SUM(total_minutes_meditated), 0) FROM meditation_sessions
			  WHERE user_id = $1 AND status = 'completed' AND started_at >= DATE_TRUNC('month', CURRENT_DATE)),
			(SELECT COUNT(*) FROM breathing_sessions WHERE user_id = $1 AND completed_at IS NOT NULL),
			(SELECT COUNT(DISTINCT cs.course_id) FROM course_sessions cs
			  WHERE NOT EXISTS (
				SELECT 1 FROM course_sessions cs2
				LEFT JOIN course_progress cp ON cp.course_session_id = cs2.id AND cp.user_id = $1
				WHERE cs2.course_id = cs.course_id AND cp.completed_at IS NULL
			  )),
			(SELECT COUNT(*) FROM user_badges WHERE user_id = $1),
			(SELECT COALESCE(MAX(longest_streak), 0) FROM streaks WHERE user_id = $1)
	`, userID).Scan(
		&ps.Weekly.Sessions,
		&ps.Weekly.Minutes,
		&ps.Monthly.Sessions,
		&ps.Monthly.Minutes,
		&ps.BreathingSessions,
		&ps.CoursesCompleted,
		&ps.BadgesEarned,
		&ps.LongestStreak,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress stats: %w", err)
	}

	return ps, nil
}
