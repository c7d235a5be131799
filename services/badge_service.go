package services

import (
	"context"
	"fmt"
	"log"

	"stillpointAPI/internal/badge"
	"stillpointAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BadgeService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewBadgeService(db *pgxpool.Pool, notifications *NotificationService) *BadgeService {
	return &BadgeService{db: db, notifications: notifications}
}

// CheckAndAwardBadges grants every badge whose requirement the user's current
// stats satisfy and that was not earned before. Safe to call repeatedly: the
// (user, badge) uniqueness makes re-checks no-ops, and badges are never
// revoked.
func (s *BadgeService) CheckAndAwardBadges(ctx context.Context, clerkID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	userID, err := resolveUserID(ctx, tx, clerkID)
	if err != nil {
		return err
	}

	if err := s.awardTx(ctx, tx, userID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *BadgeService) awardTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	stats, err := s.collectStats(ctx, tx, userID)
	if err != nil {
		return err
	}

	catalog, err := s.loadCatalog(ctx, tx)
	if err != nil {
		return err
	}

	for _, b := range catalog {
		if !badge.Meets(b, stats) {
			continue
		}

		result, err := tx.Exec(ctx, `
			INSERT INTO user_badges (id, user_id, badge_id, earned_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (user_id, badge_id) DO NOTHING
		`, uuid.New(), userID, b.ID)
		if err != nil {
			return fmt.Errorf("failed to award badge: %w", err)
		}
		if result.RowsAffected() == 0 {
			continue // already earned
		}

		log.Printf("Awarded badge %q to user %s", b.Name, userID)
		engineOps.WithLabelValues("award_badge", "awarded").Inc()
		body := fmt.Sprintf("You earned the %q badge. %s", b.Name, b.Description)
		if err := s.notifications.insert(ctx, tx, userID, notification.TypeBadgeEarned, "New badge", body); err != nil {
			return err
		}
	}

	return nil
}

// collectStats reads the aggregates the award rules run against. Only
// completed activity counts.
func (s *BadgeService) collectStats(ctx context.Context, q querier, userID uuid.UUID) (badge.Stats, error) {
	var st badge.Stats
	err := q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM meditation_sessions WHERE user_id = $1 AND status = 'completed'),
			(SELECT COALESCE(SUM(total_minutes_meditated), 0) FROM meditation_sessions WHERE user_id = $1 AND status = 'completed'),
			(SELECT COALESCE(MAX(longest_streak), 0) FROM streaks WHERE user_id = $1),
			(SELECT COUNT(*) FROM breathing_sessions WHERE user_id = $1 AND completed_at IS NOT NULL),
			(SELECT COUNT(DISTINCT cs.course_id)
			   FROM course_sessions cs
			  WHERE NOT EXISTS (
					SELECT 1 FROM course_sessions cs2
					LEFT JOIN course_progress cp
					  ON cp.course_session_id = cs2.id AND cp.user_id = $1 AND cp.completed_at IS NOT NULL
					WHERE cs2.course_id = cs.course_id AND cp.id IS NULL
			  ))
	`, userID).Scan(
		&st.TotalSessions, &st.TotalMinutes, &st.LongestStreak, &st.BreathingSessions, &st.CoursesCompleted,
	)
	if err != nil {
		return badge.Stats{}, fmt.Errorf("failed to collect badge stats: %w", err)
	}
	return st, nil
}

func (s *BadgeService) loadCatalog(ctx context.Context, tx pgx.Tx) ([]badge.Badge, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, description, icon, category, tier, requirement_type, requirement_value, created_at
		FROM badges
		ORDER BY requirement_value
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	defer rows.Close()

	var catalog []badge.Badge
	for rows.Next() {
		var b badge.Badge
		err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category, &b.Tier,
			&b.RequirementType, &b.RequirementValue, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		catalog = append(catalog, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}
	return catalog, nil
}

// GetUserBadges lists the full catalog with the user's earned status, earned
// first.
func (s *BadgeService) GetUserBadges(ctx context.Context, clerkID string) ([]*badge.BadgeWithStatus, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		b.id, b.name, b.description, b.icon, b.category, b.tier,
		b.requirement_type, b.requirement_value, b.created_at,
		CASE WHEN ub.id IS NOT NULL THEN true ELSE false END AS earned,
		ub.earned_at
	FROM badges b
	LEFT JOIN user_badges ub ON b.id = ub.badge_id AND ub.user_id = $1
	ORDER BY earned DESC, b.requirement_value ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus
	for rows.Next() {
		bw := &badge.BadgeWithStatus{}
		err := rows.Scan(
			&bw.ID, &bw.Name, &bw.Description, &bw.Icon, &bw.Category, &bw.Tier,
			&bw.RequirementType, &bw.RequirementValue, &bw.CreatedAt,
			&bw.Earned, &bw.EarnedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, bw)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	if badges == nil {
		badges = []*badge.BadgeWithStatus{}
	}
	return badges, nil
}
