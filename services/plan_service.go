package services

import (
	"context"
	"errors"
	"fmt"

	"stillpointAPI/internal/plan"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlanService struct {
	db *pgxpool.Pool
}

func NewPlanService(db *pgxpool.Pool) *PlanService {
	return &PlanService{db: db}
}

// UpsertPlan creates or replaces the user's single active practice plan.
// A nil grace_days keeps the engine-wide default for that user.
func (s *PlanService) UpsertPlan(ctx context.Context, clerkID string, req *plan.UpsertPlanRequest) (*plan.PracticePlan, error) {
	switch req.Frequency {
	case "daily", "weekly", "custom":
	default:
		return nil, fmt.Errorf("unknown plan frequency %q: %w", req.Frequency, ErrInvalidInput)
	}
	if req.GraceDays != nil && *req.GraceDays < 0 {
		return nil, fmt.Errorf("grace days must not be negative: %w", ErrInvalidInput)
	}

	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	graceDays := 0
	if req.GraceDays != nil {
		graceDays = *req.GraceDays
	}

	p := &plan.PracticePlan{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO practice_plans
			(id, user_id, frequency, target_sessions_per_week, target_minutes_per_week, grace_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			frequency = EXCLUDED.frequency,
			target_sessions_per_week = EXCLUDED.target_sessions_per_week,
			target_minutes_per_week = EXCLUDED.target_minutes_per_week,
			grace_days = EXCLUDED.grace_days,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id, user_id, frequency, target_sessions_per_week, target_minutes_per_week, grace_days, is_active, created_at, updated_at
	`, uuid.New(), userID, req.Frequency, req.TargetSessionsPerWeek, req.TargetMinutesPerWeek, graceDays).Scan(
		&p.ID, &p.UserID, &p.Frequency, &p.TargetSessionsPerWeek, &p.TargetMinutesPerWeek,
		&p.GraceDays, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert practice plan: %w", err)
	}
	return p, nil
}

func (s *PlanService) GetPlan(ctx context.Context, clerkID string) (*plan.PracticePlan, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	p := &plan.PracticePlan{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, frequency, target_sessions_per_week, target_minutes_per_week, grace_days, is_active, created_at, updated_at
		FROM practice_plans
		WHERE user_id = $1
	`, userID).Scan(
		&p.ID, &p.UserID, &p.Frequency, &p.TargetSessionsPerWeek, &p.TargetMinutesPerWeek,
		&p.GraceDays, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("practice plan: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load practice plan: %w", err)
	}
	return p, nil
}

// DeactivatePlan keeps the row so its grace override can be restored later.
func (s *PlanService) DeactivatePlan(ctx context.Context, clerkID string) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE practice_plans SET is_active = FALSE, updated_at = NOW() WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate practice plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("practice plan: %w", ErrNotFound)
	}
	return nil
}
