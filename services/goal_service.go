package services

import (
	"context"
	"fmt"
	"log"

	"stillpointAPI/internal/goal"
	"stillpointAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GoalService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewGoalService(db *pgxpool.Pool, notifications *NotificationService) *GoalService {
	return &GoalService{db: db, notifications: notifications}
}

func (s *GoalService) CreateGoal(ctx context.Context, clerkID string, req *goal.CreateGoalRequest) (*goal.Goal, error) {
	if req.Title == "" || req.TargetValue <= 0 || !goal.ValidType(req.GoalType) {
		return nil, fmt.Errorf("goal title, type and positive target required: %w", ErrInvalidInput)
	}

	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO goals (id, user_id, title, description, goal_type, target_value, current_value, is_active, deadline, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, 0, true, $7, NOW(), NOW())
	RETURNING id, user_id, title, description, goal_type, target_value, current_value, is_active, deadline, completed_at, created_at, updated_at
	`

	g := &goal.Goal{}
	err = s.db.QueryRow(ctx, query,
		uuid.New(), userID, req.Title, req.Description, req.GoalType, req.TargetValue, req.Deadline,
	).Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.GoalType, &g.TargetValue,
		&g.CurrentValue, &g.IsActive, &g.Deadline, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return g, nil
}

func (s *GoalService) GetActiveGoals(ctx context.Context, clerkID string) ([]*goal.Goal, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, title, description, goal_type, target_value, current_value, is_active, deadline, completed_at, created_at, updated_at
	FROM goals
	WHERE user_id = $1 AND is_active = true
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g := &goal.Goal{}
		err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.Description, &g.GoalType, &g.TargetValue,
			&g.CurrentValue, &g.IsActive, &g.Deadline, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}

	if goals == nil {
		goals = []*goal.Goal{}
	}
	return goals, nil
}

// CancelGoal deactivates a goal. Rows are never hard-deleted so historical
// progress stays queryable.
func (s *GoalService) CancelGoal(ctx context.Context, clerkID string, goalID uuid.UUID) error {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`UPDATE goals SET is_active = false, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND is_active = true`,
		goalID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel goal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("goal: %w", ErrNotFound)
	}
	return nil
}

// applyActivity advances every active goal of the user inside the caller's
// transaction. Goals that reach their target are deactivated, stamped and
// announced in the same unit of work.
func (s *GoalService) applyActivity(ctx context.Context, tx pgx.Tx, userID uuid.UUID, act goal.Activity) error {
	query := `
	SELECT id, user_id, title, description, goal_type, target_value, current_value, is_active, deadline, completed_at, created_at, updated_at
	FROM goals
	WHERE user_id = $1 AND is_active = true
	ORDER BY created_at
	FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to lock goals: %w", err)
	}

	var goals []*goal.Goal
	for rows.Next() {
		g := &goal.Goal{}
		err := rows.Scan(
			&g.ID, &g.UserID, &g.Title, &g.Description, &g.GoalType, &g.TargetValue,
			&g.CurrentValue, &g.IsActive, &g.Deadline, &g.CompletedAt, &g.CreatedAt, &g.UpdatedAt,
		)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating goals: %w", err)
	}

	for _, g := range goals {
		changed, completed := goal.Apply(g, act)
		if !changed {
			continue
		}

		if completed {
			_, err = tx.Exec(ctx,
				`UPDATE goals SET current_value = $1, is_active = false, completed_at = NOW(), updated_at = NOW() WHERE id = $2`,
				g.CurrentValue, g.ID,
			)
		} else {
			_, err = tx.Exec(ctx,
				`UPDATE goals SET current_value = $1, updated_at = NOW() WHERE id = $2`,
				g.CurrentValue, g.ID,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to update goal progress: %w", err)
		}

		if completed {
			log.Printf("Goal %s completed for user %s", g.ID, userID)
			body := fmt.Sprintf("You reached your goal \"%s\" (%d/%d).", g.Title, g.CurrentValue, g.TargetValue)
			if err := s.notifications.insert(ctx, tx, userID, notification.TypeGoalCompleted, "Goal completed", body); err != nil {
				return err
			}
		}
	}

	return nil
}
