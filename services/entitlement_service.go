package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stillpointAPI/internal/content"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntitlementService decides whether a user may access priced content and
// runs the unlock purchase. The debit and the entitlement row always commit
// in one transaction.
type EntitlementService struct {
	db     *pgxpool.Pool
	tokens *TokenService
}

func NewEntitlementService(db *pgxpool.Pool, tokens *TokenService) *EntitlementService {
	return &EntitlementService{db: db, tokens: tokens}
}

// HasAccess is true for free content and for content the user already owns.
func (s *EntitlementService) HasAccess(ctx context.Context, clerkID string, entityType content.EntityType, entityID uuid.UUID, priceTokens int) (bool, error) {
	if !content.ValidEntityType(entityType) {
		return false, fmt.Errorf("unknown entity type %q: %w", entityType, ErrInvalidInput)
	}
	if priceTokens == 0 {
		return true, nil
	}

	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return false, err
	}

	var exists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM user_purchases
			WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		)
	`, userID, entityType, entityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entitlement: %w", err)
	}
	return exists, nil
}

// PurchaseContent unlocks one content item for tokens. Buying something
// already owned succeeds without a second charge.
func (s *EntitlementService) PurchaseContent(ctx context.Context, clerkID string, entityType content.EntityType, entityID uuid.UUID, tokenCost int) (*content.PurchaseContentResult, error) {
	if !content.ValidEntityType(entityType) {
		return nil, fmt.Errorf("unknown entity type %q: %w", entityType, ErrInvalidInput)
	}
	if tokenCost < 0 {
		return nil, fmt.Errorf("token cost must not be negative: %w", ErrInvalidInput)
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

	// Lock any existing entitlement row first: a concurrent purchase of the
	// same item serializes here instead of double-charging.
	var existing uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM user_purchases
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		FOR UPDATE
	`, userID, entityType, entityID).Scan(&existing)
	if err == nil {
		balance, berr := s.tokens.balanceOf(ctx, tx, userID)
		if berr != nil {
			return nil, berr
		}
		engineOps.WithLabelValues("purchase_content", "already_owned").Inc()
		return &content.PurchaseContentResult{Success: true, NewBalance: &balance}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}

	newBalance := 0
	if tokenCost > 0 {
		et := string(entityType)
		eid := entityID
		description := fmt.Sprintf("Unlocked %s", entityType)
		spend, balance, derr := debitTokens(ctx, tx, userID, tokenCost, description, &et, &eid)
		if derr != nil {
			return nil, derr
		}
		if !spend.Success {
			engineOps.WithLabelValues("purchase_content", "insufficient").Inc()
			return &content.PurchaseContentResult{Success: false, Error: spend.Error}, nil
		}
		newBalance = balance
	} else {
		balance, berr := s.tokens.balanceOf(ctx, tx, userID)
		if berr != nil {
			return nil, berr
		}
		newBalance = balance
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_purchases (id, user_id, entity_type, entity_id, tokens_paid, purchased_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, uuid.New(), userID, entityType, entityID, tokenCost)
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("User %s unlocked %s %s for %d tokens", userID, entityType, entityID, tokenCost)
	engineOps.WithLabelValues("purchase_content", "unlocked").Inc()
	s.tokens.notifier.Publish(userID, newBalance)

	return &content.PurchaseContentResult{Success: true, NewBalance: &newBalance}, nil
}

func (s *EntitlementService) GetUserPurchases(ctx context.Context, clerkID string) ([]*content.Purchase, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, entity_type, entity_id, tokens_paid, purchased_at
		FROM user_purchases
		WHERE user_id = $1
		ORDER BY purchased_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*content.Purchase
	for rows.Next() {
		p := &content.Purchase{}
		err := rows.Scan(&p.ID, &p.UserID, &p.EntityType, &p.EntityID, &p.TokensPaid, &p.PurchasedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	if purchases == nil {
		purchases = []*content.Purchase{}
	}
	return purchases, nil
}
