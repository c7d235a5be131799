package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"stillpointAPI/internal/token"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BalanceNotifier fans balance changes out to in-process subscribers. The UI
// subscribes (over SSE) and re-reads on notification instead of polling.
type BalanceNotifier struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan int]struct{}
}

func NewBalanceNotifier() *BalanceNotifier {
	return &BalanceNotifier{subs: make(map[uuid.UUID]map[chan int]struct{})}
}

// Subscribe returns a channel of balance updates for the user and a cancel
// func the caller must invoke when done.
func (n *BalanceNotifier) Subscribe(userID uuid.UUID) (<-chan int, func()) {
	ch := make(chan int, 8)

	n.mu.Lock()
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[chan int]struct{})
	}
	n.subs[userID][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if set, ok := n.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(n.subs, userID)
			}
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish never blocks; a slow subscriber just misses an update and re-reads
// on the next one.
func (n *BalanceNotifier) Publish(userID uuid.UUID, balance int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[userID] {
		select {
		case ch <- balance:
		default:
		}
	}
}

type TokenService struct {
	db       *pgxpool.Pool
	notifier *BalanceNotifier
}

func NewTokenService(db *pgxpool.Pool, notifier *BalanceNotifier) *TokenService {
	return &TokenService{db: db, notifier: notifier}
}

func (s *TokenService) Notifier() *BalanceNotifier {
	return s.notifier
}

// ResolveUserID exposes the clerk-to-profile mapping for callers that need
// the internal id, like the balance stream subscription.
func (s *TokenService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	return resolveUserID(ctx, s.db, clerkID)
}

// GetBalance returns the stored balance, zero when the user has no token
// account yet.
func (s *TokenService) GetBalance(ctx context.Context, clerkID string) (int, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return 0, err
	}
	return s.balanceOf(ctx, s.db, userID)
}

func (s *TokenService) balanceOf(ctx context.Context, q querier, userID uuid.UUID) (int, error) {
	var balance int
	err := q.QueryRow(ctx, `SELECT balance FROM user_tokens WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// PurchaseTokens credits the account. No real payment is captured; once
// invoked the credit always lands, atomically with its ledger row.
func (s *TokenService) PurchaseTokens(ctx context.Context, clerkID string, amount int, paymentMethod string) (*token.PurchaseResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("purchase amount must be positive: %w", ErrInvalidInput)
	}
	if paymentMethod == "" {
		return nil, fmt.Errorf("payment method required: %w", ErrInvalidInput)
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

	var newBalance int
	err = tx.QueryRow(ctx, `
		INSERT INTO user_tokens (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET balance = user_tokens.balance + $2, updated_at = NOW()
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to credit tokens: %w", err)
	}

	txnID, err := insertTransaction(ctx, tx, userID, amount,
		fmt.Sprintf("Token purchase via %s", paymentMethod), nil, nil)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Credited %d tokens to user %s (balance %d)", amount, userID, newBalance)
	engineOps.WithLabelValues("purchase_tokens", "credited").Inc()
	s.notifier.Publish(userID, newBalance)

	return &token.PurchaseResult{Success: true, NewBalance: newBalance, TransactionID: txnID}, nil
}

// SpendTokens debits the account; an insufficient balance is a structured
// failure, not an error, and writes nothing. The account row is locked so
// concurrent spends serialize and the balance can never go negative.
func (s *TokenService) SpendTokens(ctx context.Context, clerkID string, req *token.SpendRequest) (*token.SpendResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("spend amount must be positive: %w", ErrInvalidInput)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("spend description required: %w", ErrInvalidInput)
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

	result, newBalance, err := debitTokens(ctx, tx, userID, req.Amount, req.Description, req.EntityType, req.EntityID)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		// Nothing was written; roll back via the deferred Rollback.
		engineOps.WithLabelValues("spend_tokens", "insufficient").Inc()
		return result, nil
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	engineOps.WithLabelValues("spend_tokens", "debited").Inc()
	s.notifier.Publish(userID, newBalance)
	return result, nil
}

// debitTokens locks the token account, checks funds, and applies the debit
// plus its ledger row inside the caller's transaction. Shared with content
// purchases so the debit and the entitlement commit together.
func debitTokens(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, description string, entityType *string, entityID *uuid.UUID) (*token.SpendResult, int, error) {
	var balance int
	err := tx.QueryRow(ctx, `SELECT balance FROM user_tokens WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			balance = 0
		} else {
			return nil, 0, fmt.Errorf("failed to lock token account: %w", err)
		}
	}

	if balance < amount {
		current := balance
		return &token.SpendResult{
			Success:        false,
			Error:          "insufficient balance",
			CurrentBalance: &current,
		}, balance, nil
	}

	newBalance := balance - amount
	_, err = tx.Exec(ctx, `UPDATE user_tokens SET balance = $1, updated_at = NOW() WHERE user_id = $2`, newBalance, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to debit tokens: %w", err)
	}

	if _, err = insertTransaction(ctx, tx, userID, -amount, description, entityType, entityID); err != nil {
		return nil, 0, err
	}

	return &token.SpendResult{Success: true, NewBalance: &newBalance}, newBalance, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, description string, entityType *string, entityID *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := tx.Exec(ctx, `
		INSERT INTO token_transactions (id, user_id, amount, description, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, id, userID, amount, description, entityType, entityID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return id, nil
}

func (s *TokenService) GetTransactions(ctx context.Context, clerkID string, limit int) ([]*token.Transaction, error) {
	userID, err := resolveUserID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount, description, entity_type, entity_id, created_at
		FROM token_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	defer rows.Close()

	var txns []*token.Transaction
	for rows.Next() {
		t := &token.Transaction{}
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &t.EntityType, &t.EntityID, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	if txns == nil {
		txns = []*token.Transaction{}
	}
	return txns, nil
}
