package token

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Balance   int       `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction is an append-only ledger row. Amount is signed: positive for
// credits, negative for debits. Rows are never updated or deleted; the stored
// account balance must always equal the sum of a user's transaction amounts.
type Transaction struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Amount      int        `json:"amount" db:"amount"`
	Description string     `json:"description" db:"description"`
	EntityType  *string    `json:"entity_type" db:"entity_type"`
	EntityID    *uuid.UUID `json:"entity_id" db:"entity_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type PurchaseRequest struct {
	Amount        int    `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type PurchaseResult struct {
	Success       bool      `json:"success"`
	NewBalance    int       `json:"new_balance"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

type SpendRequest struct {
	Amount      int        `json:"amount"`
	Description string     `json:"description"`
	EntityType  *string    `json:"entity_type,omitempty"`
	EntityID    *uuid.UUID `json:"entity_id,omitempty"`
}

// SpendResult is the tagged outcome of a spend: on success NewBalance is set,
// on insufficient funds Error and CurrentBalance are set and nothing was
// written.
type SpendResult struct {
	Success        bool   `json:"success"`
	NewBalance     *int   `json:"new_balance,omitempty"`
	Error          string `json:"error,omitempty"`
	CurrentBalance *int   `json:"current_balance,omitempty"`
}
