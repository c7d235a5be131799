package content

import (
	"time"

	"github.com/google/uuid"
)

type EntityType string

const (
	EntityCourse     EntityType = "course"
	EntityMeditation EntityType = "meditation"
)

func ValidEntityType(t EntityType) bool {
	return t == EntityCourse || t == EntityMeditation
}

// Purchase marks a permanent unlock of one priced content item. At most one
// row exists per (user, entity_type, entity_id).
type Purchase struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	EntityType  EntityType `json:"entity_type" db:"entity_type"`
	EntityID    uuid.UUID  `json:"entity_id" db:"entity_id"`
	TokensPaid  int        `json:"tokens_paid" db:"tokens_paid"`
	PurchasedAt time.Time  `json:"purchased_at" db:"purchased_at"`
}

type PurchaseContentRequest struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	TokenCost  int        `json:"token_cost"`
}

type PurchaseContentResult struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	NewBalance *int   `json:"new_balance,omitempty"`
}

type AccessResult struct {
	HasAccess bool `json:"has_access"`
}
