package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/backoffice/internal/models"
)

// UserStore persists users. Create must reject a taken email atomically
// with repository.ErrDuplicate; lookups miss with repository.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error)
}

// OrderStore persists orders. Create must reject a reused product id atomically.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Order, error)
}

// ResetTokenLedger is the set of redeemed reset tokens.
type ResetTokenLedger interface {
	Consume(ctx context.Context, t *models.ConsumedResetToken) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
