package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/backoffice/internal/models"
)

// MemoryUserRepository is an in-process user store. A single mutex makes
// check-and-insert on email atomic, mirroring the Postgres unique index.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

// NewMemoryUserRepository constructs an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return ErrDuplicate
	}

	u.EnsureID()
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	stored := *u
	r.byID[u.ID] = &stored
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	if patch.Email != nil && *patch.Email != u.Email {
		if _, taken := r.byEmail[*patch.Email]; taken {
			return nil, ErrDuplicate
		}
		delete(r.byEmail, u.Email)
		r.byEmail[*patch.Email] = id
	}

	patch.Apply(u)
	u.UpdatedAt = time.Now()

	out := *u
	return &out, nil
}

// MemoryOrderRepository is an in-process order store that keeps insertion order.
type MemoryOrderRepository struct {
	mu         sync.RWMutex
	orders     []*models.Order
	productIDs map[string]struct{}
}

// NewMemoryOrderRepository constructs an empty MemoryOrderRepository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{productIDs: make(map[string]struct{})}
}

func (r *MemoryOrderRepository) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.productIDs[o.ProductID]; taken {
		return ErrDuplicate
	}

	o.EnsureID()
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now

	stored := *o
	r.orders = append(r.orders, &stored)
	r.productIDs[o.ProductID] = struct{}{}
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		out := *r.orders[i]
		return &out, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryOrderRepository) Update(_ context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	o := r.orders[i]
	patch.Apply(o)
	o.UpdatedAt = time.Now()

	out := *o
	return &out, nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	// The product id stays reserved so it is never reissued.
	r.orders = append(r.orders[:i], r.orders[i+1:]...)
	return nil
}

func (r *MemoryOrderRepository) List(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *MemoryOrderRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.OwnerAdminUserID == ownerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *MemoryOrderRepository) indexOf(id uuid.UUID) int {
	for i, o := range r.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// MemoryResetTokenRepository is an in-process used-token set.
type MemoryResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]models.ConsumedResetToken
}

// NewMemoryResetTokenRepository constructs an empty MemoryResetTokenRepository.
func NewMemoryResetTokenRepository() *MemoryResetTokenRepository {
	return &MemoryResetTokenRepository{tokens: make(map[string]models.ConsumedResetToken)}
}

func (r *MemoryResetTokenRepository) Consume(_ context.Context, t *models.ConsumedResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, used := r.tokens[t.TokenID]; used {
		return ErrDuplicate
	}
	r.tokens[t.TokenID] = *t
	return nil
}

func (r *MemoryResetTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.ExpiresAt.Before(before) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of recorded tokens.
func (r *MemoryResetTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
