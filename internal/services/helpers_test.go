package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/backoffice/internal/repository"
	"github.com/example/backoffice/internal/tokens"
	"github.com/example/backoffice/internal/utils"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) byTemplate(tpl Template) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.sent {
		if n.Template == tpl {
			out = append(out, n)
		}
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubLocator struct {
	place string
	err   error
}

func (l stubLocator) Locate(context.Context, string) (string, error) {
	return l.place, l.err
}

type fixture struct {
	users    *repository.MemoryUserRepository
	orders   *repository.MemoryOrderRepository
	ledger   *repository.MemoryResetTokenRepository
	notifier *recordingNotifier
	clock    *fakeClock
	tokens   *tokens.Service
	accounts *AccountService
	resets   *PasswordResetService
	orderSvc *OrderService
}

func newFixture(t *testing.T, locator Locator) *fixture {
	t.Helper()

	f := &fixture{
		users:    repository.NewMemoryUserRepository(),
		orders:   repository.NewMemoryOrderRepository(),
		ledger:   repository.NewMemoryResetTokenRepository(),
		notifier: &recordingNotifier{},
		clock:    newFakeClock(),
	}

	var err error
	f.tokens, err = tokens.NewService("test-secret", tokens.WithClock(f.clock.Now))
	require.NoError(t, err)

	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	log := zap.NewNop()

	f.accounts, err = NewAccountService(f.users, hasher, f.tokens, f.notifier, locator, time.Hour, log)
	require.NoError(t, err)

	f.resets = NewPasswordResetService(f.users, f.ledger, hasher, f.tokens, f.notifier,
		15*time.Minute, "http://localhost:3000/reset-password?token=", log)
	f.resets.now = f.clock.Now

	f.orderSvc = NewOrderService(f.orders, NewProductIDGenerator(), f.notifier, log)
	return f
}

func (f *fixture) signup(t *testing.T, email, password string) *SignupResult {
	t.Helper()
	res, err := f.accounts.Signup(context.Background(), SignupInput{
		FullName: "Test User",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return res
}

func ptr[T any](v T) *T { return &v }
