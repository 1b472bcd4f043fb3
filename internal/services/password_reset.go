package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/backoffice/internal/apperr"
	"github.com/example/backoffice/internal/models"
	"github.com/example/backoffice/internal/repository"
	"github.com/example/backoffice/internal/tokens"
	"github.com/example/backoffice/internal/utils"
)

// PasswordResetService runs the forgot/reset password flow.
type PasswordResetService struct {
	users    UserStore
	ledger   ResetTokenLedger
	hasher   *utils.PasswordHasher
	tokens   *tokens.Service
	notifier Notifier
	resetTTL time.Duration
	resetURL string
	now      func() time.Time
	log      *zap.Logger
}

// NewPasswordResetService creates the service. resetURL is the link prefix
// the token is appended to.
func NewPasswordResetService(
	users UserStore,
	ledger ResetTokenLedger,
	hasher *utils.PasswordHasher,
	tokenService *tokens.Service,
	notifier Notifier,
	resetTTL time.Duration,
	resetURL string,
	log *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		users:    users,
		ledger:   ledger,
		hasher:   hasher,
		tokens:   tokenService,
		notifier: notifier,
		resetTTL: resetTTL,
		resetURL: resetURL,
		now:      time.Now,
		log:      log,
	}
}

// ForgotPassword issues a reset token for the account and mails the link.
// Earlier unexpired tokens stay valid.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("Email is required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found.")
		}
		return apperr.Internal(err)
	}

	token, expiresAt, err := s.tokens.IssueReset(user.ID.String(), s.resetTTL)
	if err != nil {
		return apperr.Internal(err)
	}

	s.log.Info("Password reset requested",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", expiresAt),
	)

	s.notifier.Notify(Notification{
		Template:   TemplatePasswordResetRequested,
		Recipients: []string{user.Email},
		Data: map[string]string{
			"fullName":  user.FullName,
			"username":  user.Username,
			"email":     user.Email,
			"resetLink": s.resetURL + url.QueryEscape(token),
			"expiresAt": expiresAt.UTC().Format(time.RFC1123),
		},
	})

	return nil
}

// ResetPassword redeems a reset token and overwrites the password.
// A token can be redeemed once.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return apperr.Validation("New password is required.")
	}

	claims, err := s.tokens.Verify(token, tokens.PurposeReset)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return apperr.TokenExpired("reset token has expired")
		}
		return apperr.TokenInvalid("reset token is invalid")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return apperr.TokenInvalid("reset token is invalid")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found.")
		}
		return apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.From(err)
	}

	now := s.now()
	consumed := &models.ConsumedResetToken{
		TokenID:   claims.ID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		UsedAt:    now,
	}
	if err := s.ledger.Consume(ctx, consumed); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Reset token replayed",
				zap.String("user_id", user.ID.String()),
				zap.String("token_id", claims.ID),
			)
			return apperr.TokenInvalid("reset token has already been used")
		}
		return apperr.Internal(err)
	}

	if _, err := s.users.Update(ctx, user.ID, models.UserPatch{PasswordHash: &hash}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found.")
		}
		return apperr.Internal(err)
	}

	s.log.Info("Password reset completed", zap.String("user_id", user.ID.String()))

	s.notifier.Notify(Notification{
		Template:   TemplatePasswordResetCompleted,
		Recipients: []string{user.Email},
		Data: map[string]string{
			"fullName": user.FullName,
			"username": user.Username,
			"email":    user.Email,
			"time":     now.UTC().Format(time.RFC1123),
		},
	})

	return nil
}

// StartSweeper prunes redeemed tokens that have expired anyway. It blocks
// until ctx is cancelled.
func (s *PasswordResetService) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("Reset token sweeper started", zap.Duration("interval", interval))

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reset token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *PasswordResetService) sweep(ctx context.Context) {
	removed, err := s.ledger.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error("Failed to delete expired reset tokens", zap.Error(err))
		return
	}

	s.log.Debug("Expired reset tokens cleaned up", zap.Int64("removed", removed))
}
