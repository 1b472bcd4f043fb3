package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/backoffice/internal/apperr"
	"github.com/example/backoffice/internal/models"
	"github.com/example/backoffice/internal/repository"
	"github.com/example/backoffice/internal/tokens"
	"github.com/example/backoffice/internal/utils"
	"github.com/example/backoffice/internal/validation"
)

const loginAlertTimeout = 5 * time.Second

// AccountService owns user credentials: signup, login and profile updates.
type AccountService struct {
	users      UserStore
	hasher     *utils.PasswordHasher
	tokens     *tokens.Service
	notifier   Notifier
	locator    Locator
	sessionTTL time.Duration
	log        *zap.Logger

	// dummyHash keeps login timing similar for unknown accounts.
	dummyHash string
}

// NewAccountService constructs an AccountService. locator may be nil.
func NewAccountService(
	users UserStore,
	hasher *utils.PasswordHasher,
	tokenService *tokens.Service,
	notifier Notifier,
	locator Locator,
	sessionTTL time.Duration,
	log *zap.Logger,
) (*AccountService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	return &AccountService{
		users:      users,
		hasher:     hasher,
		tokens:     tokenService,
		notifier:   notifier,
		locator:    locator,
		sessionTTL: sessionTTL,
		log:        log,
		dummyHash:  dummy,
	}, nil
}

type SignupInput struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an issued session token.
type Session struct {
	UserID    uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SignupResult struct {
	User    *models.User
	Session Session
}

// Signup creates an account. Email uniqueness is decided by the store's
// constrained insert, never by a prior lookup.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Username == "" {
		in.Username = strings.SplitN(in.Email, "@", 2)[0]
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.From(err)
	}

	user := &models.User{
		FullName:        strings.TrimSpace(in.FullName),
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		ProfileImageURL: models.DefaultProfileImageURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("Signup attempt with existing email",
				zap.String("email", in.Email),
				zap.String("event", "signup_failed_duplicate_email"),
			)
			return nil, apperr.DuplicateEmail()
		}
		return nil, apperr.Internal(err)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("event", "user_signed_up"),
	)

	s.notifier.Notify(Notification{
		Template:   TemplateAccountCreated,
		Recipients: []string{user.Email},
		Data: map[string]string{
			"fullName": user.FullName,
			"username": user.Username,
			"email":    user.Email,
		},
	})

	return &SignupResult{User: user, Session: session}, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IP       string `json:"-"`
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Check(s.dummyHash, in.Password)
			s.log.Warn("Login attempt with unknown email",
				zap.String("email", email),
				zap.String("event", "login_failed"),
			)
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Internal(err)
	}

	if !s.hasher.Check(user.PasswordHash, in.Password) {
		s.log.Warn("Login attempt with invalid password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed"),
		)
		return nil, apperr.InvalidCredentials()
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "login_success"),
	)

	go s.sendLoginAlert(*user, in.IP, time.Now())

	return &session, nil
}

// sendLoginAlert resolves the caller location and queues the alert.
// Lookup failures only degrade the message.
func (s *AccountService) sendLoginAlert(user models.User, ip string, at time.Time) {
	location := UnknownLocation
	if s.locator != nil && ip != "" {
		ctx, cancel := context.WithTimeout(context.Background(), loginAlertTimeout)
		place, err := s.locator.Locate(ctx, ip)
		cancel()
		if err != nil {
			s.log.Warn("IP geolocation failed", zap.String("ip", ip), zap.Error(err))
		} else {
			location = place
		}
	}

	s.notifier.Notify(Notification{
		Template:   TemplateLoginAlert,
		Recipients: []string{user.Email},
		Data: map[string]string{
			"fullName": user.FullName,
			"username": user.Username,
			"email":    user.Email,
			"ip":       ip,
			"location": location,
			"time":     at.UTC().Format(time.RFC1123),
		},
	})
}

// GetProfile returns the user with the given id.
func (s *AccountService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found.")
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// ProfileUpdate holds optional profile fields. Password is plaintext and is
// hashed before it reaches the store.
type ProfileUpdate struct {
	FullName        *string `json:"fullName"`
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// UpdateProfile merges the provided fields into the user.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*models.User, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	patch := models.UserPatch{
		FullName:        upd.FullName,
		ProfileImageURL: upd.ProfileImageURL,
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, apperr.Validation("username cannot be empty")
		}
		patch.Username = &username
	}

	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		if !validation.Email(email) {
			return nil, apperr.Validation("email must be a valid email address")
		}
		patch.Email = &email
	}

	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, apperr.Validation("password cannot be empty")
		}
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, apperr.From(err)
		}
		patch.PasswordHash = &hash
	}

	if patch.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}

	user, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User not found.")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.DuplicateEmail()
		default:
			return nil, apperr.Internal(err)
		}
	}

	s.log.Info("Profile updated",
		zap.String("user_id", user.ID.String()),
		zap.Bool("password_changed", patch.PasswordHash != nil),
	)

	return user, nil
}

func (s *AccountService) issueSession(user *models.User) (Session, error) {
	token, expiresAt, err := s.tokens.IssueSession(user.ID.String(), user.Email, s.sessionTTL)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return Session{UserID: user.ID, Email: user.Email, Token: token, ExpiresAt: expiresAt}, nil
}

// parseID validates a store identifier before any lookup.
func parseID(id, entity string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s id", entity)
	}
	return parsed, nil
}
