// Package tokens issues and verifies signed, time-bounded bearer tokens.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose scopes a token to one use so a session token is never accepted as a reset token.
type Purpose string

const (
	PurposeSession Purpose = "session"
	PurposeReset   Purpose = "reset"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
	ErrEmptySecret  = errors.New("signing secret must not be empty")
)

// Claims is the signed payload. ID (jti) is unique per issued token.
type Claims struct {
	UserID  string  `json:"id"`
	Email   string  `json:"email,omitempty"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Service signs with a process-wide HMAC secret loaded once at startup.
type Service struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a Service for the given secret.
func NewService(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	s := &Service{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs claims valid for ttl from now and returns the token with its expiry.
func (s *Service) Issue(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// IssueSession creates a session token carrying the user's id and email.
func (s *Service) IssueSession(userID, email string, ttl time.Duration) (string, time.Time, error) {
	return s.Issue(Claims{UserID: userID, Email: email, Purpose: PurposeSession}, ttl)
}

// IssueReset creates a password-reset token scoped to userID.
func (s *Service) IssueReset(userID string, ttl time.Duration) (string, time.Time, error) {
	return s.Issue(Claims{UserID: userID, Purpose: PurposeReset}, ttl)
}

// Verify checks signature, expiry and purpose and returns the embedded claims.
func (s *Service) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid || claims.Purpose != purpose || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
