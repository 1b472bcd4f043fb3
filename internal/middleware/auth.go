package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/backoffice/internal/apperr"
	"github.com/example/backoffice/internal/tokens"
)

const userContextKey = "currentUser"

// AuthMiddleware validates session tokens and loads the claims into context.
func AuthMiddleware(tokenService *tokens.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.TokenInvalid("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperr.TokenInvalid("invalid authorization header")
		}

		claims, err := tokenService.Verify(strings.TrimSpace(parts[1]), tokens.PurposeSession)
		if err != nil {
			if errors.Is(err, tokens.ErrTokenExpired) {
				return apperr.TokenExpired("session has expired")
			}
			return apperr.TokenInvalid("invalid token")
		}

		c.Locals(userContextKey, claims)
		return c.Next()
	}
}

// GetCurrentUser returns the session claims set by AuthMiddleware.
func GetCurrentUser(c *fiber.Ctx) (*tokens.Claims, bool) {
	claims, ok := c.Locals(userContextKey).(*tokens.Claims)
	return claims, ok && claims != nil
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims, ok := GetCurrentUser(c)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
