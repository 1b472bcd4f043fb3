package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/backoffice/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Signup creates a new user account.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req services.SignupInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := h.accounts.Signup(c.UserContext(), req)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusCreated, fiber.Map{
		"id":        res.User.ID,
		"user":      res.User,
		"token":     res.Session.Token,
		"expiresAt": res.Session.ExpiresAt,
	})
}

// Login authenticates a user and issues a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.IP = c.IP()

	session, err := h.accounts.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, session)
}
