package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/backoffice/internal/apperr"
	"github.com/example/backoffice/internal/middleware"
	"github.com/example/backoffice/internal/services"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	accounts *services.AccountService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(accounts *services.AccountService) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

// GetProfile returns the profile with the given id.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.accounts.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, user)
}

// UpdateProfile updates the caller's own profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	callerID, authed := middleware.GetCurrentUserID(c)
	if !authed {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	targetID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return apperr.Validation("invalid user id")
	}
	if targetID != callerID {
		return fiber.NewError(fiber.StatusForbidden, "you can only update your own profile")
	}

	var req services.ProfileUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.UpdateProfile(c.UserContext(), targetID.String(), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, user)
}
