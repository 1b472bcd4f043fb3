package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/backoffice/internal/services"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	resets *services.PasswordResetService
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(resets *services.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{resets: resets}
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails a reset link to the account owner.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.resets.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{
		"message": "Password reset link sent to your email.",
	})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword redeems a reset token. The token may come in the body or
// the query string of the mailed link.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}

	if err := h.resets.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{
		"message": "Password has been reset successfully.",
	})
}
