package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/backoffice/internal/services"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	accounts *services.AccountService
	orders   *services.OrderService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(accounts *services.AccountService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{accounts: accounts, orders: orders}
}

// GetUser returns the public summary of a user.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.accounts.GetProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return ok(c, fiber.StatusOK, fiber.Map{
		"id":       user.ID,
		"email":    user.Email,
		"fullName": user.FullName,
	})
}

// DashboardStats returns aggregate order statistics.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.orders.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, stats)
}
