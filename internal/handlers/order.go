package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/backoffice/internal/middleware"
	"github.com/example/backoffice/internal/models"
	"github.com/example/backoffice/internal/services"
	"github.com/example/backoffice/internal/utils"
)

// OrderHandler exposes the admin order ledger.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type userInformations struct {
	Usermail string `json:"usermail"`
	Userid   string `json:"userid"`
}

type createOrderRequest struct {
	services.CreateOrderInput
	UserInformations *userInformations `json:"userInformations"`
}

// ownerInput fills the owner from the nested form, then from the session.
func (r createOrderRequest) ownerInput(c *fiber.Ctx) services.CreateOrderInput {
	in := r.CreateOrderInput
	if r.UserInformations != nil {
		if in.OwnerAdminEmail == "" {
			in.OwnerAdminEmail = r.UserInformations.Usermail
		}
		if in.OwnerAdminUserID == "" {
			in.OwnerAdminUserID = r.UserInformations.Userid
		}
	}

	if claims, authed := middleware.GetCurrentUser(c); authed {
		if in.OwnerAdminEmail == "" {
			in.OwnerAdminEmail = claims.Email
		}
		if in.OwnerAdminUserID == "" {
			in.OwnerAdminUserID = claims.UserID
		}
	}
	return in
}

// CreateOrder records a new order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.CreateOrder(c.UserContext(), req.ownerInput(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, order)
}

// UpdateOrder patches an order.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	var req services.OrderUpdate
	if err := parseBody(c, &req); err != nil {
		return err
	}

	order, err := h.orders.UpdateOrder(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, order)
}

// DeleteOrder removes an order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	if err := h.orders.DeleteOrder(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Order deleted successfully."})
}

// ListOrders returns every order, optionally filtered by status and paged.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOrders(c.UserContext())
	if err != nil {
		return err
	}

	if status := c.Query("status"); status != "" {
		filtered := make([]models.Order, 0, len(orders))
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}

	pg, paged := utils.ParsePagination(c)
	if !paged {
		return ok(c, fiber.StatusOK, orders)
	}

	start, end := pg.Bounds(len(orders))
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders[start:end],
		"pagination": pg.Meta(len(orders)),
	})
}

// ListOrdersByOwner returns one admin's orders with their count.
func (h *OrderHandler) ListOrdersByOwner(c *fiber.Ctx) error {
	list, err := h.orders.ListOrdersByOwner(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   list.Count,
		"data":    list.Orders,
	})
}
