package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/example/backoffice/internal/apperr"
	"github.com/example/backoffice/internal/models"
	"github.com/example/backoffice/internal/repository"
	"github.com/example/backoffice/internal/validation"
)

// OrderService manages the order ledger.
type OrderService struct {
	orders   OrderStore
	ids      *ProductIDGenerator
	notifier Notifier
	log      *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders OrderStore, ids *ProductIDGenerator, notifier Notifier, log *zap.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		ids:      ids,
		notifier: notifier,
		log:      log,
	}
}

type CreateOrderInput struct {
	ProductName        string  `json:"productName" validate:"required"`
	ProductPrice       float64 `json:"productPrice" validate:"gt=0"`
	Quantity           int     `json:"quantity" validate:"min=1"`
	ProductImage       string  `json:"productImage"`
	ProductDescription string  `json:"productDescription"`
	OwnerAdminUserID   string  `json:"ownerAdminUserId"`
	OwnerAdminEmail    string  `json:"ownerAdminEmail" validate:"required,email"`
}

// CreateOrder persists a Pending order under a freshly generated product id
// and notifies the owner once the write has committed.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.OwnerAdminEmail = strings.TrimSpace(in.OwnerAdminEmail)
	in.OwnerAdminUserID = strings.TrimSpace(in.OwnerAdminUserID)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		ProductName:        in.ProductName,
		ProductPrice:       in.ProductPrice,
		Quantity:           in.Quantity,
		ProductID:          s.ids.Next(),
		ProductImage:       in.ProductImage,
		ProductDescription: in.ProductDescription,
		Status:             models.OrderStatusPending,
		OwnerAdminUserID:   in.OwnerAdminUserID,
		OwnerAdminEmail:    in.OwnerAdminEmail,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Error("Product id collision", zap.String("product_id", order.ProductID))
		}
		return nil, apperr.Internal(err)
	}

	s.log.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("product_id", order.ProductID),
		zap.String("owner_id", order.OwnerAdminUserID),
	)

	s.notifier.Notify(Notification{
		Template:   TemplateOrderConfirmation,
		Recipients: []string{order.OwnerAdminEmail},
		Data:       orderData(order),
	})

	return order, nil
}

// OrderUpdate holds optional order fields. The product id cannot be changed.
type OrderUpdate struct {
	ProductName        *string  `json:"productName"`
	ProductPrice       *float64 `json:"productPrice"`
	Quantity           *int     `json:"quantity"`
	ProductImage       *string  `json:"productImage"`
	ProductDescription *string  `json:"productDescription"`
	Status             *string  `json:"status"`
	OwnerAdminUserID   *string  `json:"ownerAdminUserId"`
	OwnerAdminEmail    *string  `json:"ownerAdminEmail"`
}

func (u OrderUpdate) patch() (models.OrderPatch, error) {
	p := models.OrderPatch{
		ProductPrice:       u.ProductPrice,
		Quantity:           u.Quantity,
		ProductImage:       u.ProductImage,
		ProductDescription: u.ProductDescription,
		OwnerAdminUserID:   u.OwnerAdminUserID,
	}

	var problems []string

	if u.ProductName != nil {
		name := strings.TrimSpace(*u.ProductName)
		if name == "" {
			problems = append(problems, "productName cannot be empty")
		}
		p.ProductName = &name
	}
	if u.ProductPrice != nil && *u.ProductPrice <= 0 {
		problems = append(problems, "productPrice must be greater than 0")
	}
	if u.Quantity != nil && *u.Quantity < 1 {
		problems = append(problems, "quantity must be at least 1")
	}
	if u.Status != nil {
		status := models.OrderStatus(strings.TrimSpace(*u.Status))
		if !status.Valid() {
			problems = append(problems, fmt.Sprintf("status must be one of [%s %s]",
				models.OrderStatusPending, models.OrderStatusCompleted))
		}
		p.Status = &status
	}
	if u.OwnerAdminEmail != nil {
		email := strings.TrimSpace(*u.OwnerAdminEmail)
		if !validation.Email(email) {
			problems = append(problems, "ownerAdminEmail must be a valid email address")
		}
		p.OwnerAdminEmail = &email
	}

	if len(problems) > 0 {
		return p, apperr.Validation("%s", strings.Join(problems, "; "))
	}
	if p.IsEmpty() {
		return p, apperr.Validation("no fields to update")
	}
	return p, nil
}

// UpdateOrder merges the provided fields into the order.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, upd OrderUpdate) (*models.Order, error) {
	orderID, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}

	patch, err := upd.patch()
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Update(ctx, orderID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Order not found.")
		}
		return nil, apperr.Internal(err)
	}

	s.log.Info("Order updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)

	return order, nil
}

// DeleteOrder permanently removes the order.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	orderID, err := parseID(id, "order")
	if err != nil {
		return err
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Order not found.")
		}
		return apperr.Internal(err)
	}

	s.log.Info("Order deleted", zap.String("order_id", orderID.String()))
	return nil
}

// ListOrders returns every order.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// OrderList is an owner's orders together with their count.
type OrderList struct {
	Count  int            `json:"count"`
	Orders []models.Order `json:"orders"`
}

// ListOrdersByOwner returns the owner's orders in insertion order.
func (s *OrderService) ListOrdersByOwner(ctx context.Context, ownerID string) (*OrderList, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperr.Validation("owner id is required")
	}

	orders, err := s.orders.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return &OrderList{Count: len(orders), Orders: orders}, nil
}

func orderData(o *models.Order) map[string]string {
	return map[string]string{
		"productId":    o.ProductID,
		"productName":  o.ProductName,
		"quantity":     strconv.Itoa(o.Quantity),
		"productPrice": strconv.FormatFloat(o.ProductPrice, 'f', 2, 64),
		"total":        strconv.FormatFloat(o.ProductPrice*float64(o.Quantity), 'f', 2, 64),
		"status":       string(o.Status),
		"ownerEmail":   o.OwnerAdminEmail,
	}
}

// OrderStats summarizes the ledger for the admin dashboard.
type OrderStats struct {
	TotalOrders    int                        `json:"totalOrders"`
	OrdersByStatus map[models.OrderStatus]int `json:"ordersByStatus"`
	Revenue        float64                    `json:"revenue"`
	PendingValue   float64                    `json:"pendingValue"`
}

// Stats counts orders per status. Revenue covers Completed orders only.
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	stats := &OrderStats{
		TotalOrders: len(orders),
		OrdersByStatus: map[models.OrderStatus]int{
			models.OrderStatusPending:   0,
			models.OrderStatusCompleted: 0,
		},
	}
	for _, o := range orders {
		stats.OrdersByStatus[o.Status]++
		value := o.ProductPrice * float64(o.Quantity)
		if o.Status == models.OrderStatusCompleted {
			stats.Revenue += value
		} else {
			stats.PendingValue += value
		}
	}
	return stats, nil
}
