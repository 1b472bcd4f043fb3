package models

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusCompleted
}

// Order is an admin-tracked purchase of a single product line.
// Owner fields are a denormalized reference to a User, not a foreign key.
type Order struct {
	BaseModel
	ProductName        string      `gorm:"not null" json:"productName"`
	ProductPrice       float64     `gorm:"not null" json:"productPrice"`
	Quantity           int         `gorm:"not null" json:"quantity"`
	ProductID          string      `gorm:"uniqueIndex;not null" json:"productId"`
	ProductImage       string      `json:"productImage"`
	ProductDescription string      `json:"productDescription"`
	Status             OrderStatus `gorm:"type:varchar(16);not null;default:Pending;index" json:"status"`
	OwnerAdminUserID   string      `gorm:"index" json:"ownerAdminUserId"`
	OwnerAdminEmail    string      `gorm:"not null" json:"ownerAdminEmail"`
}

// OrderPatch is a partial update of an order. ProductID is deliberately absent.
type OrderPatch struct {
	ProductName        *string
	ProductPrice       *float64
	Quantity           *int
	ProductImage       *string
	ProductDescription *string
	Status             *OrderStatus
	OwnerAdminUserID   *string
	OwnerAdminEmail    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p OrderPatch) IsEmpty() bool {
	return len(p.Columns()) == 0
}

// Columns returns the patch as a gorm column map.
func (p OrderPatch) Columns() map[string]any {
	updates := map[string]any{}
	if p.ProductName != nil {
		updates["product_name"] = *p.ProductName
	}
	if p.ProductPrice != nil {
		updates["product_price"] = *p.ProductPrice
	}
	if p.Quantity != nil {
		updates["quantity"] = *p.Quantity
	}
	if p.ProductImage != nil {
		updates["product_image"] = *p.ProductImage
	}
	if p.ProductDescription != nil {
		updates["product_description"] = *p.ProductDescription
	}
	if p.Status != nil {
		updates["status"] = string(*p.Status)
	}
	if p.OwnerAdminUserID != nil {
		updates["owner_admin_user_id"] = *p.OwnerAdminUserID
	}
	if p.OwnerAdminEmail != nil {
		updates["owner_admin_email"] = *p.OwnerAdminEmail
	}
	return updates
}

// Apply merges the patch into o.
func (p OrderPatch) Apply(o *Order) {
	if p.ProductName != nil {
		o.ProductName = *p.ProductName
	}
	if p.ProductPrice != nil {
		o.ProductPrice = *p.ProductPrice
	}
	if p.Quantity != nil {
		o.Quantity = *p.Quantity
	}
	if p.ProductImage != nil {
		o.ProductImage = *p.ProductImage
	}
	if p.ProductDescription != nil {
		o.ProductDescription = *p.ProductDescription
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.OwnerAdminUserID != nil {
		o.OwnerAdminUserID = *p.OwnerAdminUserID
	}
	if p.OwnerAdminEmail != nil {
		o.OwnerAdminEmail = *p.OwnerAdminEmail
	}
}
