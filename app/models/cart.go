package models

import "time"

// Cart states. Only ACTIVE carts are eligible for item mutation; finalized
// states (ordered, abandoned…) are set by checkout flows outside this core.
const (
	CartStateActive = "ACTIVE"
)

// Cart is the container for a shopper's line items. Exactly one of UserID /
// GuestToken is set; the partial unique indexes created in the migration
// guarantee at most one ACTIVE cart per identity.
//
// No gorm.Model here: carts are hard-deleted by consolidation, and the
// nullable identity columns need pointer types.
type Cart struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	GuestToken *string   `gorm:"size:64;index" json:"guest_token,omitempty"`
	State      string    `gorm:"size:20;not null;default:ACTIVE" json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CartItem is one product line inside a cart. (CartID, ProductID) is unique:
// adding the same product again accumulates Quantity instead of inserting a
// second row. UnitPrice is fixed when the line is first created and is never
// refreshed from the catalogue (price-at-add-time).
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
