package repositories

import (
	"errors"
	"time"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/pkg/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository handles database operations for carts and their line items.
// The *gorm.DB is injected so tests can run the same code against an
// in-memory database.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// CartLine is one row of the priced cart view: the stored line joined to the
// product's current display attributes. Price and subtotal come from the
// stored unit price, not the live catalogue price.
type CartLine struct {
	ProductID uint    `json:"id"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// ConsolidationOutcome reports what the consolidation transaction did.
type ConsolidationOutcome struct {
	UserCartID  uint
	Transferred bool // true: guest cart re-pointed to the user; false: merged into an existing user cart
}

// FindActiveByUser returns the user's most recently updated ACTIVE cart.
func (r *CartRepository) FindActiveByUser(userID uint) (models.Cart, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var cart models.Cart
	err := r.db.
		Where("user_id = ? AND state = ?", userID, models.CartStateActive).
		Order("updated_at DESC").
		First(&cart).Error
	return cart, err
}

// FindActiveByGuest returns the guest's most recently updated ACTIVE cart.
func (r *CartRepository) FindActiveByGuest(token string) (models.Cart, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var cart models.Cart
	err := r.db.
		Where("guest_token = ? AND state = ?", token, models.CartStateActive).
		Order("updated_at DESC").
		First(&cart).Error
	return cart, err
}

// CreateActive inserts a new ACTIVE cart for the given identity. Exactly one
// of userID/guestToken must be non-nil; the caller validates that. A
// concurrent first-time creation for the same identity surfaces as
// gorm.ErrDuplicatedKey thanks to the partial unique indexes.
func (r *CartRepository) CreateActive(userID *uint, guestToken *string) (models.Cart, error) {
	defer metrics.ObserveDBQuery("insert", time.Now())
	cart := models.Cart{
		UserID:     userID,
		GuestToken: guestToken,
		State:      models.CartStateActive,
	}
	err := r.db.Create(&cart).Error
	return cart, err
}

// Touch bumps the cart's updated_at. Called after any item change so the
// locator's most-recently-updated ordering stays meaningful.
func (r *CartRepository) Touch(cartID uint) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return r.db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}

// ItemQuantity returns the stored quantity for (cart, product), 0 if the
// line does not exist.
func (r *CartRepository) ItemQuantity(cartID, productID uint) (int, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var item models.CartItem
	err := r.db.
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// UpsertItem inserts the line, or accumulates quantity server-side in a
// single conflict-resolving statement when the line already exists. Two
// concurrent adds of the same product therefore never read-then-write a
// stale quantity. UnitPrice is only written on insert: an existing line
// keeps its original price-at-add-time.
func (r *CartRepository) UpsertItem(cartID, productID uint, quantity int, unitPrice float64) (models.CartItem, error) {
	defer metrics.ObserveDBQuery("insert", time.Now())

	item := models.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": time.Now(),
		}),
	}).Create(&item).Error
	if err != nil {
		return models.CartItem{}, err
	}

	// Re-read the authoritative row: on the conflict path the returned ID
	// and quantity are not reliable across drivers.
	var stored models.CartItem
	err = r.db.
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&stored).Error
	return stored, err
}

// DeleteItem removes the (cart, product) line. Reports whether a row was
// actually deleted so the caller knows if the cart changed.
func (r *CartRepository) DeleteItem(cartID, productID uint) (bool, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())
	res := r.db.
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// SetItemQuantity overwrites the line's quantity. Reports whether a matching
// line existed.
func (r *CartRepository) SetItemQuantity(cartID, productID uint, quantity int) (bool, error) {
	defer metrics.ObserveDBQuery("update", time.Now())
	res := r.db.Model(&models.CartItem{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

// Lines returns the priced view of a cart's contents, joined to the
// product's current name and image for presentation.
func (r *CartRepository) Lines(cartID uint) ([]CartLine, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var lines []CartLine
	err := r.db.
		Table("cart_items").
		Select("cart_items.product_id, products.name, products.image_url, cart_items.quantity, cart_items.unit_price, cart_items.quantity * cart_items.unit_price AS subtotal").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Scan(&lines).Error
	return lines, err
}

// Consolidate moves a guest's ACTIVE cart to the user inside one
// transaction. Returns (nil, nil) when the guest has no active cart.
//
// Cart lookups here are direct queries inside the transaction — not the
// public locator — so consolidation never creates carts and never nests
// transactions. The merge statement needs ON CONFLICT, so this path
// requires postgres or sqlite.
func (r *CartRepository) Consolidate(userID uint, guestToken string) (*ConsolidationOutcome, error) {
	defer metrics.ObserveDBQuery("transaction", time.Now())

	var outcome *ConsolidationOutcome
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var guest models.Cart
		err := tx.
			Where("guest_token = ? AND state = ?", guestToken, models.CartStateActive).
			First(&guest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // nothing to consolidate
		}
		if err != nil {
			return err
		}

		now := time.Now()

		var user models.Cart
		err = tx.
			Where("user_id = ? AND state = ?", userID, models.CartStateActive).
			First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Transfer: the guest cart becomes the user cart, same id.
			if err := tx.Model(&models.Cart{}).
				Where("id = ?", guest.ID).
				Updates(map[string]interface{}{
					"user_id":     userID,
					"guest_token": nil,
					"updated_at":  now,
				}).Error; err != nil {
				return err
			}
			outcome = &ConsolidationOutcome{UserCartID: guest.ID, Transferred: true}
			return nil

		case err != nil:
			return err
		}

		// Merge: accumulate guest lines into the user cart, keeping the
		// guest line's stored price on newly inserted lines.
		if err := tx.Exec(`
			INSERT INTO cart_items (cart_id, product_id, quantity, unit_price, created_at, updated_at)
			SELECT ?, product_id, quantity, unit_price, ?, ?
			FROM cart_items
			WHERE cart_id = ?
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET
				quantity = cart_items.quantity + excluded.quantity,
				updated_at = excluded.updated_at`,
			user.ID, now, now, guest.ID,
		).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", guest.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Cart{}, guest.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Cart{}).
			Where("id = ?", user.ID).
			Update("updated_at", now).Error; err != nil {
			return err
		}

		outcome = &ConsolidationOutcome{UserCartID: user.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
