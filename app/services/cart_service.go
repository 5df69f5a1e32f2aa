package services

import (
	"errors"
	"fmt"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/pkg/logger"
	"github.com/lmorales/tienda/pkg/metrics"
	"gorm.io/gorm"
)

var (
	// ErrIdentityRequired means neither a user id nor a guest token was
	// supplied. Caller bug, not retryable.
	ErrIdentityRequired = errors.New("a user or guest token is required to manage the cart")

	// ErrProductNotFound means the referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrItemNotInCart means a quantity update targeted a line that does
	// not exist in the cart.
	ErrItemNotInCart = errors.New("the product is not in the cart")

	// ErrCartCreationRace means a unique-constraint violation was followed
	// by a failed re-fetch. The violation implies a row must exist, so this
	// is a storage-layer invariant breach, not a transient race.
	ErrCartCreationRace = errors.New("failed to create and then re-fetch the active cart")

	// ErrConsolidationFailed wraps any failure inside the consolidation
	// transaction. The transaction is rolled back before this surfaces, so
	// a retry is safe: it either finds no guest cart left or re-runs cleanly.
	ErrConsolidationFailed = errors.New("failed to consolidate the guest cart")
)

// Identity is the caller's identification for cart operations: an
// authenticated user id, or a guest token, never both.
type Identity struct {
	UserID     uint
	GuestToken string
}

// Valid reports whether exactly one identifier is set.
func (id Identity) Valid() bool {
	return (id.UserID != 0) != (id.GuestToken != "")
}

// AddItemResult is the outcome of AddItem. LimitReached marks the stock
// soft-failure: a user-correctable condition carried as a value, not an
// error, with MaxAddable telling the caller exactly how many more units
// can still be added.
type AddItemResult struct {
	CartID       uint   `json:"cart_id"`
	ItemID       uint   `json:"item_id,omitempty"`
	LimitReached bool   `json:"limit_reached,omitempty"`
	Message      string `json:"message,omitempty"`
	MaxAddable   int    `json:"max_addable,omitempty"`
}

// CartView is the priced, totaled view of a cart assembled for presentation.
// Total is rendered with fixed two-decimal precision; an empty cart yields
// "0.00" and an empty item list.
type CartView struct {
	CartID uint                    `json:"cart_id"`
	Items  []repositories.CartLine `json:"items"`
	Total  string                  `json:"total"`
}

// ConsolidationResult is returned when a consolidation actually moved a cart.
type ConsolidationResult struct {
	Success    bool `json:"success"`
	UserCartID uint `json:"user_cart_id"`
}

// CartService implements cart resolution, stock-checked item mutation, the
// priced cart view, and guest-to-user consolidation. All state lives in the
// database; every operation re-reads current rows so no stale in-process
// copy can be mutated.
type CartService struct {
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService(carts *repositories.CartRepository, products *repositories.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// ResolveCart finds the identity's single ACTIVE cart, creating it on first
// use. Check-then-insert is not atomic, so a lost creation race (two tabs
// adding an item simultaneously) surfaces as a duplicate-key error; the
// unique constraint is the source of truth and the loser falls back to
// reading the winner's row.
func (s *CartService) ResolveCart(id Identity) (uint, error) {
	if !id.Valid() {
		return 0, ErrIdentityRequired
	}

	cart, err := s.findActive(id)
	if err == nil {
		return cart.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("cart: find active: %w", err)
	}

	created, err := s.createActive(id)
	if err == nil {
		return created.ID, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, fmt.Errorf("cart: create active: %w", err)
	}

	// Lost the creation race: another request inserted the cart first.
	// Re-fetch the winner's row.
	logger.Warn("cart: duplicate active cart insert, re-fetching winner",
		"user_id", id.UserID, "guest_token", id.GuestToken)

	cart, err = s.findActive(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("cart: unique violation but no active cart found",
			"user_id", id.UserID, "guest_token", id.GuestToken)
		return 0, ErrCartCreationRace
	}
	if err != nil {
		return 0, fmt.Errorf("cart: re-fetch after duplicate: %w", err)
	}
	return cart.ID, nil
}

func (s *CartService) findActive(id Identity) (models.Cart, error) {
	if id.UserID != 0 {
		return s.carts.FindActiveByUser(id.UserID)
	}
	return s.carts.FindActiveByGuest(id.GuestToken)
}

func (s *CartService) createActive(id Identity) (models.Cart, error) {
	if id.UserID != 0 {
		uid := id.UserID
		return s.carts.CreateActive(&uid, nil)
	}
	token := id.GuestToken
	return s.carts.CreateActive(nil, &token)
}

// AddItem adds quantity units of a product to the identity's active cart.
// The stock check is advisory: stock is read, never reserved, so
// time-of-check may differ from time-of-commit under concurrent purchases.
// Within a cart the accumulation itself is race-free — it happens
// server-side in one conflict-resolving statement.
func (s *CartService) AddItem(id Identity, productID uint, quantity int) (AddItemResult, error) {
	if quantity <= 0 {
		return AddItemResult{}, fmt.Errorf("cart: quantity must be positive, got %d", quantity)
	}

	cartID, err := s.ResolveCart(id)
	if err != nil {
		return AddItemResult{}, err
	}

	product, err := s.products.FindByID(productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return AddItemResult{}, ErrProductNotFound
	}
	if err != nil {
		return AddItemResult{}, fmt.Errorf("cart: fetch product: %w", err)
	}

	existing, err := s.carts.ItemQuantity(cartID, productID)
	if err != nil {
		return AddItemResult{}, fmt.Errorf("cart: fetch line quantity: %w", err)
	}

	if existing+quantity > product.Stock {
		maxAddable := product.Stock - existing
		return AddItemResult{
			CartID:       cartID,
			LimitReached: true,
			MaxAddable:   maxAddable,
			Message: fmt.Sprintf("Cannot add %d units. Only %d units left in stock.",
				quantity, maxAddable),
		}, nil
	}

	item, err := s.carts.UpsertItem(cartID, productID, quantity, product.Price)
	if err != nil {
		return AddItemResult{}, fmt.Errorf("cart: upsert line: %w", err)
	}
	if err := s.carts.Touch(cartID); err != nil {
		return AddItemResult{}, fmt.Errorf("cart: touch: %w", err)
	}

	logger.Debug("cart: item added", "cart_id", cartID, "product_id", productID, "quantity", quantity)
	return AddItemResult{CartID: cartID, ItemID: item.ID}, nil
}

// RemoveItem deletes the product's line from the cart. Removing a product
// that is not in the cart is a no-op, not an error.
func (s *CartService) RemoveItem(id Identity, productID uint) error {
	cartID, err := s.ResolveCart(id)
	if err != nil {
		return err
	}

	deleted, err := s.carts.DeleteItem(cartID, productID)
	if err != nil {
		return fmt.Errorf("cart: delete line: %w", err)
	}
	if deleted {
		if err := s.carts.Touch(cartID); err != nil {
			return fmt.Errorf("cart: touch: %w", err)
		}
	}
	return nil
}

// UpdateQuantity sets a line's quantity to an absolute value. A zero
// quantity removes the line instead of keeping a zero-quantity row.
//
// Unlike AddItem, the new absolute quantity is not checked against stock;
// the original behaviour is kept on purpose (see DESIGN.md).
func (s *CartService) UpdateQuantity(id Identity, productID uint, quantity int) error {
	if quantity == 0 {
		return s.RemoveItem(id, productID)
	}
	if quantity < 0 {
		return fmt.Errorf("cart: quantity must not be negative, got %d", quantity)
	}

	cartID, err := s.ResolveCart(id)
	if err != nil {
		return err
	}

	updated, err := s.carts.SetItemQuantity(cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("cart: set line quantity: %w", err)
	}
	if !updated {
		return ErrItemNotInCart
	}
	return s.carts.Touch(cartID)
}

// GetCart assembles the priced view of the identity's active cart.
func (s *CartService) GetCart(id Identity) (CartView, error) {
	cartID, err := s.ResolveCart(id)
	if err != nil {
		return CartView{}, err
	}

	lines, err := s.carts.Lines(cartID)
	if err != nil {
		return CartView{}, fmt.Errorf("cart: load lines: %w", err)
	}
	if lines == nil {
		lines = []repositories.CartLine{}
	}

	var total float64
	for _, line := range lines {
		total += line.Subtotal
	}

	return CartView{
		CartID: cartID,
		Items:  lines,
		Total:  fmt.Sprintf("%.2f", total),
	}, nil
}

// Consolidate merges or transfers the guest's cart into the user's at login.
// Missing either identifier is a no-op: there is nothing to consolidate.
// Any failure inside the transaction rolls everything back, so a partial
// merge is never visible.
func (s *CartService) Consolidate(userID uint, guestToken string) (*ConsolidationResult, error) {
	if userID == 0 || guestToken == "" {
		return nil, nil
	}

	logger.Info("cart: consolidating", "user_id", userID, "guest_token", guestToken)

	outcome, err := s.carts.Consolidate(userID, guestToken)
	if err != nil {
		metrics.ConsolidationsTotal.WithLabelValues("failed").Inc()
		logger.Error("cart: consolidation rolled back", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrConsolidationFailed, err)
	}
	if outcome == nil {
		metrics.ConsolidationsTotal.WithLabelValues("noop").Inc()
		logger.Debug("cart: no active guest cart to consolidate", "user_id", userID)
		return nil, nil
	}

	if outcome.Transferred {
		metrics.ConsolidationsTotal.WithLabelValues("transferred").Inc()
		logger.Info("cart: guest cart transferred", "cart_id", outcome.UserCartID, "user_id", userID)
	} else {
		metrics.ConsolidationsTotal.WithLabelValues("merged").Inc()
		logger.Info("cart: guest cart merged", "user_cart_id", outcome.UserCartID, "user_id", userID)
	}

	return &ConsolidationResult{Success: true, UserCartID: outcome.UserCartID}, nil
}
