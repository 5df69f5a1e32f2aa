package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lmorales/tienda/app/services"
	"github.com/lmorales/tienda/pkg/auth"
	"github.com/lmorales/tienda/pkg/bind"
	"github.com/lmorales/tienda/pkg/logger"
	"github.com/lmorales/tienda/pkg/middleware"
	"github.com/lmorales/tienda/pkg/response"
)

// CartController exposes the cart endpoints. Identity comes from the
// Identity middleware: a valid Bearer token wins, otherwise the guest token
// header. A request with neither gets a freshly minted guest token, echoed
// back in the X-Guest-Token response header for the client to keep.
type CartController struct {
	service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{service: service}
}

// identity resolves the request's cart identity, minting a guest token for
// first-contact anonymous visitors.
func (c *CartController) identity(w http.ResponseWriter, r *http.Request) services.Identity {
	if claims, ok := middleware.ClaimsFromCtx(r.Context()); ok {
		return services.Identity{UserID: claims.UserID}
	}

	guest := middleware.GuestTokenFromCtx(r.Context())
	if guest == "" {
		guest = auth.NewGuestToken()
	}
	// Echo the token back so the client can persist it.
	w.Header().Set(middleware.GuestTokenHeader, guest)
	return services.Identity{GuestToken: guest}
}

// Show handles GET /api/cart.
func (c *CartController) Show(w http.ResponseWriter, r *http.Request) {
	view, err := c.service.GetCart(c.identity(w, r))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	response.Success(w, view)
}

// AddItem handles POST /api/cart/items.
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID uint `json:"product_id" validate:"required,gte=1"`
		Quantity  int  `json:"quantity"   validate:"required,gte=1"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.service.AddItem(c.identity(w, r), body.ProductID, body.Quantity)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if result.LimitReached {
		response.Conflict(w, result.Message, result)
		return
	}
	response.Created(w, result)
}

// UpdateItem handles PATCH /api/cart/items/{productID}. A quantity of zero
// removes the line.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var body struct {
		Quantity *int `json:"quantity"`
	}
	if _, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Quantity == nil || *body.Quantity < 0 {
		response.ValidationError(w, map[string]string{"quantity": "The quantity field must be zero or greater."})
		return
	}

	if err := c.service.UpdateQuantity(c.identity(w, r), productID, *body.Quantity); err != nil {
		c.fail(w, r, err)
		return
	}
	response.Success(w, map[string]string{"message": "Cart updated"})
}

// RemoveItem handles DELETE /api/cart/items/{productID}.
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := productIDParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := c.service.RemoveItem(c.identity(w, r), productID); err != nil {
		c.fail(w, r, err)
		return
	}
	response.Success(w, map[string]string{"message": "Item removed"})
}

func (c *CartController) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrIdentityRequired):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrItemNotInCart):
		response.Error(w, http.StatusNotFound, err.Error())
	default:
		logger.WithCtx(r.Context()).Error("cart request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func productIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "productID"), 10, 32)
	return uint(id), err
}
