package controllers

import (
	"errors"
	"net/http"

	"github.com/lmorales/tienda/app/services"
	"github.com/lmorales/tienda/pkg/bind"
	"github.com/lmorales/tienda/pkg/logger"
	"github.com/lmorales/tienda/pkg/middleware"
	"github.com/lmorales/tienda/pkg/response"
)

type AuthController struct {
	service *services.AuthService
	carts   *services.CartService
}

func NewAuthController(service *services.AuthService, carts *services.CartService) *AuthController {
	return &AuthController{service: service, carts: carts}
}

// Register handles POST /api/auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"     validate:"required,min=2,max=255"`
		Email    string `json:"email"    validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.service.Register(body.Name, body.Email, body.Password)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	response.Created(w, user)
}

// Login handles POST /api/auth/login. When the client presents a guest
// token, the guest cart is consolidated into the user's cart — once, here,
// at the login event.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"    validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.service.Login(body.Email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		logger.WithCtx(r.Context()).Error("login failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	payload := map[string]interface{}{
		"token": token,
		"user":  user,
	}

	if guest := r.Header.Get(middleware.GuestTokenHeader); guest != "" {
		result, err := c.carts.Consolidate(user.ID, guest)
		if err != nil {
			// Rolled back; the guest cart is intact and a retried login
			// will consolidate it cleanly.
			logger.WithCtx(r.Context()).Error("consolidation failed", "user_id", user.ID, "error", err)
			response.Error(w, http.StatusInternalServerError, services.ErrConsolidationFailed.Error())
			return
		}
		if result != nil {
			payload["cart"] = result
		}
	}

	response.Success(w, payload)
}
