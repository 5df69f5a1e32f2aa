package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/app/services"
	"github.com/lmorales/tienda/pkg/bind"
	"github.com/lmorales/tienda/pkg/logger"
	"github.com/lmorales/tienda/pkg/response"
)

type CatalogController struct {
	service *services.CatalogService
}

func NewCatalogController(service *services.CatalogService) *CatalogController {
	return &CatalogController{service: service}
}

// Index handles GET /api/products. With any filter query parameter present
// it searches; otherwise it lists every available product.
func (c *CatalogController) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := repositories.ProductFilters{
		Text:     q.Get("q"),
		Category: q.Get("category"),
		InStock:  q.Get("in_stock") == "true",
	}
	filters.PriceMin, _ = strconv.ParseFloat(q.Get("price_min"), 64)
	filters.PriceMax, _ = strconv.ParseFloat(q.Get("price_max"), 64)

	var (
		products []models.Product
		err      error
	)
	if filters.Text == "" && filters.Category == "" && filters.PriceMin == 0 && filters.PriceMax == 0 && !filters.InStock {
		products, err = c.service.ListAvailable()
	} else {
		products, err = c.service.Search(filters)
	}
	if err != nil {
		logger.WithCtx(r.Context()).Error("product listing failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.Success(w, products)
}

// Show handles GET /api/products/{id}.
func (c *CatalogController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := c.service.GetProduct(id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			response.NotFound(w)
			return
		}
		logger.WithCtx(r.Context()).Error("product fetch failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.Success(w, product)
}

// Create handles POST /api/admin/products.
func (c *CatalogController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string  `json:"name"        validate:"required,max=255"`
		Description string  `json:"description"`
		Category    string  `json:"category"    validate:"nullable,max=100"`
		Price       float64 `json:"price"       validate:"required,gte=0"`
		Stock       int     `json:"stock"       validate:"gte=0"`
		ImageURL    string  `json:"image_url"   validate:"nullable,max=500"`
		SKU         string  `json:"sku"         validate:"required,max=100"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	product := models.Product{
		Name:        body.Name,
		Description: body.Description,
		Category:    body.Category,
		Price:       body.Price,
		Stock:       body.Stock,
		ImageURL:    body.ImageURL,
		Available:   true,
		SKU:         body.SKU,
	}
	if err := c.service.CreateProduct(&product); err != nil {
		logger.WithCtx(r.Context()).Error("product create failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.Created(w, product)
}

// Update handles PATCH /api/admin/products/{id}. The body binds to the
// constrained ProductUpdate set; unknown fields never reach the database.
func (c *CatalogController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var update repositories.ProductUpdate
	if errs, err := bind.JSON(r, &update); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if update.Empty() {
		response.Error(w, http.StatusBadRequest, "No fields to update")
		return
	}

	product, err := c.service.UpdateProduct(id, update)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			response.NotFound(w)
			return
		}
		logger.WithCtx(r.Context()).Error("product update failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.Success(w, product)
}

// Delete handles DELETE /api/admin/products/{id}.
func (c *CatalogController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := c.service.DeleteProduct(id); err != nil {
		logger.WithCtx(r.Context()).Error("product delete failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.Success(w, map[string]string{"message": "Product deleted"})
}

func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}
