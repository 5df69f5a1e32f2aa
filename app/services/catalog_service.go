package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/pkg/cache"
	"github.com/lmorales/tienda/pkg/metrics"
	"gorm.io/gorm"
)

const productCacheTTL = 5 * time.Minute

func productCacheKey(id uint) string {
	return fmt.Sprintf("tienda:product:%d", id)
}

// CatalogService exposes catalogue reads and the admin product CRUD. None of
// this is consistency-critical: the cart core only depends on GetProduct.
type CatalogService struct {
	products *repositories.ProductRepository
}

func NewCatalogService(products *repositories.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// GetProduct fetches a product by id, read-through cached in Redis.
func (s *CatalogService) GetProduct(id uint) (models.Product, error) {
	var product models.Product
	if cache.Get(productCacheKey(id), &product) {
		metrics.CacheHits.Inc()
		return product, nil
	}
	metrics.CacheMisses.Inc()

	product, err := s.products.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: fetch product: %w", err)
	}

	_ = cache.Set(productCacheKey(id), product, productCacheTTL)
	return product, nil
}

// ListAvailable returns every available product ordered by name.
func (s *CatalogService) ListAvailable() ([]models.Product, error) {
	return s.products.AllAvailable()
}

// Search returns products matching the filters.
func (s *CatalogService) Search(filters repositories.ProductFilters) ([]models.Product, error) {
	return s.products.Search(filters)
}

// CreateProduct persists a new product (admin surface).
func (s *CatalogService) CreateProduct(product *models.Product) error {
	return s.products.Create(product)
}

// UpdateProduct applies a constrained field update and invalidates the
// product's cache entry.
func (s *CatalogService) UpdateProduct(id uint, update repositories.ProductUpdate) (models.Product, error) {
	if update.Empty() {
		return models.Product{}, errors.New("catalog: no fields to update")
	}

	product, err := s.products.Update(id, update)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: update product: %w", err)
	}

	_ = cache.Del(productCacheKey(id))
	return product, nil
}

// DeleteProduct removes a product and its cache entry.
func (s *CatalogService) DeleteProduct(id uint) error {
	if err := s.products.Delete(id); err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	_ = cache.Del(productCacheKey(id))
	return nil
}
