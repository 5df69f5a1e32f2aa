package repositories

import (
	"time"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/pkg/metrics"
	"gorm.io/gorm"
)

// ProductRepository handles database operations for the catalogue.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ProductFilters narrows a catalogue search. Zero values mean "no filter".
type ProductFilters struct {
	Text     string
	Category string
	PriceMin float64
	PriceMax float64
	InStock  bool
}

// ProductUpdate is the constrained set of mutable product fields. Only
// non-nil fields are written; anything else a client sends is simply not
// representable here, so arbitrary column updates cannot reach the database.
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price" validate:"nullable,gte=0"`
	Stock       *int     `json:"stock" validate:"nullable,gte=0"`
	ImageURL    *string  `json:"image_url"`
	Available   *bool    `json:"available"`
}

// columns maps the set fields to their column assignments.
func (u ProductUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Category != nil {
		cols["category"] = *u.Category
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.Stock != nil {
		cols["stock"] = *u.Stock
	}
	if u.ImageURL != nil {
		cols["image_url"] = *u.ImageURL
	}
	if u.Available != nil {
		cols["available"] = *u.Available
	}
	return cols
}

// Empty reports whether the update carries no fields at all.
func (u ProductUpdate) Empty() bool {
	return len(u.columns()) == 0
}

// FindByID looks up a product by primary key.
func (r *ProductRepository) FindByID(id uint) (models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var product models.Product
	err := r.db.First(&product, id).Error
	return product, err
}

// AllAvailable returns every available product ordered by name.
func (r *ProductRepository) AllAvailable() ([]models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())
	var products []models.Product
	err := r.db.
		Where("available = ?", true).
		Order("name").
		Find(&products).Error
	return products, err
}

// Search applies the given filters and returns matches ordered by name.
func (r *ProductRepository) Search(f ProductFilters) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	q := r.db.Model(&models.Product{})
	if f.Text != "" {
		like := "%" + f.Text + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.PriceMin > 0 {
		q = q.Where("price >= ?", f.PriceMin)
	}
	if f.PriceMax > 0 {
		q = q.Where("price <= ?", f.PriceMax)
	}
	if f.InStock {
		q = q.Where("stock > 0")
	}

	var products []models.Product
	err := q.Order("name ASC").Find(&products).Error
	return products, err
}

// Create persists a new product.
func (r *ProductRepository) Create(product *models.Product) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return r.db.Create(product).Error
}

// Update applies a constrained field update and returns the fresh row.
func (r *ProductRepository) Update(id uint, update ProductUpdate) (models.Product, error) {
	defer metrics.ObserveDBQuery("update", time.Now())

	res := r.db.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(update.columns())
	if res.Error != nil {
		return models.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Product{}, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

// Delete removes a product.
func (r *ProductRepository) Delete(id uint) error {
	defer metrics.ObserveDBQuery("delete", time.Now())
	return r.db.Delete(&models.Product{}, id).Error
}
