package seeders

import (
	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/pkg/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func init() {
	Register("admin_user", SeedAdminUser)
	Register("products", SeedProducts)
}

// SeedAdminUser creates the default admin account if it does not exist.
func SeedAdminUser(db *gorm.DB) error {
	hash, err := auth.HashPassword("admin12345")
	if err != nil {
		return err
	}
	admin := models.User{
		Name:     "Admin",
		Email:    "admin@tienda.local",
		Password: hash,
		Role:     "admin",
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error
}

// SeedProducts inserts a small demo catalogue.
func SeedProducts(db *gorm.DB) error {
	products := []models.Product{
		{Name: "Espresso Beans 1kg", Description: "Dark roast arabica", Category: "coffee", Price: 18.50, Stock: 40, SKU: "CAF-001", Available: true},
		{Name: "Ceramic Mug", Description: "350ml, dishwasher safe", Category: "accessories", Price: 9.99, Stock: 120, SKU: "MUG-014", Available: true},
		{Name: "French Press", Description: "1L borosilicate glass", Category: "brewing", Price: 27.00, Stock: 15, SKU: "PRS-003", Available: true},
		{Name: "Hand Grinder", Description: "Ceramic burr, adjustable", Category: "brewing", Price: 34.90, Stock: 8, SKU: "GRD-007", Available: true},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}
