package models

import "gorm.io/gorm"

// Product represents a product in the catalogue.
//
// The cart core reads Price and Stock but never writes them: Price is copied
// into a cart line at add time, Stock is only compared against. Decrementing
// stock belongs to order fulfilment, not the cart.
type Product struct {
	gorm.Model
	Name        string  `gorm:"size:255;not null;index" json:"name"`
	Description string  `gorm:"type:text"               json:"description"`
	Category    string  `gorm:"size:100;index"          json:"category"`
	Price       float64 `gorm:"not null;default:0"      json:"price"`
	Stock       int     `gorm:"not null;default:0"      json:"stock"`
	ImageURL    string  `gorm:"size:500"                json:"image_url"`
	Available   bool    `gorm:"not null;default:true"   json:"available"`
	SKU         string  `gorm:"size:100;uniqueIndex"    json:"sku"`
}
