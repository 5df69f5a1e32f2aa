package migrations

import (
	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/pkg/migration"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260101000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000001_create_products_table", &CreateProductsTable{})
	migration.Register("20260101000002_create_carts_tables", &CreateCartsTables{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- 0003: carts + cart_items --------

type CreateCartsTables struct{}

func (m *CreateCartsTables) Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Cart{}, &models.CartItem{}); err != nil {
		return err
	}
	return createActiveCartIndexes(db)
}

func (m *CreateCartsTables) Down(db *gorm.DB) error {
	if err := db.Migrator().DropTable("cart_items"); err != nil {
		return err
	}
	return db.Migrator().DropTable("carts")
}

// createActiveCartIndexes enforces "at most one ACTIVE cart per identity"
// with partial unique indexes. The cart locator's race fallback depends on
// the database rejecting the second concurrent insert, so these are load-
// bearing, not an optimisation. Partial indexes need postgres or sqlite.
func createActiveCartIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_active_user
		   ON carts (user_id)
		   WHERE state = 'ACTIVE' AND user_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_active_guest
		   ON carts (guest_token)
		   WHERE state = 'ACTIVE' AND guest_token IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
