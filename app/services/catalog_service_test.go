package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/app/services"
)

func newCatalogService(t *testing.T) (*services.CatalogService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return services.NewCatalogService(repositories.NewProductRepository(db)), db
}

func TestCatalog_GetProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	p := seedProduct(t, db, "beans", 18.50, 40)

	got, err := svc.GetProduct(p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Equal(t, p.Price, got.Price)

	_, err = svc.GetProduct(9999)
	require.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestCatalog_ListAvailableHidesUnavailable(t *testing.T) {
	svc, db := newCatalogService(t)
	seedProduct(t, db, "beans", 18.50, 40)
	hidden := seedProduct(t, db, "retired", 5.00, 0)
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", hidden.ID).
		Update("available", false).Error)

	list, err := svc.ListAvailable()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "beans", list[0].Name)
}

func TestCatalog_SearchFilters(t *testing.T) {
	svc, db := newCatalogService(t)
	beans := seedProduct(t, db, "espresso beans", 18.50, 40)
	mug := seedProduct(t, db, "ceramic mug", 9.99, 0)
	press := seedProduct(t, db, "french press", 27.00, 15)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", beans.ID).Update("category", "coffee").Error)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", mug.ID).Update("category", "accessories").Error)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", press.ID).Update("category", "brewing").Error)

	byText, err := svc.Search(repositories.ProductFilters{Text: "beans"})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	require.Equal(t, "espresso beans", byText[0].Name)

	byCategory, err := svc.Search(repositories.ProductFilters{Category: "brewing"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "french press", byCategory[0].Name)

	combined, err := svc.Search(repositories.ProductFilters{Category: "accessories", InStock: true})
	require.NoError(t, err)
	require.Empty(t, combined, "filters compose with AND")

	byPrice, err := svc.Search(repositories.ProductFilters{PriceMin: 9.0, PriceMax: 20.0})
	require.NoError(t, err)
	require.Len(t, byPrice, 2)

	stocked, err := svc.Search(repositories.ProductFilters{InStock: true})
	require.NoError(t, err)
	require.Len(t, stocked, 2)
}

func TestCatalog_UpdateProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	p := seedProduct(t, db, "mug", 9.99, 120)

	price := 12.50
	stock := 90
	updated, err := svc.UpdateProduct(p.ID, repositories.ProductUpdate{Price: &price, Stock: &stock})
	require.NoError(t, err)
	require.Equal(t, 12.50, updated.Price)
	require.Equal(t, 90, updated.Stock)
	require.Equal(t, "mug", updated.Name, "untouched fields stay")

	// An update with nothing to change is rejected before touching the row.
	_, err = svc.UpdateProduct(p.ID, repositories.ProductUpdate{})
	require.Error(t, err)

	_, err = svc.UpdateProduct(9999, repositories.ProductUpdate{Price: &price})
	require.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestCatalog_DeleteProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	p := seedProduct(t, db, "mug", 9.99, 120)

	require.NoError(t, svc.DeleteProduct(p.ID))

	_, err := svc.GetProduct(p.ID)
	require.ErrorIs(t, err, services.ErrProductNotFound)
}
