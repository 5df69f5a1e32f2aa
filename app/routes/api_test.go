package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lmorales/tienda/app/models"
	"github.com/lmorales/tienda/app/routes"
	_ "github.com/lmorales/tienda/database/migrations"
	"github.com/lmorales/tienda/internal/server"
	"github.com/lmorales/tienda/pkg/auth"
	"github.com/lmorales/tienda/pkg/database"
	"github.com/lmorales/tienda/pkg/middleware"
	"github.com/lmorales/tienda/pkg/migration"
)

// newAPI stands up the whole HTTP stack (middleware, router, controllers)
// over a fresh in-memory database.
func newAPI(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), database.Config())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.New(db).Run())

	r := server.NewRouter()
	routes.RegisterAPI(r, db)

	ts := httptest.NewServer(r.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func seedAPIProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, Stock: stock, Available: true, SKU: "SKU-" + name}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func doJSON(t *testing.T, method, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGuestCartFlow(t *testing.T) {
	ts, db := newAPI(t)
	p := seedAPIProduct(t, db, "mug", 9.99, 50)

	// First contact: no token sent, one is minted and echoed back.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/cart/items",
		map[string]interface{}{"product_id": p.ID, "quantity": 2}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := resp.Header.Get(middleware.GuestTokenHeader)
	require.NotEmpty(t, token, "server must hand out a guest token")

	hdr := map[string]string{middleware.GuestTokenHeader: token}

	// The token identifies the same cart on subsequent requests.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/cart", nil, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	require.Equal(t, "19.98", data["total"])

	// Absolute quantity update.
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/cart/items/%d", ts.URL, p.ID),
		map[string]interface{}{"quantity": 5}, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Removal empties the cart.
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/cart/items/%d", ts.URL, p.ID), nil, hdr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/cart", nil, hdr)
	body = decodeBody(t, resp)
	data = body["data"].(map[string]interface{})
	require.Equal(t, "0.00", data["total"])
	require.Empty(t, data["items"])
}

func TestAddItemStockConflict(t *testing.T) {
	ts, db := newAPI(t)
	p := seedAPIProduct(t, db, "press", 27.00, 2)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/cart/items",
		map[string]interface{}{"product_id": p.ID, "quantity": 2}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token := resp.Header.Get(middleware.GuestTokenHeader)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/cart/items",
		map[string]interface{}{"product_id": p.ID, "quantity": 1},
		map[string]string{middleware.GuestTokenHeader: token})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "Cannot add 1 units. Only 0 units left in stock.", body["message"])
	data := body["data"].(map[string]interface{})
	require.Equal(t, true, data["limit_reached"])
}

func TestAddItemValidation(t *testing.T) {
	ts, _ := newAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/cart/items",
		map[string]interface{}{"quantity": 0}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUnknownProductIs404(t *testing.T) {
	ts, _ := newAPI(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/cart/items",
		map[string]interface{}{"product_id": 9999, "quantity": 1}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginConsolidatesGuestCart(t *testing.T) {
	ts, db := newAPI(t)
	p := seedAPIProduct(t, db, "beans", 10.00, 50)

	// Register a user up front.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register",
		map[string]interface{}{"name": "Ana", "email": "ana@example.com", "password": "secret123"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Shop anonymously.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/cart/items",
		map[string]interface{}{"product_id": p.ID, "quantity": 3}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	guestToken := resp.Header.Get(middleware.GuestTokenHeader)

	// Login presenting the guest token: the cart follows the user.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login",
		map[string]interface{}{"email": "ana@example.com", "password": "secret123"},
		map[string]string{middleware.GuestTokenHeader: guestToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	jwt := data["token"].(string)
	require.Contains(t, data, "cart")

	// The authenticated cart now holds the guest's items.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/cart", nil,
		map[string]string{"Authorization": "Bearer " + jwt})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	data = body["data"].(map[string]interface{})
	require.Equal(t, "30.00", data["total"])

	// The old guest token no longer reaches that cart.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/cart", nil,
		map[string]string{middleware.GuestTokenHeader: guestToken})
	body = decodeBody(t, resp)
	data = body["data"].(map[string]interface{})
	require.Equal(t, "0.00", data["total"])
}

func TestAdminRoutesRequireRole(t *testing.T) {
	ts, db := newAPI(t)

	product := map[string]interface{}{"name": "new", "price": 5.0, "stock": 1, "sku": "SKU-new"}

	// Anonymous.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/products", product, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Plain user.
	userToken, err := auth.GenerateToken(1, "user")
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/admin/products", product,
		map[string]string{"Authorization": "Bearer " + userToken})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admin.
	adminToken, err := auth.GenerateToken(2, "admin")
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/admin/products", product,
		map[string]string{"Authorization": "Bearer " + adminToken})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Where("sku = ?", "SKU-new").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newAPI(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
