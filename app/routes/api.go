package routes

import (
	"net/http"

	"github.com/lmorales/tienda/app/controllers"
	"github.com/lmorales/tienda/app/repositories"
	"github.com/lmorales/tienda/app/services"
	"github.com/lmorales/tienda/pkg/middleware"
	"github.com/lmorales/tienda/pkg/router"
	"gorm.io/gorm"
)

// RegisterAPI wires repositories, services and controllers onto the router.
func RegisterAPI(r *router.Router, db *gorm.DB) {
	cartRepo := repositories.NewCartRepository(db)
	productRepo := repositories.NewProductRepository(db)
	userRepo := repositories.NewUserRepository(db)

	cartService := services.NewCartService(cartRepo, productRepo)
	catalogService := services.NewCatalogService(productRepo)
	authService := services.NewAuthService(userRepo)

	cartController := controllers.NewCartController(cartService)
	catalogController := controllers.NewCatalogController(catalogService)
	authController := controllers.NewAuthController(authService, cartService)

	api := r.Group("/api")

	api.Post("/auth/register", "auth.register", authController.Register)
	api.Post("/auth/login", "auth.login", authController.Login)

	api.Get("/products", "products.index", catalogController.Index)
	api.Get("/products/{id}", "products.show", catalogController.Show)

	// Cart routes accept both authenticated users and anonymous guests.
	cart := api.Group("/cart", middleware.Identity)
	cart.Get("", "cart.show", cartController.Show)
	cart.Post("/items", "cart.items.add", cartController.AddItem)
	cart.Patch("/items/{productID}", "cart.items.update", cartController.UpdateItem)
	cart.Delete("/items/{productID}", "cart.items.remove", cartController.RemoveItem)

	admin := api.Group("/admin", middleware.Auth, middleware.RequireRole("admin"))
	admin.Post("/products", "admin.products.create", catalogController.Create)
	admin.Patch("/products/{id}", "admin.products.update", catalogController.Update)
	admin.Delete("/products/{id}", "admin.products.delete", catalogController.Delete)

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	})
}
