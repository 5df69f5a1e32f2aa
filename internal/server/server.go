// Package server boots the tienda HTTP server: config, database, cache,
// middleware stack and route registration.
package server

import (
	"net/http"
	"time"

	"github.com/lmorales/tienda/app/routes"
	"github.com/lmorales/tienda/config"
	"github.com/lmorales/tienda/pkg/cache"
	"github.com/lmorales/tienda/pkg/database"
	"github.com/lmorales/tienda/pkg/logger"
	"github.com/lmorales/tienda/pkg/metrics"
	"github.com/lmorales/tienda/pkg/middleware"
	"github.com/lmorales/tienda/pkg/migration"
	"github.com/lmorales/tienda/pkg/reqid"
	"github.com/lmorales/tienda/pkg/router"
)

// Start loads configuration, connects storage and serves HTTP until the
// listener fails.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	if err := database.Connect(); err != nil {
		return err
	}
	if err := migration.New(database.DB).Run(); err != nil {
		return err
	}

	// The cache is optional: a missing Redis degrades product reads to
	// the database, it never blocks startup.
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, running without cache", "error", err)
	}

	r := NewRouter()
	routes.RegisterAPI(r, database.DB)

	addr := ":" + config.AppPort()
	logger.Info("tienda listening", "addr", addr, "env", config.AppEnv())
	return http.ListenAndServe(addr, r.Handler())
}

// NewRouter builds the router with the standard middleware stack applied.
func NewRouter() *router.Router {
	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		middleware.RateLimit(300, time.Minute),
	)
	r.HandleFunc("/metrics", metrics.Handler())
	return r
}
