// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lucentchat/lucent/internal/api"
	"github.com/lucentchat/lucent/internal/api/themes"
	"github.com/lucentchat/lucent/internal/config"
	"github.com/lucentchat/lucent/internal/ratelimit"
)

func newServer(cfg *config.Config, registry *themes.Registry, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	registerRoutes(router, cfg, registry, limiter)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, registry *themes.Registry, limiter *ratelimit.Limiter) {
	handlers := themes.NewHandlers(registry, limiter, false)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Theme settings routes
	mux.HandleFunc("GET /api/v1/theme", handlers.HandleThemeGet)
	mux.HandleFunc("PUT /api/v1/theme", handlers.HandleThemeSave)
	mux.HandleFunc("GET /api/v1/theme/export", handlers.HandleThemeExport)
	mux.HandleFunc("POST /api/v1/theme/import", handlers.HandleThemeImport)
	mux.HandleFunc("GET /api/v1/theme/share", handlers.HandleShareGet)
	mux.HandleFunc("POST /api/v1/theme/share", handlers.HandleShareApply)
	mux.HandleFunc("GET /api/v1/theme/events", handlers.HandleThemeEvents)
	mux.HandleFunc("GET /theme.css", handlers.HandleThemeCSS)

	// Admin routes, gated by the bearer token
	adminAuth := api.WithAdminAuth(cfg.App.AdminTokenHash, limiter, false)
	mux.Handle("GET /api/v1/admin/theme", adminAuth(http.HandlerFunc(handlers.HandleAdminThemeGet)))
	mux.Handle("PUT /api/v1/admin/theme", adminAuth(http.HandlerFunc(handlers.HandleAdminThemeSet)))
}
