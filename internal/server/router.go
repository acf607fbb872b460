package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odclabs/kiosk/internal/api"
	"github.com/odclabs/kiosk/internal/api/handlers"
	"github.com/odclabs/kiosk/internal/api/middleware"
)

type RouterConfig struct {
	AskHandler     *handlers.AskHandler
	RebuildHandler *handlers.RebuildHandler
	AdminToken     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Kiosk questions are short; a transcript plus session metadata
	// fits comfortably under this.
	const maxBodyBytes int64 = 64 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SessionID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", cfg.AskHandler.Ask)
		r.Post("/sessions/{id}/clear", cfg.AskHandler.ClearSession)
		r.Get("/languages", handlers.Languages)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.AdminToken))
			r.Post("/admin/rebuild", cfg.RebuildHandler.Rebuild)
		})
	})

	return r
}
