package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/picoreplayer/panelpi-go/internal/auth"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, authSvc *auth.Service, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus}

	// Auth routes (no auth required)
	r.Group(func(r chi.Router) {
		r.Get("/auth/login", h.loginPage)
		r.Post("/auth/login", h.loginPost)
	})

	// API routes (auth required)
	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		// Panel state
		r.Get("/api", h.getState)
		r.Get("/api/", h.getState)

		// Outputs
		r.Get("/api/meters", h.getMeters)
		r.Patch("/api/meters", h.setMeters)
		r.Get("/api/backlight", h.getBacklight)
		r.Patch("/api/backlight", h.setBacklight)
		r.Get("/api/motor", h.getMotor)
		r.Patch("/api/motor", h.setMotor)

		// Inputs and encoder
		r.Get("/api/inputs", h.getInputs)
		r.Get("/api/inputs/{ch}", h.getInput)
		r.Patch("/api/inputs/{ch}", h.setInput)
		r.Get("/api/encoder", h.getEncoder)
		r.Post("/api/encoder/reset", h.resetEncoder)

		// Controller tunables and commands
		r.Patch("/api/config", h.setConfig)
		r.Post("/api/command", h.sendCommand)
		r.Post("/api/refresh", h.refreshDevice)

		// System
		r.Get("/api/info", h.getInfo)
		r.Post("/api/backup", h.createBackup)
		r.Get("/api/backups", h.listBackups)
		r.Post("/api/backups/restore", h.restoreBackup)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, api-key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
