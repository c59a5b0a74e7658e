package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/navbar/internal/httpserver/deps"
	"github.com/MrSnakeDoc/navbar/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/navbar/internal/httpserver/mw"
)

func init() { Register(registerPages) }

// registerPages mounts the book site as the catch-all route.
func registerPages(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), limit).Get("/*", handlers.Page(d))
}
