package http

import (
	"net/http"
	"time"

	"github.com/aldeandersantos/AkkaUi/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	SessionCookie  string
	SecureCookie   bool
}

// NewRouter builds the storefront HTTP surface over the session registry.
func NewRouter(registry *session.Registry, logger *zap.Logger, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "akkaui_session"
	}

	cartHandler := NewCartHandler(registry, cfg.RequestTimeout)
	toastHandler := NewToastHandler(registry)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.SessionCookie, cfg.SecureCookie))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/totals", cartHandler.GetTotals)
			r.Get("/badge", cartHandler.GetBadge)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
			r.Patch("/items/{id}", cartHandler.UpdateQuantity)
			r.Put("/items/{id}", cartHandler.SetQuantity)
		})

		r.Route("/toasts", func(r chi.Router) {
			r.Get("/", toastHandler.List)
			r.Get("/html", toastHandler.HTML)
			r.Post("/", toastHandler.Show)
			r.Delete("/", toastHandler.Clear)
			r.Delete("/{id}", toastHandler.Remove)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
