package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/gomarketplace/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// Metrics is mounted on /metrics when set
	Metrics http.Handler
}

func NewRouter(store *service.CartStore, cfg RouterConfig, log logrus.FieldLogger) http.Handler {
	cartHandler := NewCartHandler(cfg.RequestTimeout, log)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(log))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if !store.Loaded() {
			status = "loading"
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": status})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(StoreMiddleware(store))
		r.Get("/", cartHandler.GetCart)
		r.Post("/items", cartHandler.AddItem)
		r.Post("/items/{id}/increment", cartHandler.Increment)
		r.Post("/items/{id}/decrement", cartHandler.Decrement)
	})

	return r
}
