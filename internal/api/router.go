package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", handleJSON(logger, h.Welcome))
	r.Get("/healthz", handleJSON(logger, h.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		if jwtSecret != "" {
			gr.Use(bearerAuth([]byte(jwtSecret), logger))
		}

		gr.Post("/ask", handleJSON(logger, h.Ask))
	})

	return r
}
