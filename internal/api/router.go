package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chatwire/push-bridge/internal/api/handler"
	apimw "github.com/chatwire/push-bridge/internal/api/middleware"
	"github.com/chatwire/push-bridge/internal/dispatch"
	"github.com/chatwire/push-bridge/internal/store"
	"github.com/chatwire/push-bridge/internal/sweeper"
	"github.com/chatwire/push-bridge/internal/tracker"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every event hook. It is the single source of truth for the HTTP surface area.
func NewRouter(
	t *tracker.Tracker,
	e *dispatch.Engine,
	st store.Store,
	sw *sweeper.Sweeper,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max event body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	eh := handler.NewEventHandler(t, e, st, logger)
	sh := handler.NewSweepHandler(sw, logger)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Document-created event hooks, one per triggering record kind, plus the
	// manual sweep trigger.
	r.Route("/hooks", func(r chi.Router) {
		r.Post("/requests", eh.RequestCreated)
		r.Post("/chats/{chatID}/messages", eh.MessageCreated)
		r.Post("/sweep", sh.Sweep)
	})

	return r
}
