package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namereg/internal/order"
	"namereg/internal/platform/middleware"
	"namereg/internal/quota"
	"namereg/internal/registrar"
	"namereg/pkg/domain"
)

// Handler is the thin HTTP layer. It delegates to the domain services and
// keeps transport concerns (decoding, envelopes, routing) isolated here.
type Handler struct {
	registrar *registrar.Service
	quota     *quota.Service
	orders    *order.Service
	logger    *slog.Logger
}

func NewHandler(reg *registrar.Service, q *quota.Service, orders *order.Service, logger *slog.Logger) *Handler {
	return &Handler{registrar: reg, quota: q, orders: orders, logger: logger}
}

// RouterConfig carries what the router needs beyond the handler itself.
type RouterConfig struct {
	Validator middleware.TokenValidator
	Admins    []domain.Principal
	Health    func() error
}

// NewRouter wires all routes. Identity resolution applies everywhere; the
// admin subtree additionally requires an administrator principal.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Identify(cfg.Validator, h.logger))

		r.Route("/names", func(r chi.Router) {
			r.Get("/", h.handleListNames)
			r.Get("/{name}/owner", h.handleOwnerOf)
			r.Post("/{name}/approve", h.handleApprove)
			r.Post("/{name}/transfer", h.handleTransfer)
			r.Post("/{name}/transfer-from", h.handleTransferFrom)
		})

		r.Route("/quota", func(r chi.Router) {
			r.Get("/", h.handleGetQuota)
			r.Post("/transfer", h.handleQuotaTransfer)
			r.Post("/batch-transfer", h.handleQuotaBatchTransfer)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.handlePlaceOrder)
			r.Delete("/{name}", h.handleCancelOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(cfg.Admins))
			r.Post("/quota", h.handleAddQuota)
			r.Post("/quota/transfer-from", h.handleQuotaTransferFrom)
			r.Post("/registrations", h.handleSeedRegistration)
		})
	})

	return r
}

func (h *Handler) handleHealth(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
