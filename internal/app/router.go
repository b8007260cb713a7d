package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/observability"
	"github.com/tajirhub/tajir/internal/products"
	"github.com/tajirhub/tajir/internal/reconcile"
	"github.com/tajirhub/tajir/internal/sales"
	"github.com/tajirhub/tajir/internal/valuation"
	"github.com/tajirhub/tajir/internal/vendors"
	"github.com/tajirhub/tajir/internal/vouchers"
	"github.com/tajirhub/tajir/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	VendorsHandler   *vendors.Handler
	CapitalHandler   *capital.Handler
	ValuationHandler *valuation.Handler
	ReconcileHandler *reconcile.Handler
	ProductsHandler  *products.Handler
	SalesHandler     *sales.Handler
	VouchersHandler  *vouchers.Handler
	JobHandler       *jobs.Handler
	Pool             *pgxpool.Pool
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router for the capital-ledger API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded","database":"unreachable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/vendors", func(r chi.Router) {
		params.VendorsHandler.MountRoutes(r)
		r.Route("/{vendorID}", func(r chi.Router) {
			params.VendorsHandler.MountVendorRoutes(r)
			r.Route("/capital", func(r chi.Router) {
				params.CapitalHandler.MountRoutes(r)
				r.Route("/reconciliation", params.ReconcileHandler.MountRoutes)
			})
			r.Route("/valuation", params.ValuationHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/sales", params.SalesHandler.MountRoutes)
			r.Route("/vouchers", params.VouchersHandler.MountRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
