package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/masterdata/customers"
	"github.com/atlaspos/atlaspos/internal/masterdata/employees"
	"github.com/atlaspos/atlaspos/internal/masterdata/products"
	"github.com/atlaspos/atlaspos/internal/masterdata/suppliers"
	"github.com/atlaspos/atlaspos/internal/observability"
	"github.com/atlaspos/atlaspos/internal/purchasing"
	"github.com/atlaspos/atlaspos/internal/sales"
	"github.com/atlaspos/atlaspos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Pool             *pgxpool.Pool
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	PurchasesHandler *purchasing.Handler
	ProductsHandler  *products.Handler
	CustomersHandler *customers.Handler
	EmployeesHandler *employees.Handler
	SuppliersHandler *suppliers.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := `{"status":"ok"}`
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), params.Config.AppRequestTimeout)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				status = `{"status":"degraded","detail":"database unreachable"}`
			}
		}
		_, _ = w.Write([]byte(status))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.InventoryHandler.Routes(r)
		params.SalesHandler.Routes(r)
		params.PurchasesHandler.Routes(r)
		params.ProductsHandler.Routes(r)
		params.CustomersHandler.Routes(r)
		params.EmployeesHandler.Routes(r)
		params.SuppliersHandler.Routes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
