package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlaspos/atlaspos/internal/observability"
	"github.com/atlaspos/atlaspos/internal/platform/httpx"
	"github.com/atlaspos/atlaspos/internal/shared"
)

// Handler serves the sales endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validate: validator.New()}
}

// Routes mounts sales endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sales", h.Create)
	r.Get("/sales", h.List)
	r.Get("/sales/{invoiceNo}", h.Get)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateSaleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sale, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		var stockErr *InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			if h.metrics != nil {
				h.metrics.StockRejections.Inc()
			}
			httpx.JSON(w, http.StatusConflict, map[string]any{
				"title":     "Insufficient Stock",
				"status":    http.StatusConflict,
				"detail":    stockErr.Error(),
				"shortages": stockErr.Shortages,
			})
		case errors.Is(err, ErrEmptyCart),
			errors.Is(err, ErrInvalidLine),
			errors.Is(err, ErrDuplicateLine),
			errors.Is(err, ErrNegativeDiscount):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrEmployeeNotFound):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Reference", err.Error())
		default:
			h.logger.Error("create sale", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	if h.metrics != nil {
		h.metrics.SalesPosted.Inc()
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := h.service.Get(r.Context(), chi.URLParam(r, "invoiceNo"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get sale", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	filter := ListFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
		EmployeeID: r.URL.Query().Get("employee_id"),
		Page:       page,
		Limit:      limit,
	}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Inclusive end of day.
			filter.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	sales, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sales":      sales,
		"pagination": shared.NewPagination(page, limit, total),
	})
}
