package purchasing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlaspos/atlaspos/internal/observability"
	"github.com/atlaspos/atlaspos/internal/platform/httpx"
	"github.com/atlaspos/atlaspos/internal/shared"
)

// Handler serves the purchasing endpoints.
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

// Routes mounts purchasing endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/purchases", h.Create)
	r.Get("/purchases", h.List)
	r.Get("/purchases/{purchaseNo}", h.Get)
	r.Post("/purchases/{purchaseNo}/receive", h.Receive)
	r.Delete("/purchases/{purchaseNo}", h.Cancel)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreatePurchaseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	purchase, err := h.service.CreatePurchase(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidLine), errors.Is(err, ErrDuplicateLine):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrSupplierNotFound):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Reference", err.Error())
		default:
			h.logger.Error("create purchase", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	purchaseNo := chi.URLParam(r, "purchaseNo")
	err := h.service.MarkReceived(r.Context(), purchaseNo, r.URL.Query().Get("actor_id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrAlreadyReceived):
			httpx.Problem(w, http.StatusConflict, "Already Received", err.Error())
		default:
			h.logger.Error("receive purchase", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	if h.metrics != nil {
		h.metrics.PurchasesReceived.Inc()
	}
	purchase, err := h.service.Get(r.Context(), purchaseNo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	err := h.service.Cancel(r.Context(), chi.URLParam(r, "purchaseNo"), r.URL.Query().Get("actor_id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrCannotCancelReceived):
			httpx.Problem(w, http.StatusConflict, "Cannot Cancel", err.Error())
		default:
			h.logger.Error("cancel purchase", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.service.Get(r.Context(), chi.URLParam(r, "purchaseNo"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get purchase", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	filter := ListFilter{
		SupplierID: r.URL.Query().Get("supplier_id"),
		Status:     Status(r.URL.Query().Get("status")),
		Page:       page,
		Limit:      limit,
	}
	purchases, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"purchases":  purchases,
		"pagination": shared.NewPagination(page, limit, total),
	})
}
