package sales

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/platform/httpx"
	"github.com/tajirhub/tajir/internal/products"
)

// Handler manages sale endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sale routes under /vendors/{vendorID}/sales.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
}

type recordRequest struct {
	ProductID    int64  `json:"product_id" validate:"required,gt=0"`
	Quantity     int64  `json:"quantity" validate:"required,gt=0"`
	SellingPrice string `json:"selling_price" validate:"required"`
	ActorID      int64  `json:"actor_id"`
}

type saleResponse struct {
	ID           int64            `json:"id"`
	PublicID     string           `json:"public_id"`
	ProductID    int64            `json:"product_id"`
	Quantity     int64            `json:"quantity"`
	SellingPrice string           `json:"selling_price"`
	Profit       string           `json:"profit"`
	Warning      *capital.Warning `json:"warning,omitempty"`
}

func toResponse(s Sale, warning *capital.Warning) saleResponse {
	return saleResponse{
		ID:           s.ID,
		PublicID:     s.PublicID,
		ProductID:    s.ProductID,
		Quantity:     s.Quantity,
		SellingPrice: s.SellingPrice.String(),
		Profit:       s.Profit.String(),
		Warning:      warning,
	}
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	price, err := decimal.NewFromString(req.SellingPrice)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "selling_price must be a decimal string")
		return
	}

	result, err := h.service.Record(r.Context(), RecordInput{
		VendorID:     vendorID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		SellingPrice: price,
		ActorID:      req.ActorID,
	})
	if err != nil {
		h.respondError(w, err, vendorID)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(result.Sale, result.Warning))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), vendorID)
	if err != nil {
		h.respondError(w, err, vendorID)
		return
	}
	out := make([]saleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toResponse(s, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, vendorID int64) {
	switch {
	case errors.Is(err, products.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	case errors.Is(err, ErrOversell):
		httpx.Problem(w, http.StatusConflict, "Oversell", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPrice):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, capital.ErrAccountNotFound):
		httpx.Problem(w, http.StatusConflict, "No Capital Account", "vendor onboarding has not created a capital account")
	default:
		h.logger.Error("sales", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
