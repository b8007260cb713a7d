package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/platform/httpx"
	"github.com/tajirhub/tajir/internal/valuation"
)

// Handler manages product endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers product routes under /vendors/{vendorID}/products.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{productID}", h.get)
	r.Delete("/{productID}", h.remove)
}

type createRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	SourceType string `json:"source_type" validate:"required,oneof=OWNED CONSIGNMENT"`
	UnitCost   string `json:"unit_cost" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	ActorID    int64  `json:"actor_id"`
}

type productResponse struct {
	ID             int64            `json:"id"`
	PublicID       string           `json:"public_id"`
	Name           string           `json:"name"`
	SourceType     string           `json:"source_type"`
	UnitCost       string           `json:"unit_cost"`
	QuantityOnHand int64            `json:"quantity_on_hand"`
	QuantitySold   int64            `json:"quantity_sold"`
	Warning        *capital.Warning `json:"warning,omitempty"`
}

func toResponse(p Product, warning *capital.Warning) productResponse {
	return productResponse{
		ID:             p.ID,
		PublicID:       p.PublicID,
		Name:           p.Name,
		SourceType:     string(p.SourceType),
		UnitCost:       p.UnitCost.String(),
		QuantityOnHand: p.QuantityOnHand,
		QuantitySold:   p.QuantitySold,
		Warning:        warning,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	unitCost, err := decimal.NewFromString(req.UnitCost)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unit_cost must be a decimal string")
		return
	}

	result, err := h.service.Create(r.Context(), CreateInput{
		VendorID:   vendorID,
		Name:       req.Name,
		SourceType: valuation.SourceType(req.SourceType),
		UnitCost:   unitCost,
		Quantity:   req.Quantity,
		ActorID:    req.ActorID,
	})
	if err != nil {
		h.respondError(w, err, vendorID)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(result.Product, result.Warning))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), vendorID, productID)
	if err != nil {
		h.respondError(w, err, vendorID)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(product, nil))
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
	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)

	refunded, err := h.service.Delete(r.Context(), vendorID, productID, actorID)
	if err != nil {
		h.respondError(w, err, vendorID)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"refunded": refunded.String()})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, vendorID int64) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	case errors.Is(err, capital.ErrAccountNotFound):
		httpx.Problem(w, http.StatusConflict, "No Capital Account", "vendor onboarding has not created a capital account")
	case errors.Is(err, capital.ErrDuplicateReference):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "this product already has a ledger entry of that kind")
	case errors.Is(err, ErrInvalidSource), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("products", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Product", "product id must be a positive integer")
		return 0, false
	}
	return id, true
}
