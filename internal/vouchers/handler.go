package vouchers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/platform/httpx"
)

// Handler manages supplier voucher endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers voucher routes under /vendors/{vendorID}/vouchers.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.post)
}

type allocationRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Amount    string `json:"amount" validate:"required"`
}

type postRequest struct {
	Kind        string              `json:"kind" validate:"required,oneof=RECEIPT_FROM_SUPPLIER PAYMENT_TO_SUPPLIER"`
	Amount      string              `json:"amount" validate:"required"`
	Note        string              `json:"note" validate:"max=500"`
	Allocations []allocationRequest `json:"allocations" validate:"dive"`
	ActorID     int64               `json:"actor_id"`
}

type voucherResponse struct {
	ID       int64            `json:"id"`
	PublicID string           `json:"public_id"`
	Kind     string           `json:"kind"`
	Amount   string           `json:"amount"`
	Note     string           `json:"note,omitempty"`
	Warning  *capital.Warning `json:"warning,omitempty"`
}

func toResponse(v Voucher, warning *capital.Warning) voucherResponse {
	return voucherResponse{
		ID:       v.ID,
		PublicID: v.PublicID,
		Kind:     string(v.Kind),
		Amount:   v.Amount.String(),
		Note:     v.Note,
		Warning:  warning,
	}
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount must be a decimal string")
		return
	}
	allocations := make([]AllocationInput, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		lineAmount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "allocation amount must be a decimal string")
			return
		}
		allocations = append(allocations, AllocationInput{ProductID: a.ProductID, Amount: lineAmount})
	}

	result, err := h.service.Post(r.Context(), PostInput{
		VendorID:    vendorID,
		Kind:        capital.EntryKind(req.Kind),
		Amount:      amount,
		Note:        req.Note,
		Allocations: allocations,
		ActorID:     req.ActorID,
	})
	if err != nil {
		h.respondError(w, err, vendorID)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(result.Voucher, result.Warning))
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
	out := make([]voucherResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toResponse(v, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"vouchers": out})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, vendorID int64) {
	switch {
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidAllocation), errors.Is(err, ErrAllocationExceedsAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, capital.ErrAccountNotFound):
		httpx.Problem(w, http.StatusConflict, "No Capital Account", "vendor onboarding has not created a capital account")
	case errors.Is(err, capital.ErrDuplicateReference):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "this voucher already has a ledger entry")
	default:
		h.logger.Error("vouchers", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
