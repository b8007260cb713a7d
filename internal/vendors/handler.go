package vendors

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

// Handler manages vendor onboarding endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers collection routes under /vendors.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.onboard)
}

// MountVendorRoutes registers routes under /vendors/{vendorID}.
func (h *Handler) MountVendorRoutes(r chi.Router) {
	r.Get("/", h.get)
}

type onboardRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Email          string `json:"email" validate:"omitempty,email"`
	InitialCapital string `json:"initial_capital" validate:"required"`
	ActorID        int64  `json:"actor_id"`
}

type vendorResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	InitialCapital string `json:"initial_capital,omitempty"`
	CurrentBalance string `json:"current_balance,omitempty"`
}

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	initialCapital, err := decimal.NewFromString(req.InitialCapital)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "initial_capital must be a decimal string")
		return
	}

	result, err := h.service.Onboard(r.Context(), OnboardInput{
		Name:           req.Name,
		Email:          req.Email,
		InitialCapital: initialCapital,
		ActorID:        req.ActorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vendorResponse{
		ID:             result.Vendor.ID,
		Name:           result.Vendor.Name,
		Email:          result.Vendor.Email,
		InitialCapital: result.Account.InitialCapital.String(),
		CurrentBalance: result.Account.CurrentBalance.String(),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	vendor, err := h.service.Get(r.Context(), vendorID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendorResponse{ID: vendor.ID, Name: vendor.Name, Email: vendor.Email})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "vendor not found")
	case errors.Is(err, ErrEmailTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, capital.ErrAccountExists):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "vendor already has a capital account")
	case errors.Is(err, capital.ErrNegativeAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "initial_capital must be >= 0")
	default:
		h.logger.Error("vendors", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
