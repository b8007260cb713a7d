package reconcile

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/platform/httpx"
)

// Handler exposes the reconciliation report. Strictly read-only: operators
// triage the explanations, nothing here corrects the books.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reconciliation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.reconcile)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	report, err := h.service.Reconcile(r.Context(), vendorID)
	if err != nil {
		if errors.Is(err, capital.ErrAccountNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Account Not Found", "vendor has no capital account")
			return
		}
		h.logger.Error("reconcile", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
