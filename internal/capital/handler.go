package capital

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tajirhub/tajir/internal/platform/httpx"
)

// Handler exposes the read side of the capital account.
type Handler struct {
	logger *slog.Logger
	engine *Engine
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, engine *Engine) *Handler {
	return &Handler{logger: logger, engine: engine}
}

// MountRoutes registers capital routes under /vendors/{vendorID}/capital.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.getAccount)
	r.Get("/ledger", h.listLedger)
}

type accountResponse struct {
	VendorID       int64  `json:"vendor_id"`
	InitialCapital string `json:"initial_capital"`
	CurrentBalance string `json:"current_balance"`
}

type ledgerEntryResponse struct {
	ID            int64  `json:"id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Description   string `json:"description,omitempty"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := VendorIDParam(w, r)
	if !ok {
		return
	}
	account, err := h.engine.GetAccount(r.Context(), vendorID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Account Not Found", "vendor has no capital account")
			return
		}
		h.logger.Error("get capital account", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, accountResponse{
		VendorID:       account.VendorID,
		InitialCapital: account.InitialCapital.String(),
		CurrentBalance: account.CurrentBalance.String(),
	})
}

func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := VendorIDParam(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 500
	}
	entries, err := h.engine.ListEntries(r.Context(), vendorID, limit)
	if err != nil {
		h.logger.Error("list ledger", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, ledgerEntryResponse{
			ID:            e.ID,
			Kind:          string(e.Kind),
			Amount:        e.Amount.String(),
			BalanceBefore: e.BalanceBefore.String(),
			BalanceAfter:  e.BalanceAfter.String(),
			Description:   e.Description,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

// VendorIDParam parses the {vendorID} route parameter, writing the problem
// response itself when the value is unusable.
func VendorIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "vendorID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Vendor", "vendor id must be a positive integer")
		return 0, false
	}
	return id, true
}
