package valuation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/platform/httpx"
)

// Handler exposes the inventory valuation read model.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers valuation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.snapshot)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := capital.VendorIDParam(w, r)
	if !ok {
		return
	}
	v, err := h.service.Snapshot(r.Context(), vendorID)
	if err != nil {
		h.logger.Error("valuation snapshot", slog.Any("error", err), slog.Int64("vendor_id", vendorID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	positions := make([]map[string]any, 0, len(v.Positions))
	for _, p := range v.Positions {
		positions = append(positions, map[string]any{
			"product_id":        p.ProductID,
			"source_type":       string(p.SourceType),
			"unit_cost":         p.UnitCost.String(),
			"quantity_on_hand":  p.QuantityOnHand,
			"quantity_sold":     p.QuantitySold,
			"unsettled_payable": p.UnsettledPayable().String(),
			"deleted":           p.Deleted,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"vendor_id":                        v.VendorID,
		"as_of":                            v.AsOf,
		"owned_stock_value":                v.OwnedStockValue.String(),
		"owned_sold_cost":                  v.OwnedSoldCost.String(),
		"consignment_stock_value":          v.ConsignmentStockValue.String(),
		"consignment_sold_unsettled_value": v.ConsignmentSoldUnsettledValue.String(),
		"positions":                        positions,
	})
}
