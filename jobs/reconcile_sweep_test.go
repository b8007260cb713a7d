package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/tajirhub/tajir/internal/jobs"
	"github.com/tajirhub/tajir/internal/observability"
	"github.com/tajirhub/tajir/internal/reconcile"
)

type staticVendors struct {
	ids []int64
}

func (v staticVendors) ListIDs(ctx context.Context) ([]int64, error) {
	return v.ids, nil
}

type stubReconciler struct {
	mu      sync.Mutex
	seen    []int64
	reports map[int64]reconcile.Report
	errs    map[int64]error
}

func (r *stubReconciler) Reconcile(ctx context.Context, vendorID int64) (reconcile.Report, error) {
	r.mu.Lock()
	r.seen = append(r.seen, vendorID)
	r.mu.Unlock()
	if err, ok := r.errs[vendorID]; ok {
		return reconcile.Report{}, err
	}
	if report, ok := r.reports[vendorID]; ok {
		return report, nil
	}
	return reconcile.Report{VendorID: vendorID}, nil
}

func newSweep(t *testing.T, vendors VendorLister, reconciler Reconciler) *ReconcileSweep {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	return NewReconcileSweep(logger, vendors, reconciler, metrics, observability.NewMetrics(), 4)
}

func TestSweepVisitsEveryVendor(t *testing.T) {
	reconciler := &stubReconciler{}
	sweep := newSweep(t, staticVendors{ids: []int64{1, 2, 3, 4, 5}}, reconciler)

	require.NoError(t, sweep.Handle(context.Background(), NewReconcileSweepTask()))
	require.Len(t, reconciler.seen, 5)
}

func TestSweepSurvivesVendorFailure(t *testing.T) {
	reconciler := &stubReconciler{
		errs: map[int64]error{2: context.DeadlineExceeded},
	}
	sweep := newSweep(t, staticVendors{ids: []int64{1, 2, 3}}, reconciler)

	require.NoError(t, sweep.Handle(context.Background(), NewReconcileSweepTask()),
		"one broken vendor must not fail the sweep")
	require.Len(t, reconciler.seen, 3)
}

func TestSweepReportsDrift(t *testing.T) {
	drifted := reconcile.Report{
		VendorID: 7,
		Expected: decimal.RequireFromString("7700"),
		Actual:   decimal.RequireFromString("7400"),
		Delta:    decimal.RequireFromString("-300"),
		Explanations: []reconcile.Explanation{
			{Code: reconcile.CauseConsignmentProfit, Amount: decimal.RequireFromString("-300")},
		},
	}
	reconciler := &stubReconciler{reports: map[int64]reconcile.Report{7: drifted}}
	sweep := newSweep(t, staticVendors{ids: []int64{7, 8}}, reconciler)

	require.NoError(t, sweep.Handle(context.Background(), NewReconcileSweepTask()))
}
