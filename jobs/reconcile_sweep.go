package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/tajirhub/tajir/internal/jobs"
	"github.com/tajirhub/tajir/internal/observability"
	"github.com/tajirhub/tajir/internal/reconcile"
)

// VendorLister yields the vendor ids the sweep walks.
type VendorLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Reconciler produces the expected-vs-actual report for one vendor.
type Reconciler interface {
	Reconcile(ctx context.Context, vendorID int64) (reconcile.Report, error)
}

// ReconcileSweep runs the nightly expected-vs-actual check across all
// vendors. Drift never fails the job; it is logged and exported so operators
// see it on the dashboard before the vendor does.
type ReconcileSweep struct {
	logger      *slog.Logger
	vendors     VendorLister
	reconciler  Reconciler
	metrics     *jobmetrics.Metrics
	appMetrics  *observability.Metrics
	concurrency int
}

// NewReconcileSweep builds the sweep job.
func NewReconcileSweep(logger *slog.Logger, vendors VendorLister, reconciler Reconciler, metrics *jobmetrics.Metrics, appMetrics *observability.Metrics, concurrency int) *ReconcileSweep {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &ReconcileSweep{
		logger:      logger,
		vendors:     vendors,
		reconciler:  reconciler,
		metrics:     metrics,
		appMetrics:  appMetrics,
		concurrency: concurrency,
	}
}

// Handle processes TaskReconcileSweep tasks.
func (s *ReconcileSweep) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := s.metrics.Track("reconcile_sweep")
	return tracker.End(s.run(ctx))
}

func (s *ReconcileSweep) run(ctx context.Context) error {
	ids, err := s.vendors.ListIDs(ctx)
	if err != nil {
		return err
	}

	var drifting atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, vendorID := range ids {
		vendorID := vendorID
		g.Go(func() error {
			report, err := s.reconciler.Reconcile(ctx, vendorID)
			if err != nil {
				// One broken vendor must not starve the rest of the sweep.
				s.logger.Error("reconcile sweep vendor failed",
					slog.Int64("vendor_id", vendorID), slog.Any("error", err))
				return nil
			}
			drift := report.Delta.Abs()
			s.appMetrics.SetDrift(vendorID, drift.InexactFloat64())
			// A divergence can cancel out to a clean delta; it still counts.
			if report.Clean() && len(report.Explanations) == 0 {
				return nil
			}
			drifting.Add(1)
			causes := make([]string, 0, len(report.Explanations))
			for _, e := range report.Explanations {
				causes = append(causes, e.Code)
			}
			s.logger.Warn("capital drift detected",
				slog.Int64("vendor_id", vendorID),
				slog.String("expected", report.Expected.String()),
				slog.String("actual", report.Actual.String()),
				slog.String("delta", report.Delta.String()),
				slog.Any("causes", causes))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.metrics.SetDriftingVendors(int(drifting.Load()))
	s.logger.Info("reconcile sweep finished",
		slog.Int("vendors", len(ids)), slog.Int64("drifting", drifting.Load()))
	return nil
}
