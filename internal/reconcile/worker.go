package reconcile

import (
	"context"
	"time"

	"github.com/rentkit/payflow/internal/alert"
	chargedomain "github.com/rentkit/payflow/internal/charge/domain"
	checkoutdomain "github.com/rentkit/payflow/internal/checkout/domain"
	"github.com/rentkit/payflow/internal/clock"
	"github.com/rentkit/payflow/internal/config"
	obsmetrics "github.com/rentkit/payflow/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WorkerParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Cfg        config.Config
	Charges    chargedomain.Repository
	Checkout   checkoutdomain.Service
	Alerts     alert.Notifier
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

// Worker polls for pending charges whose authorization window expired
// and auto-cancels their orders. Execution is at-least-once: the skip
// predicate inside TimeoutAutoCancel makes duplicate runs harmless.
type Worker struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	cfg        config.ReconcileConfig
	charges    chargedomain.Repository
	checkout   checkoutdomain.Service
	alerts     alert.Notifier
	obsMetrics *obsmetrics.Metrics
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		db:         p.DB,
		log:        p.Log.Named("reconcile.worker"),
		clock:      p.Clock,
		cfg:        p.Cfg.Reconcile,
		charges:    p.Charges,
		checkout:   p.Checkout,
		alerts:     p.Alerts,
		obsMetrics: p.ObsMetrics,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("timeout sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce sweeps one batch of overdue charges. Per-order failures are
// alerted and skipped; they never abort the sweep.
func (w *Worker) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	due, err := w.charges.ListCancelDue(runCtx, w.db, w.clock.Now(), w.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, rec := range due {
		// claim the deadline so a second instance skips this charge
		claimed, err := w.charges.ClearCancelDue(runCtx, w.db, rec.ID, w.clock.Now())
		if err != nil {
			w.log.Warn("cancel-due claim failed",
				zap.String("charge_id", rec.ID.String()), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		start := time.Now()
		result, err := w.checkout.TimeoutAutoCancel(runCtx, rec.OrderID)
		if err != nil {
			w.alerts.Notify(runCtx, alert.Event{
				Kind:     alert.KindTimeoutCancelFailed,
				Message:  "timeout auto-cancel failed",
				OrderID:  rec.OrderID,
				ChargeID: rec.ID,
				Err:      err,
			})
			w.obsMetrics.RecordReconcileJob("timeout_cancel", "error", time.Since(start))
			continue
		}
		w.obsMetrics.RecordReconcileJob("timeout_cancel", string(result), time.Since(start))
		w.log.Info("timeout auto-cancel",
			zap.String("order_id", rec.OrderID.String()),
			zap.String("result", string(result)),
		)
	}
	return nil
}
