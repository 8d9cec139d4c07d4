package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayo6706/utility-payments/internal/observability"
	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAuditSchedule runs the ledger audit at the top of every hour.
const DefaultAuditSchedule = "0 * * * *"

// LedgerAuditor checks wallet balances against their ledgers.
type LedgerAuditor interface {
	Run(ctx context.Context) ([]service.WalletDrift, error)
}

// ReconciliationWorker runs the ledger audit on a cron schedule.
type ReconciliationWorker struct {
	svc      LedgerAuditor
	schedule string
	cron     *cron.Cron
	stopOnce sync.Once
}

// NewReconciliationWorker parses schedule (standard five-field cron or a
// descriptor such as "@every 30m") and returns a stopped worker.
func NewReconciliationWorker(svc LedgerAuditor, schedule string) (*ReconciliationWorker, error) {
	if schedule == "" {
		schedule = DefaultAuditSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid ledger audit schedule %q: %w", schedule, err)
	}
	return &ReconciliationWorker{
		svc:      svc,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}, nil
}

// Start registers the audit job, runs it once and starts the scheduler.
func (w *ReconciliationWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("register ledger audit job: %w", err)
	}
	zap.L().Info("reconciliation worker starting", zap.String("schedule", w.schedule))

	w.RunOnce(ctx)
	w.cron.Start()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running audit to finish.
func (w *ReconciliationWorker) Stop() {
	w.stopOnce.Do(func() {
		stopped := w.cron.Stop()
		<-stopped.Done()
		zap.L().Info("reconciliation worker stopped")
	})
}

// Run starts the worker and returns its stop function.
func (w *ReconciliationWorker) Run(ctx context.Context) (func(), error) {
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w.Stop, nil
}

// RunOnce performs a single audit.
func (w *ReconciliationWorker) RunOnce(ctx context.Context) {
	drift, err := w.svc.Run(ctx)
	if err != nil {
		observability.IncrementWorkerRun("reconciliation", "failed")
		zap.L().Error("reconciliation run failed", zap.Error(err))
		return
	}
	if len(drift) > 0 {
		observability.IncrementWorkerRun("reconciliation", "drift")
		return
	}
	observability.IncrementWorkerRun("reconciliation", "success")
}
