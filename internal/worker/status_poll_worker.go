package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayo6706/utility-payments/internal/observability"
	"go.uber.org/zap"
)

// StaleSweeper settles purchases that have waited too long for a callback.
type StaleSweeper interface {
	SweepStale(ctx context.Context, batchSize int) (int, error)
}

// StatusPollWorker polls the provider for stale PENDING and PROCESSING purchases.
// Settlement locks each purchase row, so several instances may run at once.
type StatusPollWorker struct {
	sweeper      StaleSweeper
	pollInterval time.Duration
	batchSize    int
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewStatusPollWorker(sweeper StaleSweeper) *StatusPollWorker {
	return &StatusPollWorker{
		sweeper:      sweeper,
		pollInterval: time.Minute,
		batchSize:    50,
		stopCh:       make(chan struct{}),
	}
}

func (w *StatusPollWorker) WithPollInterval(interval time.Duration) *StatusPollWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

func (w *StatusPollWorker) WithBatchSize(size int) *StatusPollWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start runs until Stop is called or ctx is canceled.
func (w *StatusPollWorker) Start(ctx context.Context) {
	zap.L().Info("status poll worker starting",
		zap.Duration("interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize))

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("status poll worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("status poll worker stop signal received")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *StatusPollWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

func (w *StatusPollWorker) processBatch(ctx context.Context) {
	settled, err := w.sweeper.SweepStale(ctx, w.batchSize)
	if err != nil {
		observability.IncrementWorkerRun("status_poll", "failed")
		zap.L().Error("status poll sweep failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("status_poll", "success")
	if settled > 0 {
		zap.L().Info("status poll settled purchases", zap.Int("settled", settled))
	}
}

// ProcessOnce runs a single sweep immediately.
func (w *StatusPollWorker) ProcessOnce(ctx context.Context) (int, error) {
	return w.sweeper.SweepStale(ctx, w.batchSize)
}

// Run starts the worker in a goroutine and returns its stop function.
func (w *StatusPollWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *StatusPollWorker) String() string {
	return fmt.Sprintf("StatusPollWorker(interval=%v, batch=%d)", w.pollInterval, w.batchSize)
}
