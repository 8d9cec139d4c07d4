package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayo6706/utility-payments/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls     atomic.Int32
	batchSize atomic.Int32
	err       error
}

func (f *fakeSweeper) SweepStale(ctx context.Context, batchSize int) (int, error) {
	f.calls.Add(1)
	f.batchSize.Store(int32(batchSize))
	return 1, f.err
}

type fakeAuditor struct {
	calls atomic.Int32
	drift []service.WalletDrift
	err   error
}

func (f *fakeAuditor) Run(ctx context.Context) ([]service.WalletDrift, error) {
	f.calls.Add(1)
	return f.drift, f.err
}

func TestStatusPollWorkerTicks(t *testing.T) {
	sweeper := &fakeSweeper{}
	w := NewStatusPollWorker(sweeper).WithPollInterval(10 * time.Millisecond).WithBatchSize(7)

	stop := w.Run(context.Background())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	stop()
	stop()

	assert.Equal(t, int32(7), sweeper.batchSize.Load())
	assert.Equal(t, "StatusPollWorker(interval=10ms, batch=7)", w.String())
}

func TestStatusPollWorkerStopsOnContextCancel(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	w := NewStatusPollWorker(sweeper).WithPollInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestStatusPollWorkerProcessOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	settled, err := NewStatusPollWorker(sweeper).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, int32(50), sweeper.batchSize.Load())
}

func TestReconciliationWorkerRejectsBadSchedule(t *testing.T) {
	_, err := NewReconciliationWorker(&fakeAuditor{}, "every tuesday")
	require.Error(t, err)
}

func TestReconciliationWorkerRunsOnStartAndOnSchedule(t *testing.T) {
	auditor := &fakeAuditor{drift: []service.WalletDrift{{OwnerID: "x"}}}
	w, err := NewReconciliationWorker(auditor, "@every 1s")
	require.NoError(t, err)

	stop, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), auditor.calls.Load())

	require.Eventually(t, func() bool { return auditor.calls.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
	stop()
	stop()
}

func TestReconciliationWorkerDefaultSchedule(t *testing.T) {
	w, err := NewReconciliationWorker(&fakeAuditor{}, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAuditSchedule, w.schedule)
}
