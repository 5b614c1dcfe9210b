package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/service"
)

type countingReconciler struct {
	calls  atomic.Int32
	dryRun atomic.Bool
	err    error
}

func (c *countingReconciler) Run(ctx context.Context, dryRun bool) (*service.ReconcileReport, error) {
	c.calls.Add(1)
	c.dryRun.Store(dryRun)
	if c.err != nil {
		return nil, c.err
	}
	return &service.ReconcileReport{}, nil
}

func TestNew_Disabled(t *testing.T) {
	s, err := New(Config{Interval: 0, Reconciler: &countingReconciler{}})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = New(Config{Interval: time.Second})
	require.NoError(t, err)
	assert.Nil(t, s)

	// Nil scheduler is safe to start and stop.
	s.Start()
	s.Stop()
}

func TestScheduler_RunsReconcile(t *testing.T) {
	r := &countingReconciler{}
	s, err := New(Config{Interval: 50 * time.Millisecond, Reconciler: r})
	require.NoError(t, err)
	require.NotNil(t, s)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, r.dryRun.Load())
}

func TestScheduler_KeepsRunningAfterError(t *testing.T) {
	r := &countingReconciler{err: errors.New("db fail")}
	s, err := New(Config{Interval: 50 * time.Millisecond, Reconciler: r})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}
