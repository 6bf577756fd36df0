package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/metrics"
)

type fakeStore struct {
	mu    sync.Mutex
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeStore) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSweep(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{n: 3}
	m := metrics.New()
	s := NewSweeper(store, m, nil)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []time.Time{now}, store.calls)

	expected := `
# HELP sessions_swept_total Expired sessions removed by the sweeper
# TYPE sessions_swept_total counter
sessions_swept_total 3
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "sessions_swept_total"))
}

func TestSweep_Error(t *testing.T) {
	store := &fakeStore{err: errors.New("locked")}
	s := NewSweeper(store, nil, nil)

	n, err := s.Sweep(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestRun_SweepsOnStartAndStops(t *testing.T) {
	store := &fakeStore{}
	s := NewSweeper(store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, DefaultSweepSchedule) }()

	require.Eventually(t, func() bool { return store.callCount() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRun_InvalidSchedule(t *testing.T) {
	s := NewSweeper(&fakeStore{}, nil, nil)
	err := s.Run(context.Background(), "every now and then")
	assert.ErrorContains(t, err, "schedule session sweep")
}
