package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) Prune() int {
	p.calls.Add(1)
	return 2
}

type stubWorker struct {
	name     string
	startErr error
	started  bool
	stopped  bool
	order    *[]string
}

func (w *stubWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.started = true
	return nil
}

func (w *stubWorker) Stop() error {
	w.stopped = true
	*w.order = append(*w.order, w.name)
	return nil
}

func (w *stubWorker) Name() string { return w.name }

func TestSessionSweeper_PrunesOnInterval(t *testing.T) {
	pruner := &countingPruner{}
	s := NewSessionSweeper(5*time.Millisecond, pruner, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "already running")

	assert.Eventually(t, func() bool { return pruner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.GreaterOrEqual(t, s.Swept(), 4)

	calls := pruner.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, pruner.calls.Load(), "no sweeps after stop")
	assert.NoError(t, s.Stop(), "stop is idempotent")
}

func TestSessionSweeper_RejectsZeroInterval(t *testing.T) {
	s := NewSessionSweeper(0, &countingPruner{}, zap.NewNop())
	assert.Error(t, s.Start(context.Background()))
}

func TestManager_StartStop(t *testing.T) {
	var order []string
	first := &stubWorker{name: "first", order: &order}
	broken := &stubWorker{name: "broken", startErr: errors.New("boom"), order: &order}
	last := &stubWorker{name: "last", order: &order}

	m := NewManager(zap.NewNop())
	m.Register(first)
	m.Register(broken)
	m.Register(last)
	assert.Equal(t, 3, m.Count())

	err := m.StartAll(context.Background())
	assert.ErrorContains(t, err, "start broken")
	assert.True(t, m.IsRunning())
	assert.True(t, first.started)
	assert.True(t, last.started)

	assert.Error(t, m.StartAll(context.Background()), "already running")

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Equal(t, []string{"last", "broken", "first"}, order)

	assert.NoError(t, m.StopAll())
}
