package alive_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/bus"
	"mcukit/errcode"
	"mcukit/rtos"
	"mcukit/rtos/gort"
	"mcukit/services/alive"
)

// clockOS is gort with a hand-driven tick.
type clockOS struct {
	rtos.OS
	now atomic.Uint32
}

func (c *clockOS) Systick() uint32 { return c.now.Load() }

type countingWD struct{ n atomic.Int32 }

func (w *countingWD) Refresh() error { w.n.Add(1); return nil }

func newService(t *testing.T, cfg alive.Config) (*alive.Service, *clockOS, *countingWD) {
	os := &clockOS{OS: gort.New()}
	wd := &countingWD{}
	s, err := alive.New(os, wd, cfg)
	require.NoError(t, err)
	return s, os, wd
}

func TestNewValidates(t *testing.T) {
	_, err := alive.New(gort.New(), &countingWD{}, alive.Config{})
	assert.Equal(t, errcode.Param, err)
	_, err = alive.New(nil, &countingWD{}, alive.Config{CycleMS: 10})
	assert.Equal(t, errcode.Param, err)
}

func TestWatchRejectsDuplicateName(t *testing.T) {
	s, _, _ := newService(t, alive.Config{CycleMS: 100})
	a, err := s.Watch("console")
	require.NoError(t, err)
	b, err := s.Watch("can")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = s.Watch("console")
	assert.Equal(t, errcode.InstanceDuplicate, err)
	assert.Equal(t, errcode.Param, s.StopWatch(alive.Handle(7)))
}

func TestCheckRefreshesOnlyWhenAllAlive(t *testing.T) {
	s, clk, wd := newService(t, alive.Config{CycleMS: 100, MaxMS: 150})
	h1, _ := s.Watch("console")
	h2, _ := s.Watch("can")

	clk.now.Store(100)
	require.NoError(t, s.Check())
	assert.Equal(t, int32(1), wd.n.Load())

	// can stops reporting.
	clk.now.Store(200)
	s.UpdateAliveState(h1)
	err := s.Check()
	assert.Equal(t, errcode.Timeout, errcode.Of(err))
	assert.Contains(t, err.Error(), "can")
	assert.Equal(t, int32(1), wd.n.Load())

	// Boundary: exactly MaxMS old is still alive.
	clk.now.Store(250)
	s.UpdateAliveState(h1)
	s.UpdateAliveState(h2)
	clk.now.Store(400)
	s.UpdateAliveState(h1)
	require.NoError(t, s.Check())
	assert.Equal(t, int32(2), wd.n.Load())
}

func TestStoppedWatchIsIgnored(t *testing.T) {
	s, clk, wd := newService(t, alive.Config{CycleMS: 10})
	h, _ := s.Watch("env")
	require.NoError(t, s.StopWatch(h))

	clk.now.Store(1000)
	require.NoError(t, s.Check())
	assert.Equal(t, int32(1), wd.n.Load())

	require.NoError(t, s.WatchBack(h))
	require.NoError(t, s.Check(), "WatchBack starts from a fresh report")
	clk.now.Store(1011)
	assert.Error(t, s.Check())

	st := s.States()
	require.Len(t, st, 1)
	assert.Equal(t, "env", st[0].Name)
	assert.True(t, st[0].Enabled)
	assert.False(t, st[0].Alive)
}

func TestTickWraparound(t *testing.T) {
	s, clk, wd := newService(t, alive.Config{CycleMS: 100})
	clk.now.Store(0xFFFFFFF0)
	h, _ := s.Watch("x")
	s.UpdateAliveState(h)
	clk.now.Store(0x20)
	require.NoError(t, s.Check())
	assert.Equal(t, int32(1), wd.n.Load())
}

func TestMainLoopWithholdsRefresh(t *testing.T) {
	s, clk, wd := newService(t, alive.Config{CycleMS: 1, MaxMS: 50})
	_, err := s.Watch("stalled")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Main(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	refreshed := wd.n.Load()
	assert.True(t, refreshed >= 2, "refreshed %d times while alive", refreshed)

	clk.now.Store(1000)
	time.Sleep(20 * time.Millisecond)
	stalled := wd.n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stalled, wd.n.Load(), "refresh continued with an overdue watch")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Main did not return")
	}
}

func TestServeAnswersStatus(t *testing.T) {
	s, _, _ := newService(t, alive.Config{CycleMS: 100})
	_, _ = s.Watch("console")

	b := bus.NewBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := b.NewConnection("alive")
	go s.Serve(ctx, srv)
	time.Sleep(10 * time.Millisecond)

	req := b.NewConnection("req")
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	reply, err := req.RequestWait(rctx, req.NewMessage(alive.TopicStatus, nil, false))
	require.NoError(t, err)
	states, ok := reply.Payload.([]alive.State)
	require.True(t, ok)
	require.Len(t, states, 1)
	assert.Equal(t, "console", states[0].Name)
}

func TestInstanceOnce(t *testing.T) {
	alive.ResetInstance()
	t.Cleanup(alive.ResetInstance)

	s, _, _ := newService(t, alive.Config{CycleMS: 10})
	assert.Nil(t, alive.Instance())
	require.NoError(t, alive.Initialize(s))
	assert.Equal(t, errcode.InstanceDuplicate, alive.Initialize(s))
	assert.Equal(t, errcode.NullReference, alive.Initialize(nil))
	assert.True(t, alive.Instance() == s)
}
