package gort

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/errcode"
	"mcukit/rtos"
)

func TestMutexTryLock(t *testing.T) {
	m, err := New().NewMutex()
	require.NoError(t, err)

	require.NoError(t, m.TryLock(0))
	assert.Equal(t, errcode.Timeout, m.TryLock(0))
	assert.Equal(t, errcode.Timeout, m.TryLock(5))

	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Unlock()
	}()
	assert.NoError(t, m.TryLock(rtos.WaitForever))
	m.Unlock()
}

func TestUnlockOfUnlockedMutexPanics(t *testing.T) {
	m, err := New().NewMutex()
	require.NoError(t, err)
	assert.Panics(t, m.Unlock)

	m.Lock()
	assert.NotPanics(t, m.Unlock)
	assert.Panics(t, m.Unlock)
}

func TestEventsWaitAnyAndClear(t *testing.T) {
	ev, err := New().NewEvents()
	require.NoError(t, err)

	require.NoError(t, ev.Set(0x05))
	got, err := ev.Wait(0x01|0x02, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01), got)

	// 0x04 is still pending, 0x01 was cleared.
	_, err = ev.Wait(0x01, 0)
	assert.Equal(t, errcode.Timeout, err)
	got, err = ev.Wait(0x04, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04), got)

	assert.Equal(t, errcode.Param, ev.Set(rtos.FlagsError))
	_, err = ev.Wait(0, 0)
	assert.Equal(t, errcode.Param, err)
}

func TestEventsWakeWaiter(t *testing.T) {
	ev, _ := New().NewEvents()
	res := make(chan uint32, 1)
	go func() {
		got, _ := ev.Wait(0x08, 1000)
		res <- got
	}()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, ev.Set(0x10))
	require.NoError(t, ev.Set(0x08))
	select {
	case got := <-res:
		assert.Equal(t, uint32(0x08), got)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not woken")
	}
}

func TestSemaphore(t *testing.T) {
	os := New()
	_, err := os.NewSemaphore(0, 0)
	assert.Equal(t, errcode.Param, err)

	s, err := os.NewSemaphore(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.Count())
	require.NoError(t, s.Acquire(0))
	assert.Equal(t, errcode.Timeout, s.Acquire(1))
	require.NoError(t, s.Release())
	require.NoError(t, s.Release())
	assert.Equal(t, errcode.Busy, s.Release())
	assert.Equal(t, uint32(2), s.Count())
}

func TestTimerOnceAndPeriodic(t *testing.T) {
	os := New()
	var once, periodic atomic.Int32

	t1, err := os.NewTimer(rtos.TimerOnce, rtos.TimerFunc(func() { once.Add(1) }))
	require.NoError(t, err)
	t2, err := os.NewTimer(rtos.TimerPeriodic, rtos.TimerFunc(func() { periodic.Add(1) }))
	require.NoError(t, err)

	require.NoError(t, t1.Start(5))
	require.NoError(t, t2.Start(5))
	assert.True(t, t2.Running())

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, t2.Stop())
	assert.False(t, t1.Running())
	assert.False(t, t2.Running())
	assert.Equal(t, int32(1), once.Load())
	assert.True(t, periodic.Load() >= 3, "periodic fired %d times", periodic.Load())

	n := periodic.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, periodic.Load(), "no fires after Stop")

	assert.Equal(t, errcode.NotAvailable, t2.Stop())
	assert.Equal(t, errcode.Param, t1.Start(0))
	_, err = os.NewTimer(rtos.TimerOnce, nil)
	assert.Equal(t, errcode.Param, err)
}

func TestTaskLifecycle(t *testing.T) {
	os := New()
	var ticks atomic.Int32
	task, err := os.NewTask(rtos.TaskAttr{Name: "worker"}, rtos.TaskFunc(func(ctx context.Context) {
		for os.Delay(ctx, 1) == nil {
			ticks.Add(1)
		}
	}))
	require.NoError(t, err)
	assert.Equal(t, "worker", task.Name())
	assert.Equal(t, errcode.NotAvailable, task.Suspend())

	require.NoError(t, task.Activate(context.Background()))
	require.NoError(t, task.Activate(context.Background()), "second activate is a no-op")
	time.Sleep(20 * time.Millisecond)
	assert.True(t, ticks.Load() > 0)

	require.NoError(t, task.Suspend())
	time.Sleep(10 * time.Millisecond)
	parked := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, ticks.Load()-parked <= 1, "task kept running while suspended")

	require.NoError(t, task.Resume())
	time.Sleep(20 * time.Millisecond)
	assert.True(t, ticks.Load() > parked+1)

	require.NoError(t, task.Deactivate())
	assert.Equal(t, errcode.NotAvailable, task.Deactivate())
}

func TestDeactivateWakesSuspendedTask(t *testing.T) {
	os := New()
	task, _ := os.NewTask(rtos.TaskAttr{Name: "t"}, rtos.TaskFunc(func(ctx context.Context) {
		for os.Delay(ctx, 1) == nil {
		}
	}))
	require.NoError(t, task.Activate(context.Background()))
	require.NoError(t, task.Suspend())
	time.Sleep(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		_ = task.Deactivate()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Deactivate blocked on a suspended task")
	}
}

func TestMessageQueue(t *testing.T) {
	q, err := New().NewMessageQueue(2, 4)
	require.NoError(t, err)

	require.NoError(t, q.Put([]byte{1, 2}, 0))
	require.NoError(t, q.Put([]byte{3, 4, 5, 6}, 0))
	assert.Equal(t, errcode.Timeout, q.Put([]byte{7}, 0))
	assert.Equal(t, errcode.Param, q.Put(make([]byte, 5), 0))
	assert.Equal(t, uint32(2), q.Count())

	buf := make([]byte, 4)
	require.NoError(t, q.Get(buf, 0))
	assert.Equal(t, []byte{1, 2, 0, 0}, buf)
	require.NoError(t, q.Get(buf, 10))
	assert.Equal(t, []byte{3, 4, 5, 6}, buf)
	assert.Equal(t, errcode.Timeout, q.Get(buf, 1))
	assert.Equal(t, errcode.Param, q.Get(make([]byte, 3), 0))
}

func TestMemPool(t *testing.T) {
	p, err := New().NewMemPool(2, 16)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), p.BlockSize())
	assert.Equal(t, uint32(2), p.Capacity())

	a, err := p.Alloc(0)
	require.NoError(t, err)
	b, err := p.Alloc(0)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.False(t, &a[0] == &b[0])

	_, err = p.Alloc(0)
	assert.Equal(t, errcode.MemAllocFailure, err)
	_, err = p.Alloc(1)
	assert.Equal(t, errcode.Timeout, err)

	a[0] = 0xAA
	require.NoError(t, p.Free(a))
	assert.Equal(t, errcode.Param, p.Free(a), "double free")
	assert.Equal(t, errcode.Param, p.Free(make([]byte, 16)), "foreign block")

	c, err := p.Alloc(0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), c[0], "blocks come back zeroed")
}

func TestDelayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, New().Delay(ctx, 1000))
}
