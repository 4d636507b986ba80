// Package gort implements rtos on goroutines, channels and timers. It runs
// wherever the Go runtime does, including TinyGo targets with a scheduler.
package gort

import (
	"context"
	"runtime"
	"time"

	"mcukit/errcode"
	"mcukit/rtos"
)

type OS struct {
	start time.Time
}

var _ rtos.OS = (*OS)(nil)

func New() *OS { return &OS{start: time.Now()} }

func (o *OS) Systick() uint32 { return uint32(time.Since(o.start) / time.Millisecond) }

// Yield gives up the processor.
func (o *OS) Yield() {
	runtime.Gosched()
}

// Delay sleeps ms milliseconds. Inside a task it is also where Suspend
// takes effect.
func (o *OS) Delay(ctx context.Context, ms uint32) error {
	if ms > 0 {
		t := time.NewTimer(duration(ms))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	} else {
		runtime.Gosched()
	}
	if t := taskFrom(ctx); t != nil {
		return t.parked(ctx)
	}
	return nil
}

func duration(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }

// deadline returns the timeout channel for a blocking wait and its stop
// function. WaitForever yields a nil channel, which never fires.
func deadline(timeout uint32) (<-chan time.Time, func()) {
	if timeout == rtos.WaitForever {
		return nil, func() {}
	}
	t := time.NewTimer(duration(timeout))
	return t.C, func() { t.Stop() }
}

func (o *OS) NewMutex() (rtos.Mutex, error) { return newMutex(), nil }

func (o *OS) NewEvents() (rtos.Events, error) { return newEvents(), nil }

func (o *OS) NewSemaphore(max, initial uint32) (rtos.Semaphore, error) {
	if max == 0 || initial > max {
		return nil, errcode.Param
	}
	return newSemaphore(max, initial), nil
}

func (o *OS) NewTimer(mode rtos.TimerMode, agent rtos.TimerEventAgent) (rtos.Timer, error) {
	if agent == nil || mode > rtos.TimerPeriodic {
		return nil, errcode.Param
	}
	return &timer{mode: mode, agent: agent}, nil
}

func (o *OS) NewTask(attr rtos.TaskAttr, main rtos.TaskMain) (rtos.Task, error) {
	if main == nil {
		return nil, errcode.Param
	}
	return newTask(attr, main), nil
}

func (o *OS) NewMessageQueue(count, size uint32) (rtos.MessageQueue, error) {
	if count == 0 || size == 0 {
		return nil, errcode.Param
	}
	return newQueue(count, size), nil
}

func (o *OS) NewMemPool(count, blockSize uint32) (rtos.MemPool, error) {
	if count == 0 || blockSize == 0 {
		return nil, errcode.Param
	}
	return newPool(count, blockSize), nil
}
