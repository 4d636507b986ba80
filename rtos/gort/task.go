package gort

import (
	"context"
	"sync"

	"mcukit/errcode"
	"mcukit/rtos"
)

type taskKey struct{}

func taskFrom(ctx context.Context) *task {
	t, _ := ctx.Value(taskKey{}).(*task)
	return t
}

// task is a goroutine. Goroutines cannot be stopped from outside, so
// Suspend is cooperative: the task parks at its next OS.Delay.
type task struct {
	attr rtos.TaskAttr
	main rtos.TaskMain

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	suspended bool
	resume    chan struct{}
}

func newTask(attr rtos.TaskAttr, main rtos.TaskMain) *task {
	return &task{attr: attr, main: main, resume: make(chan struct{})}
}

func (t *task) Name() string { return t.attr.Name }

func (t *task) Activate(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.WithValue(ctx, taskKey{}, t))
	t.cancel = cancel
	t.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		t.main.Main(ctx)
	}(t.done)
	return nil
}

// Deactivate cancels the task's context and waits for Main to return.
func (t *task) Deactivate() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	if t.suspended {
		t.suspended = false
		close(t.resume)
		t.resume = make(chan struct{})
	}
	t.mu.Unlock()
	if cancel == nil {
		return errcode.NotAvailable
	}
	cancel()
	<-done
	return nil
}

func (t *task) Suspend() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return errcode.NotAvailable
	}
	t.suspended = true
	return nil
}

func (t *task) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.suspended {
		return nil
	}
	t.suspended = false
	close(t.resume)
	t.resume = make(chan struct{})
	return nil
}

// parked blocks while the task is suspended.
func (t *task) parked(ctx context.Context) error {
	t.mu.Lock()
	if !t.suspended {
		t.mu.Unlock()
		return nil
	}
	ch := t.resume
	t.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
