package gort

import (
	"sync"
	"time"

	"mcukit/errcode"
	"mcukit/rtos"
)

// timer calls agent.OnTimeOver from its own goroutine. gen discards fires
// that race with Stop or a restart.
type timer struct {
	mode  rtos.TimerMode
	agent rtos.TimerEventAgent

	mu      sync.Mutex
	t       *time.Timer
	period  time.Duration
	gen     uint64
	running bool
}

func (t *timer) Start(ms uint32) error {
	if ms == 0 || ms == rtos.WaitForever {
		return errcode.Param
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.period = duration(ms)
	t.running = true
	gen := t.gen
	if t.t == nil {
		t.t = time.AfterFunc(t.period, func() { t.fire(gen) })
		return nil
	}
	t.t.Stop()
	t.t = time.AfterFunc(t.period, func() { t.fire(gen) })
	return nil
}

func (t *timer) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	if t.mode == rtos.TimerPeriodic {
		t.t.Reset(t.period)
	} else {
		t.running = false
	}
	t.mu.Unlock()
	t.agent.OnTimeOver()
}

func (t *timer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return errcode.NotAvailable
	}
	t.gen++
	t.running = false
	t.t.Stop()
	return nil
}

func (t *timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
