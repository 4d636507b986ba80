package gort

import (
	"sync"

	"mcukit/errcode"
	"mcukit/rtos"
)

// ---- mutex ----

type mutex struct{ ch chan struct{} }

func newMutex() *mutex { return &mutex{ch: make(chan struct{}, 1)} }

func (m *mutex) Lock()   { m.ch <- struct{}{} }
func (m *mutex) Unlock() {
	select {
	case <-m.ch:
	default:
		panic("gort: unlock of unlocked mutex")
	}
}

func (m *mutex) TryLock(timeout uint32) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	default:
	}
	if timeout == 0 {
		return errcode.Timeout
	}
	c, stop := deadline(timeout)
	defer stop()
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-c:
		return errcode.Timeout
	}
}

// ---- event flags ----

type events struct {
	mu      sync.Mutex
	flags   uint32
	changed chan struct{}
}

func newEvents() *events { return &events{changed: make(chan struct{})} }

func (e *events) Set(flags uint32) error {
	if flags&rtos.FlagsError != 0 {
		return errcode.Param
	}
	e.mu.Lock()
	e.flags |= flags
	close(e.changed)
	e.changed = make(chan struct{})
	e.mu.Unlock()
	return nil
}

// take clears and returns the requested flags that are set.
func (e *events) take(want uint32) (uint32, <-chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if got := e.flags & want; got != 0 {
		e.flags &^= got
		return got, nil
	}
	return 0, e.changed
}

func (e *events) Wait(flags, timeout uint32) (uint32, error) {
	if err := rtos.CheckFlags(flags); err != nil {
		return 0, err
	}
	got, ch := e.take(flags)
	if got != 0 {
		return got, nil
	}
	if timeout == 0 {
		return 0, errcode.Timeout
	}
	c, stop := deadline(timeout)
	defer stop()
	for {
		select {
		case <-ch:
		case <-c:
			return 0, errcode.Timeout
		}
		if got, ch = e.take(flags); got != 0 {
			return got, nil
		}
	}
}

// ---- semaphore ----

type semaphore struct{ tokens chan struct{} }

func newSemaphore(max, initial uint32) *semaphore {
	s := &semaphore{tokens: make(chan struct{}, max)}
	for i := uint32(0); i < initial; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

func (s *semaphore) Acquire(timeout uint32) error {
	select {
	case <-s.tokens:
		return nil
	default:
	}
	if timeout == 0 {
		return errcode.Timeout
	}
	c, stop := deadline(timeout)
	defer stop()
	select {
	case <-s.tokens:
		return nil
	case <-c:
		return errcode.Timeout
	}
}

// Release fails with errcode.Busy once the count is at its maximum.
func (s *semaphore) Release() error {
	select {
	case s.tokens <- struct{}{}:
		return nil
	default:
		return errcode.Busy
	}
}

func (s *semaphore) Count() uint32 { return uint32(len(s.tokens)) }
