//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package cmsis

import (
	"github.com/golang/glog"

	"mcukit/errcode"
	"mcukit/rtos"
)

type mutex struct {
	fn *kernelFuncs
	id uintptr
}

func (o *OS) NewMutex() (rtos.Mutex, error) {
	id := o.fn.mutexNew(0)
	if id == 0 {
		return nil, &errcode.E{C: errcode.InstanceCreateFailure, Op: "osMutexNew"}
	}
	return &mutex{fn: &o.fn, id: id}, nil
}

func (m *mutex) Lock() {
	if err := status("osMutexAcquire", m.fn.mutexAcquire(m.id, rtos.WaitForever)); err != nil {
		glog.Errorf("cmsis: mutex %#x: %v", m.id, err)
	}
}

func (m *mutex) Unlock() {
	if err := status("osMutexRelease", m.fn.mutexRelease(m.id)); err != nil {
		glog.Errorf("cmsis: mutex %#x: %v", m.id, err)
	}
}

func (m *mutex) TryLock(timeout uint32) error {
	return status("osMutexAcquire", m.fn.mutexAcquire(m.id, timeout))
}

type events struct {
	fn *kernelFuncs
	id uintptr
}

func (o *OS) NewEvents() (rtos.Events, error) {
	id := o.fn.eventFlagsNew(0)
	if id == 0 {
		return nil, &errcode.E{C: errcode.InstanceCreateFailure, Op: "osEventFlagsNew"}
	}
	return &events{fn: &o.fn, id: id}, nil
}

func (e *events) Set(flags uint32) error {
	if err := rtos.CheckFlags(flags); err != nil {
		return err
	}
	_, err := rtos.DecodeFlags(e.fn.eventFlagsSet(e.id, flags))
	return err
}

func (e *events) Wait(flags, timeout uint32) (uint32, error) {
	if err := rtos.CheckFlags(flags); err != nil {
		return 0, err
	}
	got, err := rtos.DecodeFlags(e.fn.eventFlagsWait(e.id, flags, osFlagsWaitAny, timeout))
	if err != nil {
		return 0, err
	}
	// osEventFlagsWait reports every flag that was set, not only ours.
	return got & flags, nil
}

type semaphore struct {
	fn *kernelFuncs
	id uintptr
}

func (o *OS) NewSemaphore(max, initial uint32) (rtos.Semaphore, error) {
	if max == 0 || initial > max {
		return nil, errcode.Param
	}
	id := o.fn.semaphoreNew(max, initial, 0)
	if id == 0 {
		return nil, &errcode.E{C: errcode.InstanceCreateFailure, Op: "osSemaphoreNew"}
	}
	return &semaphore{fn: &o.fn, id: id}, nil
}

func (s *semaphore) Acquire(timeout uint32) error {
	return status("osSemaphoreAcquire", s.fn.semaphoreAcquire(s.id, timeout))
}

func (s *semaphore) Release() error {
	return status("osSemaphoreRelease", s.fn.semaphoreRelease(s.id))
}

func (s *semaphore) Count() uint32 { return s.fn.semaphoreGetCount(s.id) }
