// Package rtos is the kernel-object contract services are written
// against. Backends: rtos/gort (goroutines, for hosts and TinyGo) and
// rtos/cmsis (a CMSIS-RTOS2 kernel loaded through purego).
//
// Timeouts are milliseconds; 0 polls once and WaitForever blocks.
package rtos

import (
	"context"

	"mcukit/errcode"
)

const WaitForever uint32 = 0xFFFFFFFF

// Flag words returned by osEventFlagsWait/osThreadFlagsWait. Bit 31 marks
// an error, so it can never be used as an application flag.
const (
	FlagsError          uint32 = 0x80000000
	FlagsErrorUnknown   uint32 = 0xFFFFFFFF
	FlagsErrorTimeout   uint32 = 0xFFFFFFFE
	FlagsErrorResource  uint32 = 0xFFFFFFFD
	FlagsErrorParameter uint32 = 0xFFFFFFFC
	FlagsErrorISR       uint32 = 0xFFFFFFFA
)

// DecodeFlags splits a raw flag word into flags or an error.
func DecodeFlags(v uint32) (uint32, error) {
	if v&FlagsError == 0 {
		return v, nil
	}
	switch v {
	case FlagsErrorTimeout:
		return 0, errcode.Timeout
	case FlagsErrorResource:
		return 0, errcode.Busy
	case FlagsErrorParameter:
		return 0, errcode.Param
	case FlagsErrorISR:
		return 0, errcode.Permission
	default:
		return 0, errcode.Unknown
	}
}

// CheckFlags rejects flag sets that collide with the error bit.
func CheckFlags(flags uint32) error {
	if flags == 0 || flags&FlagsError != 0 {
		return errcode.Param
	}
	return nil
}

type Priority uint8

const (
	PriorityNone Priority = iota
	PriorityIdle
	PriorityBase
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityPrivilege
	PriorityRealTime
)

type TimerMode uint8

const (
	TimerOnce TimerMode = iota
	TimerPeriodic
)

type Mutex interface {
	Lock()
	Unlock()
	// TryLock waits up to timeout; errcode.Timeout when it expires.
	TryLock(timeout uint32) error
}

// Events is an event-flag group. Wait returns when any requested flag is
// set and clears the flags it returns.
type Events interface {
	Set(flags uint32) error
	Wait(flags, timeout uint32) (uint32, error)
}

type Semaphore interface {
	Acquire(timeout uint32) error
	Release() error
	Count() uint32
}

type TimerEventAgent interface {
	OnTimeOver()
}

// TimerFunc adapts a function to TimerEventAgent.
type TimerFunc func()

func (f TimerFunc) OnTimeOver() { f() }

type Timer interface {
	// Start (re)arms the timer for ms milliseconds.
	Start(ms uint32) error
	Stop() error
	Running() bool
}

type TaskAttr struct {
	Name      string
	StackSize uint32
	Priority  Priority
}

// TaskMain is a task body. It should return when ctx is done.
type TaskMain interface {
	Main(ctx context.Context)
}

type TaskFunc func(ctx context.Context)

func (f TaskFunc) Main(ctx context.Context) { f(ctx) }

type Task interface {
	Name() string
	// Activate starts the task once; later calls are no-ops.
	Activate(ctx context.Context) error
	// Deactivate terminates the task.
	Deactivate() error
	Suspend() error
	Resume() error
}

// MessageQueue carries fixed-size messages by copy.
type MessageQueue interface {
	Put(msg []byte, timeout uint32) error
	Get(buf []byte, timeout uint32) error
	Count() uint32
	MsgSize() uint32
}

// MemPool hands out fixed-size blocks.
type MemPool interface {
	Alloc(timeout uint32) ([]byte, error)
	Free(block []byte) error
	BlockSize() uint32
	Capacity() uint32
}

// OS creates kernel objects for one backend.
type OS interface {
	NewMutex() (Mutex, error)
	NewEvents() (Events, error)
	NewSemaphore(max, initial uint32) (Semaphore, error)
	NewTimer(mode TimerMode, agent TimerEventAgent) (Timer, error)
	NewTask(attr TaskAttr, main TaskMain) (Task, error)
	NewMessageQueue(count, size uint32) (MessageQueue, error)
	NewMemPool(count, blockSize uint32) (MemPool, error)

	// Delay sleeps ms milliseconds or until ctx is done.
	Delay(ctx context.Context, ms uint32) error
	// Systick is the kernel millisecond tick.
	Systick() uint32
	Yield()
}
