//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package cmsis

import (
	"unsafe"

	"mcukit/x/dl"
)

// osThreadAttr_t.
type threadAttr struct {
	name      *byte
	attrBits  uint32
	cbMem     unsafe.Pointer
	cbSize    uint32
	stackMem  unsafe.Pointer
	stackSize uint32
	priority  int32
	tzModule  uint32
	reserved  uint32
}

const osThreadDetached uint32 = 0

// kernelFuncs holds one Go func per CMSIS-RTOS2 entry point. Object ids
// travel as uintptr, osStatus_t as int32.
type kernelFuncs struct {
	kernelGetTickCount func() uint32
	delay              func(ticks uint32) int32
	threadYield        func() int32

	mutexNew     func(attr uintptr) uintptr
	mutexAcquire func(id uintptr, timeout uint32) int32
	mutexRelease func(id uintptr) int32
	mutexDelete  func(id uintptr) int32

	eventFlagsNew    func(attr uintptr) uintptr
	eventFlagsSet    func(id uintptr, flags uint32) uint32
	eventFlagsWait   func(id uintptr, flags, options, timeout uint32) uint32
	eventFlagsDelete func(id uintptr) int32

	semaphoreNew      func(max, initial uint32, attr uintptr) uintptr
	semaphoreAcquire  func(id uintptr, timeout uint32) int32
	semaphoreRelease  func(id uintptr) int32
	semaphoreGetCount func(id uintptr) uint32
	semaphoreDelete   func(id uintptr) int32

	timerNew       func(fn uintptr, typ uint32, arg uintptr, attr uintptr) uintptr
	timerStart     func(id uintptr, ticks uint32) int32
	timerStop      func(id uintptr) int32
	timerIsRunning func(id uintptr) uint32
	timerDelete    func(id uintptr) int32

	threadNew       func(fn uintptr, arg uintptr, attr *threadAttr) uintptr
	threadGetName   func(id uintptr) string
	threadSuspend   func(id uintptr) int32
	threadResume    func(id uintptr) int32
	threadTerminate func(id uintptr) int32

	messageQueueNew      func(count, size uint32, attr uintptr) uintptr
	messageQueuePut      func(id uintptr, msg *byte, prio uint8, timeout uint32) int32
	messageQueueGet      func(id uintptr, msg *byte, prio *uint8, timeout uint32) int32
	messageQueueGetCount func(id uintptr) uint32
	messageQueueDelete   func(id uintptr) int32

	memoryPoolNew    func(count, size uint32, attr uintptr) uintptr
	memoryPoolAlloc  func(id uintptr, timeout uint32) unsafe.Pointer
	memoryPoolFree   func(id uintptr, block unsafe.Pointer) int32
	memoryPoolDelete func(id uintptr) int32
}

func (f *kernelFuncs) table() []dl.Symbol {
	return []dl.Symbol{
		{Name: "osKernelGetTickCount", Fptr: &f.kernelGetTickCount},
		{Name: "osDelay", Fptr: &f.delay},
		{Name: "osThreadYield", Fptr: &f.threadYield},

		{Name: "osMutexNew", Fptr: &f.mutexNew},
		{Name: "osMutexAcquire", Fptr: &f.mutexAcquire},
		{Name: "osMutexRelease", Fptr: &f.mutexRelease},
		{Name: "osMutexDelete", Fptr: &f.mutexDelete},

		{Name: "osEventFlagsNew", Fptr: &f.eventFlagsNew},
		{Name: "osEventFlagsSet", Fptr: &f.eventFlagsSet},
		{Name: "osEventFlagsWait", Fptr: &f.eventFlagsWait},
		{Name: "osEventFlagsDelete", Fptr: &f.eventFlagsDelete},

		{Name: "osSemaphoreNew", Fptr: &f.semaphoreNew},
		{Name: "osSemaphoreAcquire", Fptr: &f.semaphoreAcquire},
		{Name: "osSemaphoreRelease", Fptr: &f.semaphoreRelease},
		{Name: "osSemaphoreGetCount", Fptr: &f.semaphoreGetCount},
		{Name: "osSemaphoreDelete", Fptr: &f.semaphoreDelete},

		{Name: "osTimerNew", Fptr: &f.timerNew},
		{Name: "osTimerStart", Fptr: &f.timerStart},
		{Name: "osTimerStop", Fptr: &f.timerStop},
		{Name: "osTimerIsRunning", Fptr: &f.timerIsRunning},
		{Name: "osTimerDelete", Fptr: &f.timerDelete},

		{Name: "osThreadNew", Fptr: &f.threadNew},
		{Name: "osThreadGetName", Fptr: &f.threadGetName},
		{Name: "osThreadSuspend", Fptr: &f.threadSuspend},
		{Name: "osThreadResume", Fptr: &f.threadResume},
		{Name: "osThreadTerminate", Fptr: &f.threadTerminate},

		{Name: "osMessageQueueNew", Fptr: &f.messageQueueNew},
		{Name: "osMessageQueuePut", Fptr: &f.messageQueuePut},
		{Name: "osMessageQueueGet", Fptr: &f.messageQueueGet},
		{Name: "osMessageQueueGetCount", Fptr: &f.messageQueueGetCount},
		{Name: "osMessageQueueDelete", Fptr: &f.messageQueueDelete},

		{Name: "osMemoryPoolNew", Fptr: &f.memoryPoolNew},
		{Name: "osMemoryPoolAlloc", Fptr: &f.memoryPoolAlloc},
		{Name: "osMemoryPoolFree", Fptr: &f.memoryPoolFree},
		{Name: "osMemoryPoolDelete", Fptr: &f.memoryPoolDelete},
	}
}
