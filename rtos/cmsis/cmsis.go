//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

// Package cmsis is the rtos backend for a CMSIS-RTOS2 kernel built as a
// host shared library, such as an RTX or FreeRTOS port running on a
// POSIX simulator. Kernel objects are the library's; Go supplies the
// thread and timer bodies through purego callbacks.
package cmsis

import (
	"context"

	"github.com/golang/glog"

	"mcukit/errcode"
	"mcukit/rtos"
	"mcukit/x/dl"
)

// EnvPath names a library file that is tried before anything else.
const EnvPath = "MCUKIT_RTOS_PATH"

const DefaultName = "cmsis_rtos2"

// osStatus_t.
const (
	osOK             int32 = 0
	osError          int32 = -1
	osErrorTimeout   int32 = -2
	osErrorResource  int32 = -3
	osErrorParameter int32 = -4
	osErrorNoMemory  int32 = -5
	osErrorISR       int32 = -6
)

const osFlagsWaitAny uint32 = 0

// status maps an osStatus_t to an error.
func status(op string, st int32) error {
	var c errcode.Code
	switch st {
	case osOK:
		return nil
	case osErrorTimeout:
		c = errcode.Timeout
	case osErrorResource:
		c = errcode.Busy
	case osErrorParameter:
		c = errcode.Param
	case osErrorNoMemory:
		c = errcode.MemAllocFailure
	case osErrorISR:
		c = errcode.Permission
	default:
		c = errcode.Unknown
	}
	return &errcode.E{C: c, Op: op}
}

// osPriority_t for each rtos.Priority.
var priorities = [...]int32{
	rtos.PriorityNone:      0,
	rtos.PriorityIdle:      1,
	rtos.PriorityBase:      8,
	rtos.PriorityLow:       16,
	rtos.PriorityNormal:    24,
	rtos.PriorityHigh:      32,
	rtos.PriorityPrivilege: 40,
	rtos.PriorityRealTime:  48,
}

func priority(p rtos.Priority) int32 {
	if int(p) < len(priorities) {
		return priorities[p]
	}
	return priorities[rtos.PriorityNormal]
}

// OS is a loaded CMSIS-RTOS2 kernel. It implements rtos.OS.
type OS struct {
	path string
	lib  uintptr
	fn   kernelFuncs
}

var _ rtos.OS = (*OS)(nil)

// Open loads the named library (DefaultName when empty). The kernel must
// already be running, or be started by the library's constructor.
func Open(name string) (*OS, error) {
	if name == "" {
		name = DefaultName
	}
	lib, path, err := dl.Open(name, EnvPath)
	if err != nil {
		return nil, err
	}
	o := &OS{path: path, lib: lib}
	if err := dl.Bind(lib, "cmsis.Open", o.fn.table()); err != nil {
		_ = dl.Close(lib)
		return nil, err
	}
	glog.V(1).Infof("cmsis: loaded %s", path)
	return o, nil
}

func (o *OS) Path() string { return o.path }

// Close unloads the library. Objects created from it must not be used
// afterwards.
func (o *OS) Close() error {
	err := dl.Close(o.lib)
	o.lib = 0
	return err
}

func (o *OS) Systick() uint32 { return o.fn.kernelGetTickCount() }

func (o *OS) Yield() { _ = o.fn.threadYield() }

// Delay blocks the calling thread in osDelay. ctx is only checked around
// the call since the kernel cannot be interrupted from Go.
func (o *OS) Delay(ctx context.Context, ms uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := status("osDelay", o.fn.delay(ms)); err != nil {
		return err
	}
	return ctx.Err()
}
