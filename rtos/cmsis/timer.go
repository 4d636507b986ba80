//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package cmsis

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/golang/glog"

	"mcukit/errcode"
	"mcukit/rtos"
)

var (
	timerAgents handles[rtos.TimerEventAgent]

	timerOnce sync.Once
	timerFn   uintptr
)

// timerTrampoline is the single osTimerFunc_t shared by every timer; its
// argument is the agent's handle id.
func timerTrampoline() uintptr {
	timerOnce.Do(func() {
		timerFn = purego.NewCallback(func(_ purego.CDecl, arg unsafe.Pointer) {
			if a, ok := timerAgents.lookup(uintptr(arg)); ok {
				a.OnTimeOver()
				return
			}
			glog.V(2).Infof("cmsis: timer %d has no agent", uintptr(arg))
		})
	})
	return timerFn
}

type timer struct {
	fn    *kernelFuncs
	id    uintptr
	agent uintptr
}

func (o *OS) NewTimer(mode rtos.TimerMode, agent rtos.TimerEventAgent) (rtos.Timer, error) {
	if agent == nil {
		return nil, errcode.Param
	}
	h := timerAgents.register(agent)
	id := o.fn.timerNew(timerTrampoline(), uint32(mode), h, 0)
	if id == 0 {
		timerAgents.unregister(h)
		return nil, &errcode.E{C: errcode.InstanceCreateFailure, Op: "osTimerNew"}
	}
	return &timer{fn: &o.fn, id: id, agent: h}, nil
}

func (t *timer) Start(ms uint32) error {
	if ms == 0 || ms == rtos.WaitForever {
		return errcode.Param
	}
	return status("osTimerStart", t.fn.timerStart(t.id, ms))
}

func (t *timer) Stop() error {
	err := status("osTimerStop", t.fn.timerStop(t.id))
	if errcode.Of(err) == errcode.Busy {
		// osErrorResource: the timer was not running.
		return errcode.NotAvailable
	}
	return err
}

func (t *timer) Running() bool { return t.fn.timerIsRunning(t.id) != 0 }

// Delete stops the timer and releases its kernel object and agent.
func (t *timer) Delete() error {
	err := status("osTimerDelete", t.fn.timerDelete(t.id))
	timerAgents.unregister(t.agent)
	return err
}
