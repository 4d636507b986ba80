//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package native

import (
	"sync"

	"github.com/ebitengine/purego"
	"github.com/golang/glog"

	"mcukit/errcode"
	"mcukit/mcu/hal"
)

type trampoline struct {
	name string
	fn   uintptr
}

var (
	trampOnce sync.Once
	tramps    []trampoline
)

// trampolines builds the C entry points for the hal shims. purego never
// frees callbacks, so they are created once per process.
func trampolines() []trampoline {
	trampOnce.Do(func() {
		cbs := hal.VendorCallbacks()
		tramps = make([]trampoline, 0, len(cbs))
		for _, cb := range cbs {
			tramps = append(tramps, trampoline{name: cb.Name, fn: purego.NewCallback(cb.Fn)})
		}
	})
	return tramps
}

// BindCallbacks points every vendor callback of the library at the hal
// shims. Interrupts then reach hal.Active(), so call hal.Init first. The
// library answers non-zero for a name it does not know; that is logged and
// skipped since not every part has every peripheral.
func (l *Library) BindCallbacks() error {
	bound := 0
	for _, t := range trampolines() {
		if rc := l.fn.bindCallback(t.name, t.fn); rc != 0 {
			glog.V(1).Infof("native: %s: no callback %s (rc=%d)", l.path, t.name, rc)
			continue
		}
		bound++
	}
	if bound == 0 {
		return &errcode.E{C: errcode.NotSupported, Op: "native.BindCallbacks", Msg: l.path}
	}
	glog.V(2).Infof("native: bound %d callbacks", bound)
	return nil
}
