//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

// Package native drives a vendor HAL built as a host shared library.
//
// The library exports the vendor's C API (HAL_ADC_Start, HAL_UART_Transmit,
// ...) plus one extra entry point, vhal_bind_callback(name, fn), through
// which the Go interrupt shims are installed in place of the weak vendor
// callbacks. Loading follows the usual dlopen search: the MCUKIT_VHAL_PATH
// override, the platform library path, then the bare name.
package native

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/golang/glog"

	"mcukit/mcu/hal"
	"mcukit/x/dl"
)

// EnvPath names a library file that is tried before anything else.
const EnvPath = "MCUKIT_VHAL_PATH"

// DefaultName is the library base name without prefix or suffix; see
// dl.FileName.
const DefaultName = "vhal"

// ErrLibraryNotFound is returned when no candidate path could be opened.
var ErrLibraryNotFound = dl.ErrNotFound

// Library is a loaded vendor HAL. It implements hal.Driver.
type Library struct {
	path string
	lib  uintptr

	// DMA buffers stay pinned until the next transfer on the same
	// handle, an abort, or Close.
	pmu    sync.Mutex
	pinned map[dmaKey]*runtime.Pinner

	fn vendorFuncs
}

var _ hal.Driver = (*Library)(nil)

type dmaKey struct {
	kind byte
	h    uintptr
}

// Open loads the named library (DefaultName when empty) and resolves every
// vendor function. It does not install callbacks; see BindCallbacks.
func Open(name string) (*Library, error) {
	if name == "" {
		name = DefaultName
	}
	lib, path, err := dl.Open(name, EnvPath)
	if err != nil {
		return nil, err
	}
	l := &Library{path: path, lib: lib, pinned: map[dmaKey]*runtime.Pinner{}}
	if err := dl.Bind(lib, "native.Open", l.fn.table()); err != nil {
		_ = dl.Close(lib)
		return nil, err
	}
	glog.V(1).Infof("native: loaded %s", path)
	return l, nil
}

// Path is the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// Close unpins outstanding DMA buffers and unloads the library. Callbacks
// already handed to the library stay valid for the life of the process.
func (l *Library) Close() error {
	l.pmu.Lock()
	for k, p := range l.pinned {
		p.Unpin()
		delete(l.pinned, k)
	}
	l.pmu.Unlock()
	err := dl.Close(l.lib)
	l.lib = 0
	return err
}

// pin keeps bufs reachable and immobile until the next pin for the same
// kind and handle.
func (l *Library) pin(kind byte, h uintptr, ptrs ...unsafe.Pointer) {
	l.pmu.Lock()
	defer l.pmu.Unlock()
	k := dmaKey{kind, h}
	if p := l.pinned[k]; p != nil {
		p.Unpin()
	}
	p := new(runtime.Pinner)
	for _, v := range ptrs {
		if v != nil {
			p.Pin(v)
		}
	}
	l.pinned[k] = p
}

func (l *Library) unpin(kind byte, h uintptr) {
	l.pmu.Lock()
	defer l.pmu.Unlock()
	k := dmaKey{kind, h}
	if p := l.pinned[k]; p != nil {
		p.Unpin()
		delete(l.pinned, k)
	}
}
