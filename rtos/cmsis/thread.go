//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package cmsis

import (
	"context"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/golang/glog"

	"mcukit/errcode"
	"mcukit/rtos"
)

var (
	threads handles[*thread]

	threadOnce sync.Once
	threadFn   uintptr
)

// threadTrampoline is the single osThreadFunc_t shared by every task. The
// kernel thread lives as long as Main does.
func threadTrampoline() uintptr {
	threadOnce.Do(func() {
		threadFn = purego.NewCallback(func(_ purego.CDecl, arg unsafe.Pointer) {
			t, ok := threads.lookup(uintptr(arg))
			if !ok {
				glog.Warningf("cmsis: thread %d has no task", uintptr(arg))
				return
			}
			t.run()
		})
	})
	return threadFn
}

// thread is a task backed by a kernel thread. Deactivate cancels the
// context and waits for Main to return, which ends the thread.
type thread struct {
	fn   *kernelFuncs
	attr rtos.TaskAttr
	main rtos.TaskMain

	mu     sync.Mutex
	id     uintptr
	handle uintptr
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// name is the NUL-terminated copy handed to osThreadNew, which keeps
	// the pointer.
	name   []byte
	pinner runtime.Pinner
}

func (o *OS) NewTask(attr rtos.TaskAttr, main rtos.TaskMain) (rtos.Task, error) {
	if main == nil {
		return nil, errcode.Param
	}
	return &thread{fn: &o.fn, attr: attr, main: main}, nil
}

func (t *thread) Name() string {
	t.mu.Lock()
	id := t.id
	t.mu.Unlock()
	if id == 0 {
		return t.attr.Name
	}
	return t.fn.threadGetName(id)
}

func (t *thread) Activate(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id != 0 {
		return nil
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	t.handle = threads.register(t)

	t.name = append([]byte(t.attr.Name), 0)
	t.pinner.Pin(&t.name[0])
	attr := threadAttr{
		name:      &t.name[0],
		attrBits:  osThreadDetached,
		stackSize: t.attr.StackSize,
		priority:  priority(t.attr.Priority),
	}
	t.id = t.fn.threadNew(threadTrampoline(), t.handle, &attr)
	if t.id == 0 {
		t.release()
		return &errcode.E{C: errcode.InstanceCreateFailure, Op: "osThreadNew", Msg: t.attr.Name}
	}
	return nil
}

func (t *thread) run() {
	defer close(t.done)
	t.main.Main(t.ctx)
}

// release drops the handle and the pinned name. Callers hold t.mu.
func (t *thread) release() {
	t.cancel()
	threads.unregister(t.handle)
	t.pinner.Unpin()
	t.id, t.handle, t.name = 0, 0, nil
}

func (t *thread) Deactivate() error {
	t.mu.Lock()
	if t.id == 0 {
		t.mu.Unlock()
		return errcode.NotAvailable
	}
	id, done := t.id, t.done
	t.cancel()
	t.mu.Unlock()

	// A suspended thread cannot observe the cancellation.
	_ = t.fn.threadResume(id)
	<-done

	t.mu.Lock()
	t.release()
	t.mu.Unlock()
	return nil
}

func (t *thread) Suspend() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id == 0 {
		return errcode.NotAvailable
	}
	return status("osThreadSuspend", t.fn.threadSuspend(t.id))
}

func (t *thread) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id == 0 {
		return errcode.NotAvailable
	}
	return status("osThreadResume", t.fn.threadResume(t.id))
}
