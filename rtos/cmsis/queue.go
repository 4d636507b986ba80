//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package cmsis

import (
	"unsafe"

	"mcukit/errcode"
	"mcukit/rtos"
)

type queue struct {
	fn   *kernelFuncs
	id   uintptr
	size uint32
}

func (o *OS) NewMessageQueue(count, size uint32) (rtos.MessageQueue, error) {
	if count == 0 || size == 0 {
		return nil, errcode.Param
	}
	id := o.fn.messageQueueNew(count, size, 0)
	if id == 0 {
		return nil, &errcode.E{C: errcode.InstanceCreateFailure, Op: "osMessageQueueNew"}
	}
	return &queue{fn: &o.fn, id: id, size: size}, nil
}

func (q *queue) MsgSize() uint32 { return q.size }
func (q *queue) Count() uint32   { return q.fn.messageQueueGetCount(q.id) }

// Put copies msg, zero-padded to the message size, into the kernel queue.
func (q *queue) Put(msg []byte, timeout uint32) error {
	if uint32(len(msg)) > q.size {
		return errcode.Param
	}
	buf := make([]byte, q.size)
	copy(buf, msg)
	return status("osMessageQueuePut", q.fn.messageQueuePut(q.id, &buf[0], 0, timeout))
}

func (q *queue) Get(buf []byte, timeout uint32) error {
	if uint32(len(buf)) < q.size {
		return errcode.Param
	}
	var prio uint8
	return status("osMessageQueueGet", q.fn.messageQueueGet(q.id, &buf[0], &prio, timeout))
}

// pool hands out blocks of kernel memory. They are C memory, so they may be
// kept anywhere until Free.
type pool struct {
	fn       *kernelFuncs
	id       uintptr
	bs, size uint32
}

func (o *OS) NewMemPool(count, blockSize uint32) (rtos.MemPool, error) {
	if count == 0 || blockSize == 0 {
		return nil, errcode.Param
	}
	id := o.fn.memoryPoolNew(count, blockSize, 0)
	if id == 0 {
		return nil, &errcode.E{C: errcode.InstanceCreateFailure, Op: "osMemoryPoolNew"}
	}
	return &pool{fn: &o.fn, id: id, bs: blockSize, size: count}, nil
}

func (p *pool) BlockSize() uint32 { return p.bs }
func (p *pool) Capacity() uint32  { return p.size }

func (p *pool) Alloc(timeout uint32) ([]byte, error) {
	ptr := p.fn.memoryPoolAlloc(p.id, timeout)
	if ptr == nil {
		if timeout == 0 {
			return nil, errcode.MemAllocFailure
		}
		return nil, errcode.Timeout
	}
	b := unsafe.Slice((*byte)(ptr), p.bs)
	clear(b)
	return b, nil
}

func (p *pool) Free(block []byte) error {
	if len(block) == 0 {
		return errcode.Param
	}
	return status("osMemoryPoolFree", p.fn.memoryPoolFree(p.id, unsafe.Pointer(unsafe.SliceData(block))))
}
