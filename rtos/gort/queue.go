package gort

import (
	"sync"
	"unsafe"

	"mcukit/errcode"
)

// ---- message queue ----

type queue struct {
	size uint32
	ch   chan []byte
}

func newQueue(count, size uint32) *queue {
	return &queue{size: size, ch: make(chan []byte, count)}
}

func (q *queue) MsgSize() uint32 { return q.size }
func (q *queue) Count() uint32   { return uint32(len(q.ch)) }

// Put copies msg, zero-padded to the message size.
func (q *queue) Put(msg []byte, timeout uint32) error {
	if uint32(len(msg)) > q.size {
		return errcode.Param
	}
	m := make([]byte, q.size)
	copy(m, msg)
	select {
	case q.ch <- m:
		return nil
	default:
	}
	if timeout == 0 {
		return errcode.Timeout
	}
	c, stop := deadline(timeout)
	defer stop()
	select {
	case q.ch <- m:
		return nil
	case <-c:
		return errcode.Timeout
	}
}

func (q *queue) Get(buf []byte, timeout uint32) error {
	if uint32(len(buf)) < q.size {
		return errcode.Param
	}
	select {
	case m := <-q.ch:
		copy(buf, m)
		return nil
	default:
	}
	if timeout == 0 {
		return errcode.Timeout
	}
	c, stop := deadline(timeout)
	defer stop()
	select {
	case m := <-q.ch:
		copy(buf, m)
		return nil
	case <-c:
		return errcode.Timeout
	}
}

// ---- memory pool ----

// pool carves one backing array into blocks. Free accepts only blocks it
// handed out and not yet returned.
type pool struct {
	bs    uint32
	mem   []byte
	free  chan int
	mu    sync.Mutex
	inUse []bool
}

func newPool(count, bs uint32) *pool {
	p := &pool{
		bs:    bs,
		mem:   make([]byte, int(count)*int(bs)),
		free:  make(chan int, count),
		inUse: make([]bool, count),
	}
	for i := 0; i < int(count); i++ {
		p.free <- i
	}
	return p
}

func (p *pool) BlockSize() uint32 { return p.bs }
func (p *pool) Capacity() uint32  { return uint32(len(p.inUse)) }

func (p *pool) block(i int) []byte {
	off := i * int(p.bs)
	return p.mem[off : off+int(p.bs) : off+int(p.bs)]
}

func (p *pool) take(i int) []byte {
	p.mu.Lock()
	p.inUse[i] = true
	p.mu.Unlock()
	b := p.block(i)
	clear(b)
	return b
}

func (p *pool) Alloc(timeout uint32) ([]byte, error) {
	select {
	case i := <-p.free:
		return p.take(i), nil
	default:
	}
	if timeout == 0 {
		return nil, errcode.MemAllocFailure
	}
	c, stop := deadline(timeout)
	defer stop()
	select {
	case i := <-p.free:
		return p.take(i), nil
	case <-c:
		return nil, errcode.Timeout
	}
}

func (p *pool) Free(b []byte) error {
	if len(b) == 0 || cap(b) != int(p.bs) {
		return errcode.Param
	}
	off := uintptr(unsafe.Pointer(unsafe.SliceData(b))) - uintptr(unsafe.Pointer(unsafe.SliceData(p.mem)))
	if off >= uintptr(len(p.mem)) || off%uintptr(p.bs) != 0 {
		return errcode.Param
	}
	i := int(off / uintptr(p.bs))
	p.mu.Lock()
	if !p.inUse[i] {
		p.mu.Unlock()
		return errcode.Param
	}
	p.inUse[i] = false
	p.mu.Unlock()
	p.free <- i
	return nil
}
