// Package shmring is a single-producer, single-consumer byte ring. The
// producer may run in interrupt context: writes never block or allocate.
package shmring

import "sync/atomic"

// Ring is a power-of-two sized SPSC byte ring. Indices are monotonic and
// wrap through the mask.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index
	wr   atomic.Uint32 // producer index

	readable chan struct{} // empty -> non-empty edge
	writable chan struct{} // full -> non-full edge
}

// New returns a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }
func (r *Ring) Cap() int     { return len(r.buf) }

func (r *Ring) Available() int { return int(r.wr.Load() - r.rd.Load()) }
func (r *Ring) Space() int     { return int(r.size() - (r.wr.Load() - r.rd.Load())) }

// TryWriteFrom copies as much of src as fits and returns the count.
func (r *Ring) TryWriteFrom(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	used := wr - rd
	n := int(r.size() - used)
	if n <= 0 {
		return 0
	}
	if len(src) < n {
		n = len(src)
	}

	idx := wr & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(r.buf[idx:idx+uint32(first)], src[:first])
	if rest := n - first; rest > 0 {
		copy(r.buf[:rest], src[first:n])
	}
	r.wr.Store(wr + uint32(n))

	if used == 0 {
		notify(r.readable)
	}
	return n
}

// TryReadInto moves up to len(dst) bytes out of the ring.
func (r *Ring) TryReadInto(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	used := wr - rd
	n := int(used)
	if n == 0 {
		return 0
	}
	if len(dst) < n {
		n = len(dst)
	}

	idx := rd & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[idx:idx+uint32(first)])
	if rest := n - first; rest > 0 {
		copy(dst[first:n], r.buf[:rest])
	}
	r.rd.Store(rd + uint32(n))

	if used == r.size() {
		notify(r.writable)
	}
	return n
}

// Discard drops everything currently readable. Consumer side only.
func (r *Ring) Discard() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	r.rd.Store(wr)
	if wr-rd == r.size() {
		notify(r.writable)
	}
	return int(wr - rd)
}

// Readable fires once each time the ring goes from empty to non-empty.
func (r *Ring) Readable() <-chan struct{} { return r.readable }

// Writable fires once each time the ring goes from full to non-full.
func (r *Ring) Writable() <-chan struct{} { return r.writable }

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
