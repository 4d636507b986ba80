//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

package cmsis

import "sync"

// handles maps the ids handed to C as callback arguments back to Go
// values. C never sees a Go pointer.
type handles[T any] struct {
	mu   sync.RWMutex
	m    map[uintptr]T
	next uintptr
}

func (h *handles[T]) register(v T) uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.m == nil {
		h.m = map[uintptr]T{}
	}
	h.next++
	h.m[h.next] = v
	return h.next
}

func (h *handles[T]) lookup(id uintptr) (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.m[id]
	return v, ok
}

func (h *handles[T]) unregister(id uintptr) {
	h.mu.Lock()
	delete(h.m, id)
	h.mu.Unlock()
}

func (h *handles[T]) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.m)
}
