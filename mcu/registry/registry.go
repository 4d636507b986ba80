// Package registry maps raw vendor handles back to the Go wrapper bound to
// them, so that one shared interrupt callback can find the right instance.
//
// A Registry has a fixed capacity chosen at construction (the board's count
// of that peripheral kind) and never allocates on the lookup path. Slots are
// stable: Clean empties a slot in place and never shifts its neighbours, so a
// wrapper pointer or Slot obtained earlier is never silently re-targeted.
//
// Concurrency contract: Allocate and Clean are expected from task context
// (normally once, during board bring-up). Search and Get may run from
// interrupt context at any time; they only perform atomic loads.
// Allocate and Clean must not race each other: a slot cleaned and refilled
// behind an in-progress Allocate scan lets the same key be claimed twice.
package registry

import (
	"sync/atomic"

	"mcukit/errcode"
	"mcukit/mcu"
)

// Slot is an opaque reference to one binding. It stays resolvable through
// Get until that binding is cleaned; a reused slot does not resolve to the
// new occupant.
type Slot struct {
	index int
	gen   uint32
}

// Valid reports whether s came from a successful Allocate.
func (s Slot) Valid() bool { return s.gen != 0 }

type entry[W mcu.Handle] struct {
	w   W
	key mcu.Key
	gen uint32
}

type Registry[W mcu.Handle] struct {
	name  string
	slots []atomic.Pointer[entry[W]]
	gen   atomic.Uint32
}

// New returns an empty registry with room for capacity bindings.
func New[W mcu.Handle](name string, capacity int) *Registry[W] {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry[W]{name: name, slots: make([]atomic.Pointer[entry[W]], capacity)}
}

func (r *Registry[W]) Name() string { return r.name }
func (r *Registry[W]) Cap() int     { return len(r.slots) }

// Len counts occupied slots.
func (r *Registry[W]) Len() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// Allocate binds candidate, or returns the wrapper already bound to the same
// key. Re-binding is idempotent: both calls yield the same wrapper and only
// one slot is consumed.
func (r *Registry[W]) Allocate(candidate W) (W, Slot, error) {
	var zero W
	k := mcu.KeyOf(candidate)
	if !k.Valid() {
		return zero, Slot{}, errcode.Param
	}
	for {
		free := -1
		for i := range r.slots {
			e := r.slots[i].Load()
			if e == nil {
				if free < 0 {
					free = i
				}
				continue
			}
			if e.key == k {
				return e.w, Slot{index: i, gen: e.gen}, nil
			}
		}
		if free < 0 {
			return zero, Slot{}, errcode.SlotsExhausted
		}
		ne := &entry[W]{w: candidate, key: k, gen: r.gen.Add(1)}
		if r.slots[free].CompareAndSwap(nil, ne) {
			return ne.w, Slot{index: free, gen: ne.gen}, nil
		}
		// Another writer took the slot between scan and claim; rescan so a
		// concurrent bind of the same key is found rather than duplicated.
	}
}

// Clean removes the binding for k without moving any other slot.
func (r *Registry[W]) Clean(k mcu.Key) error {
	if !k.Valid() {
		return errcode.InstanceNotFound
	}
	for i := range r.slots {
		e := r.slots[i].Load()
		if e != nil && e.key == k {
			r.slots[i].CompareAndSwap(e, nil)
			return nil
		}
	}
	return errcode.InstanceNotFound
}

// Search returns the wrapper bound to k. It is safe from interrupt context.
func (r *Registry[W]) Search(k mcu.Key) (W, error) {
	var zero W
	if !k.Valid() {
		return zero, errcode.InstanceNotFound
	}
	for i := range r.slots {
		if e := r.slots[i].Load(); e != nil && e.key == k {
			return e.w, nil
		}
	}
	return zero, errcode.InstanceNotFound
}

// Get resolves a Slot returned by Allocate.
func (r *Registry[W]) Get(s Slot) (W, error) {
	var zero W
	if !s.Valid() || s.index < 0 || s.index >= len(r.slots) {
		return zero, errcode.InstanceNotFound
	}
	e := r.slots[s.index].Load()
	if e == nil || e.gen != s.gen {
		return zero, errcode.InstanceNotFound
	}
	return e.w, nil
}

// Range calls fn for each binding until fn returns false.
func (r *Registry[W]) Range(fn func(Slot, W) bool) {
	for i := range r.slots {
		e := r.slots[i].Load()
		if e == nil {
			continue
		}
		if !fn(Slot{index: i, gen: e.gen}, e.w) {
			return
		}
	}
}
