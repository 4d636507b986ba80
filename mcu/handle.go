// Package mcu holds the peripheral contracts shared by every vendor binding:
// the handle-identity contract used by the registries, the event-agent slot,
// and one capability/listener interface pair per peripheral kind.
package mcu

import "sync/atomic"

// WaitForever is the vendor "block until done" timeout. Callers compare
// against the literal, so it must stay 0xFFFFFFFF.
const WaitForever uint32 = 0xFFFFFFFF

// Handle exposes the identity a registry compares.
//
// HandleValue returns the raw vendor handle and must be stable for the
// wrapper's lifetime; zero means "not in use" and is never returned by a
// constructed wrapper. ChannelValue disambiguates sub-resources behind one
// handle (CAN FIFO, pin bit); non-multiplexed kinds return 0.
type Handle interface {
	HandleValue() uintptr
	ChannelValue() uint32
}

// Key is the (handle, channel) pair two bindings are compared by.
type Key struct {
	Handle  uintptr
	Channel uint32
}

// KeyOf builds the lookup key for h.
func KeyOf(h Handle) Key { return Key{Handle: h.HandleValue(), Channel: h.ChannelValue()} }

// Valid reports whether the key refers to a real handle.
func (k Key) Valid() bool { return k.Handle != 0 }

// NoChannel can be embedded by wrappers without multiplexed sub-resources.
type NoChannel struct{}

func (NoChannel) ChannelValue() uint32 { return 0 }

// EventLauncher is implemented by wrappers that accept a listener.
type EventLauncher[T any] interface {
	SetEventAgent(agent T)
	CleanEventAgent()
}

// AgentSlot stores an optional listener. Writers are task code, readers are
// interrupt shims, so both sides go through an atomic pointer.
type AgentSlot[T any] struct {
	p atomic.Pointer[T]
}

// Set stores agent. A nil interface empties the slot, like Clear.
func (s *AgentSlot[T]) Set(agent T) {
	if any(agent) == nil {
		s.p.Store(nil)
		return
	}
	s.p.Store(&agent)
}

func (s *AgentSlot[T]) Clear() { s.p.Store(nil) }

// Load returns the listener, if any.
func (s *AgentSlot[T]) Load() (T, bool) {
	if p := s.p.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}
