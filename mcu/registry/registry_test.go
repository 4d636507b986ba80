package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcukit/errcode"
	"mcukit/mcu"
)

// fakeWrapper is the smallest thing a registry can hold.
type fakeWrapper struct {
	h     uintptr
	ch    uint32
	value int
}

func (f *fakeWrapper) HandleValue() uintptr { return f.h }
func (f *fakeWrapper) ChannelValue() uint32 { return f.ch }

func key(h uintptr, ch uint32) mcu.Key { return mcu.Key{Handle: h, Channel: ch} }

func TestAllocateIsIdempotent(t *testing.T) {
	r := New[*fakeWrapper]("test", 4)

	a, sa, err := r.Allocate(&fakeWrapper{h: 0x1000, ch: 2})
	require.NoError(t, err)
	b, sb, err := r.Allocate(&fakeWrapper{h: 0x1000, ch: 2})
	require.NoError(t, err)

	require.True(t, a == b, "second allocate must return the original binding")
	assert.Equal(t, sa, sb)
	assert.Equal(t, 1, r.Len())

	a.value = 42
	assert.Equal(t, 42, b.value, "mutation through one reference is visible through the other")
}

func TestCapacityInvariant(t *testing.T) {
	const n = 4
	r := New[*fakeWrapper]("test", n)
	for i := 0; i < n; i++ {
		_, _, err := r.Allocate(&fakeWrapper{h: uintptr(0x1000 + i*0x100), value: i})
		require.NoError(t, err)
	}

	_, _, err := r.Allocate(&fakeWrapper{h: 0x9000})
	require.Equal(t, errcode.SlotsExhausted, err)

	for i := 0; i < n; i++ {
		w, err := r.Search(key(uintptr(0x1000+i*0x100), 0))
		require.NoError(t, err)
		assert.Equal(t, i, w.value)
	}

	// Re-binding an existing key still works when full.
	_, _, err = r.Allocate(&fakeWrapper{h: 0x1000})
	require.NoError(t, err)
}

func TestIdentityUniqueness(t *testing.T) {
	r := New[*fakeWrapper]("test", 8)
	keys := []mcu.Key{key(0x10, 0), key(0x10, 1), key(0x20, 0), key(0x20, 1)}
	for _, k := range keys {
		_, _, err := r.Allocate(&fakeWrapper{h: k.Handle, ch: k.Channel})
		require.NoError(t, err)
	}
	seen := map[*fakeWrapper]mcu.Key{}
	for _, k := range keys {
		w, err := r.Search(k)
		require.NoError(t, err)
		if prev, dup := seen[w]; dup {
			t.Fatalf("keys %v and %v resolved to the same slot", prev, k)
		}
		seen[w] = k
		assert.Equal(t, k, mcu.KeyOf(w))
	}
}

func TestSearchMissReturnsNotFound(t *testing.T) {
	r := New[*fakeWrapper]("test", 2)
	for _, k := range []mcu.Key{key(0, 0), key(0x1000, 0), key(0x1000, 7)} {
		_, err := r.Search(k)
		assert.Equal(t, errcode.InstanceNotFound, err, "key %v", k)
	}

	_, _, err := r.Allocate(&fakeWrapper{h: 0x1000})
	require.NoError(t, err)
	_, err = r.Search(key(0x1000, 7))
	assert.Equal(t, errcode.InstanceNotFound, err)
	_, err = r.Search(key(0, 0))
	assert.Equal(t, errcode.InstanceNotFound, err)
}

func TestNullHandleRejected(t *testing.T) {
	r := New[*fakeWrapper]("test", 2)
	_, _, err := r.Allocate(&fakeWrapper{h: 0})
	assert.Equal(t, errcode.Param, err)
	assert.Equal(t, 0, r.Len())
}

func TestCleanRemovesExactlyOne(t *testing.T) {
	r := New[*fakeWrapper]("test", 4)
	first, _, _ := r.Allocate(&fakeWrapper{h: 0x10, value: 1})
	_, _, _ = r.Allocate(&fakeWrapper{h: 0x20, value: 2})
	third, _, _ := r.Allocate(&fakeWrapper{h: 0x20, ch: 1, value: 3})

	require.NoError(t, r.Clean(key(0x20, 0)))

	_, err := r.Search(key(0x20, 0))
	assert.Equal(t, errcode.InstanceNotFound, err)

	w, err := r.Search(key(0x10, 0))
	require.NoError(t, err)
	assert.True(t, w == first)

	// Entries after the cleaned one keep their identity; nothing shifted.
	w, err = r.Search(key(0x20, 1))
	require.NoError(t, err)
	assert.True(t, w == third)
	assert.Equal(t, 3, w.value)

	assert.Equal(t, errcode.InstanceNotFound, r.Clean(key(0x20, 0)))
}

func TestCleanLastSlot(t *testing.T) {
	r := New[*fakeWrapper]("test", 2)
	_, _, _ = r.Allocate(&fakeWrapper{h: 0x10})
	_, _, _ = r.Allocate(&fakeWrapper{h: 0x20})

	require.NoError(t, r.Clean(key(0x20, 0)))
	_, err := r.Search(key(0x20, 0))
	assert.Equal(t, errcode.InstanceNotFound, err)
}

func TestRebindAfterCleanKeepsKeyUnique(t *testing.T) {
	r := New[*fakeWrapper]("test", 3)
	_, _, _ = r.Allocate(&fakeWrapper{h: 0x10})
	b, sb, err := r.Allocate(&fakeWrapper{h: 0x20})
	require.NoError(t, err)
	require.NoError(t, r.Clean(key(0x10, 0)))

	// The freed slot comes first in the scan, but the key already lives later.
	again, sa, err := r.Allocate(&fakeWrapper{h: 0x20})
	require.NoError(t, err)
	assert.True(t, again == b)
	assert.Equal(t, sb, sa)
	assert.Equal(t, 1, r.Len())

	_, _, err = r.Allocate(&fakeWrapper{h: 0x30})
	require.NoError(t, err)
	n := 0
	r.Range(func(_ Slot, w *fakeWrapper) bool {
		if w.h == 0x20 {
			n++
		}
		return true
	})
	assert.Equal(t, 1, n)
}

func TestStaleSlotDoesNotResolve(t *testing.T) {
	r := New[*fakeWrapper]("test", 1)
	_, old, err := r.Allocate(&fakeWrapper{h: 0x10, value: 1})
	require.NoError(t, err)
	require.NoError(t, r.Clean(key(0x10, 0)))

	_, fresh, err := r.Allocate(&fakeWrapper{h: 0x30, value: 3})
	require.NoError(t, err)

	_, err = r.Get(old)
	assert.Equal(t, errcode.InstanceNotFound, err, "slot reused by another key must not resolve")

	w, err := r.Get(fresh)
	require.NoError(t, err)
	assert.Equal(t, 3, w.value)

	_, err = r.Get(Slot{})
	assert.Equal(t, errcode.InstanceNotFound, err)
}

func TestConcurrentSearchDuringAllocate(t *testing.T) {
	r := New[*fakeWrapper]("test", 16)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 16; i++ {
			_, _, _ = r.Allocate(&fakeWrapper{h: uintptr(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for n := 0; n < 1000; n++ {
			_, _ = r.Search(key(uintptr(n%16+1), 0))
		}
	}()
	wg.Wait()
	assert.Equal(t, 16, r.Len())
}

func TestRange(t *testing.T) {
	r := New[*fakeWrapper]("test", 4)
	_, _, _ = r.Allocate(&fakeWrapper{h: 0x10})
	_, _, _ = r.Allocate(&fakeWrapper{h: 0x20})
	n := 0
	r.Range(func(s Slot, w *fakeWrapper) bool {
		assert.True(t, s.Valid())
		n++
		return true
	})
	assert.Equal(t, 2, n)
}
