package rtos

// Guarded couples a value with the mutex that protects it.
type Guarded[T any] struct {
	mu Mutex
	v  T
}

func NewGuarded[T any](mu Mutex, v T) *Guarded[T] {
	return &Guarded[T]{mu: mu, v: v}
}

// Do runs fn with the lock held.
func (g *Guarded[T]) Do(fn func(v *T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.v)
}

// TryDo is Do with a bounded wait for the lock.
func (g *Guarded[T]) TryDo(timeout uint32, fn func(v *T)) error {
	if err := g.mu.TryLock(timeout); err != nil {
		return err
	}
	defer g.mu.Unlock()
	fn(&g.v)
	return nil
}

// Unguarded returns the value without locking. Only for readers that
// cannot block, such as interrupt handlers, and only for word-sized or
// atomic fields.
func (g *Guarded[T]) Unguarded() *T { return &g.v }
