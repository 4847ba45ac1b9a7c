package reactor

import "sync"

// Deferred is a one-shot container holding either an unresolved state, a
// value, or an error. It is the reactor's concurrency primitive: every
// asynchronous operation returns one, and subscribers are always resumed
// through the owning Reactor's callback queue, never inline, per the
// "no unbounded recursion" rule.
type Deferred[T any] struct {
	r *Reactor

	mu        sync.Mutex
	resolved  bool
	value     T
	err       error
	observers []func(T, error)
}

// NewDeferred creates an unresolved Deferred bound to r. Subscriber
// callbacks fire through r's callback queue.
func NewDeferred[T any](r *Reactor) *Deferred[T] {
	return &Deferred[T]{r: r}
}

// Set resolves the Deferred with a value. Calling Set or Throw on an
// already-resolved Deferred is a programming error: the second call
// panics with *ProgrammingError, matching the "set/throw are
// idempotent-failing" contract.
func (d *Deferred[T]) Set(value T) {
	d.resolve(value, nil)
}

// Throw resolves the Deferred with an error.
func (d *Deferred[T]) Throw(err error) {
	var zero T
	d.resolve(zero, err)
}

func (d *Deferred[T]) resolve(value T, err error) {
	d.mu.Lock()
	if d.resolved {
		d.mu.Unlock()
		panic(&ProgrammingError{Message: "Deferred resolved more than once"})
	}
	d.resolved = true
	d.value = value
	d.err = err
	observers := d.observers
	d.observers = nil
	d.mu.Unlock()

	for _, fn := range observers {
		fn := fn
		d.r.Call(func() { fn(value, err) })
	}
}

// Subscribe registers a continuation to run with the Deferred's outcome.
// If already resolved, the continuation is still scheduled via the
// reactor's callback queue rather than invoked inline. Continuations
// fire in subscription order.
func (d *Deferred[T]) Subscribe(fn func(value T, err error)) {
	d.mu.Lock()
	if d.resolved {
		value, err := d.value, d.err
		d.mu.Unlock()
		d.r.Call(func() { fn(value, err) })
		return
	}
	d.observers = append(d.observers, fn)
	d.mu.Unlock()
}

// Resolved reports whether Set or Throw has already been called.
func (d *Deferred[T]) Resolved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolved
}
