package reactor

// Yield is handed to a step-driven producer function started by Go. Its
// only purpose is to be threaded through to Await, keeping the awaiting
// call sites readable as a sequence of suspension points.
type Yield struct {
	r   *Reactor
	drv *driver
}

// driver enforces a strict baton pass between a step-driven producer
// goroutine and whichever goroutine is currently waiting on it: the
// goroutine that called Go, for the producer's first suspension, and
// thereafter the reactor goroutine, resuming from inside the Subscribe
// callback registered by the producer's previous Await. Exactly one
// side runs at a time: the waiter blocks on park until the producer
// either suspends again at the next Await or returns, and the producer
// blocks on resume until the waiter delivers the next awaited outcome.
// This is what makes it safe for a producer's synchronous code between
// suspension points to touch reactor-goroutine-only state (fd
// registration maps, a Base's pending-operation fields): that code only
// ever executes while the reactor goroutine is parked waiting for it.
type driver struct {
	resume chan stepOutcome
	park   chan struct{}
}

// stepOutcome is the boxed form of an awaited Deferred's resolution,
// carried across the driver's resume channel regardless of the awaited
// value's concrete type.
type stepOutcome struct {
	value any
	err   error
}

// Await suspends the calling producer goroutine until d resolves, then
// returns its outcome. The resolution always arrives via a callback run
// on the reactor's own goroutine (through d.Subscribe); that callback
// hands the outcome to the producer and then blocks until the producer
// suspends again, so the reactor goroutine never proceeds to other work
// while the producer's resumed code is running.
func Await[T any](y *Yield, d *Deferred[T]) (T, error) {
	d.Subscribe(func(value T, err error) {
		y.drv.resume <- stepOutcome{value: value, err: err}
		<-y.drv.park
	})
	y.drv.park <- struct{}{}
	o := <-y.drv.resume
	v, _ := o.value.(T)
	return v, o.err
}

// GoTyped is a typed convenience wrapper around Go, for callers that want
// a *Deferred[T] rather than *Deferred[any]. It is the form used
// throughout the transport package, whose compound operations (buffered
// fills, packet framing, bound skips) are each naturally expressed as a
// short step-driven sequence of awaited inner reads/writes.
func GoTyped[T any](r *Reactor, fn func(y *Yield) (T, error)) *Deferred[T] {
	out := NewDeferred[T](r)
	Go(r, func(y *Yield) (any, error) {
		return fn(y)
	}).Subscribe(func(v any, err error) {
		if err != nil {
			out.Throw(err)
			return
		}
		value, _ := v.(T)
		out.Set(value)
	})
	return out
}

// Go starts fn as a step-driven computation: fn runs in its own goroutine,
// suspending only at calls to Await, and its eventual result or error
// resolves the returned Deferred. Resolution is always performed via the
// reactor's cross-goroutine submission path, never directly from the
// producer goroutine.
//
// Go itself blocks its caller until fn reaches its first suspension
// point (an Await call) or returns outright, per the driver's baton-pass
// contract: the caller must not be left believing fn is "off running
// asynchronously" when in fact it is still mid-execution on a bare
// goroutine with no synchronization protecting it.
//
// A panic escaping fn is recovered and delivered as a *PanicError. If fn
// returns without a normal return (runtime.Goexit), the outer Deferred is
// rejected with ErrGoexit rather than left hanging.
func Go(r *Reactor, fn func(y *Yield) (any, error)) *Deferred[any] {
	out := NewDeferred[any](r)
	drv := &driver{resume: make(chan stepOutcome), park: make(chan struct{})}
	y := &Yield{r: r, drv: drv}

	go func() {
		completed := false
		defer func() {
			if rec := recover(); rec != nil {
				err := &PanicError{Value: rec}
				r.submitExternal(func() { out.Throw(err) })
				drv.park <- struct{}{}
				return
			}
			if !completed {
				r.submitExternal(func() { out.Throw(ErrGoexit) })
				drv.park <- struct{}{}
			}
		}()

		result, err := fn(y)
		completed = true
		if err != nil {
			r.submitExternal(func() { out.Throw(err) })
		} else {
			r.submitExternal(func() { out.Set(result) })
		}
		drv.park <- struct{}{}
	}()

	<-drv.park
	return out
}
