package reactor

import (
	"container/heap"
	"fmt"
	"sync"
	"time"
)

// Handler is implemented by anything registered against the reactor for
// readiness notifications: in practice, a transport's base contract. n is
// always -1 for readiness-driven calls, signaling "unknown readable byte
// count" per the reactor loop's dispatch contract.
type Handler interface {
	// Fd returns the file descriptor this handler is registered against.
	Fd() int
	// OnReadable is invoked when the fd is ready for a non-blocking read.
	OnReadable(n int)
	// OnWritable is invoked when the fd is ready for a non-blocking write.
	OnWritable(n int)
	// OnError is invoked when the reactor can no longer service this fd,
	// e.g. after pruning a bad fd from the poller.
	OnError(err error)
}

// Reactor is a single-threaded cooperative I/O runtime: readiness
// multiplexing, a FIFO callback queue, and fd-to-handler registration for
// read and write interest.
type Reactor struct {
	cfg *config

	state atomicState

	poll   poller
	wakeR  int
	wakeW  int
	wakeOn bool

	// queue is the reactor-goroutine-only callback FIFO. Only code known
	// to execute on the reactor's own goroutine (the loop itself, or a
	// callback already running on it) may append to it directly via
	// enqueueLocal.
	queue []func()

	// extMu guards extQueue, the landing area for callbacks submitted
	// from any goroutine (Call, step-driver resumptions, worker-thread
	// file opens). Each iteration drains extQueue into queue.
	extMu    sync.Mutex
	extQueue []func()

	readHandlers  map[int]Handler
	writeHandlers map[int]Handler

	timers   timerHeap
	timerSeq uint64
}

// New constructs a Reactor. The poller and wake mechanism are selected at
// compile time per OS (epoll+eventfd on Linux, kqueue+pipe on Darwin,
// WSAPoll+loopback-socketpair on Windows).
func New(opts ...Option) (*Reactor, error) {
	cfg := resolveOptions(opts)

	r := &Reactor{
		cfg:           cfg,
		poll:          newPoller(),
		readHandlers:  make(map[int]Handler),
		writeHandlers: make(map[int]Handler),
	}

	if err := r.poll.init(); err != nil {
		return nil, fmt.Errorf("reactor: init poller: %w", err)
	}

	wr, ww, err := newWakeFD()
	if err != nil {
		_ = r.poll.close()
		return nil, fmt.Errorf("reactor: init wake fd: %w", err)
	}
	r.wakeR, r.wakeW = wr, ww
	if err := r.poll.add(r.wakeR, EventRead); err != nil {
		closeWakeFD(r.wakeR, r.wakeW)
		_ = r.poll.close()
		return nil, fmt.Errorf("reactor: register wake fd: %w", err)
	}
	r.wakeOn = true

	return r, nil
}

// Call enqueues a zero-argument closure for later execution on the
// reactor's own goroutine. It is safe to call from any goroutine; fn is
// never invoked inline, even when Call happens to run on the reactor
// goroutine itself.
func (r *Reactor) Call(fn func()) {
	r.submitExternal(fn)
}

// submitExternal appends fn to the cross-goroutine queue and, if the
// reactor might be blocked in a poll wait, signals the wake fd so it
// notices the new work promptly instead of waiting out the poll quantum.
func (r *Reactor) submitExternal(fn func()) {
	r.extMu.Lock()
	r.extQueue = append(r.extQueue, fn)
	r.extMu.Unlock()
	if r.wakeOn {
		_ = signalWakeFD(r.wakeW)
	}
}

// enqueueLocal appends fn directly to the reactor-goroutine FIFO. Callers
// must already be executing on the reactor goroutine.
func (r *Reactor) enqueueLocal(fn func()) {
	r.queue = append(r.queue, fn)
}

// CallLater schedules fn to run at least after delay has elapsed. There is
// no first-class cancellation: a scheduled timer always fires. A caller
// that needs to stop caring about the result should guard the callback
// with its own flag checked at invocation time, not ask the reactor to
// forget the timer.
func (r *Reactor) CallLater(delay time.Duration, fn func()) {
	r.timerSeq++
	e := &timerEntry{
		deadline: time.Now().Add(delay),
		seq:      r.timerSeq,
		fn:       fn,
	}
	heap.Push(&r.timers, e)
	if r.wakeOn {
		_ = signalWakeFD(r.wakeW)
	}
}

// RegisterRead installs h as the reader for h.Fd(). Fails with
// *ReactorError if another handler already occupies that fd's read slot.
func (r *Reactor) RegisterRead(h Handler) error {
	return r.register(r.readHandlers, h, "read")
}

// RegisterWrite installs h as the writer for h.Fd().
func (r *Reactor) RegisterWrite(h Handler) error {
	return r.register(r.writeHandlers, h, "write")
}

func (r *Reactor) register(m map[int]Handler, h Handler, dir string) error {
	fd := h.Fd()
	if _, exists := m[fd]; exists {
		return &ReactorError{Op: "register " + dir + ": fd already claimed", Fd: fd}
	}
	if r.cfg.maxFDs > 0 && len(r.readHandlers)+len(r.writeHandlers) >= r.cfg.maxFDs {
		return &ReactorError{Op: "register " + dir + ": max fds exceeded", Fd: fd}
	}
	m[fd] = h
	if err := r.syncInterest(fd); err != nil {
		delete(m, fd)
		return &ReactorError{Op: "register " + dir, Fd: fd, Err: err}
	}
	return nil
}

// UnregisterRead removes h from the read set, if present. Idempotent.
func (r *Reactor) UnregisterRead(h Handler) {
	r.unregister(r.readHandlers, h)
}

// UnregisterWrite removes h from the write set, if present. Idempotent.
func (r *Reactor) UnregisterWrite(h Handler) {
	r.unregister(r.writeHandlers, h)
}

func (r *Reactor) unregister(m map[int]Handler, h Handler) {
	fd := h.Fd()
	if cur, ok := m[fd]; !ok || cur != h {
		return
	}
	delete(m, fd)
	_ = r.syncInterest(fd)
}

// interest reports the combined read/write interest currently registered
// for fd.
func (r *Reactor) interest(fd int) (IOEvents, bool) {
	var ev IOEvents
	_, rok := r.readHandlers[fd]
	_, wok := r.writeHandlers[fd]
	if rok {
		ev |= EventRead
	}
	if wok {
		ev |= EventWrite
	}
	return ev, rok || wok
}

// syncInterest pushes fd's current combined interest mask to the poller,
// adding, modifying, or removing its registration as needed.
func (r *Reactor) syncInterest(fd int) error {
	ev, hasInterest := r.interest(fd)
	if !hasInterest {
		return r.poll.remove(fd)
	}
	if err := r.poll.modify(fd, ev); err != nil {
		return r.poll.add(fd, ev)
	}
	return nil
}

// Run executes the reactor's main loop until Stop is called or a fatal
// poll error occurs. It returns ErrAlreadyRunning if called while already
// running.
func (r *Reactor) Run() error {
	if !r.state.cas(stateAwake, stateRunning) {
		return ErrAlreadyRunning
	}
	defer r.state.store(stateTerminated)

	for r.state.load() == stateRunning {
		r.drainExternal()
		r.drainQueue()

		if r.state.load() != stateRunning {
			break
		}

		timeout := r.computeTimeout()
		ready, err := r.poll.wait(timeout)
		if err != nil {
			if isEINTR(err) {
				continue
			}
			if isEBADF(err) {
				r.pruneBadFDs()
				continue
			}
			r.state.store(stateTerminating)
			return &ReactorError{Op: "poll", Err: err}
		}

		r.dispatchReady(ready)
		r.fireTimers()
	}

	return nil
}

// drainExternal moves every callback submitted from other goroutines into
// the local FIFO, and drains the wake fd if it was signaled.
func (r *Reactor) drainExternal() {
	r.extMu.Lock()
	pending := r.extQueue
	r.extQueue = nil
	r.extMu.Unlock()
	r.queue = append(r.queue, pending...)
	if len(pending) > 0 {
		drainWakeFD(r.wakeR)
	}
}

// drainQueue runs every callback present in the FIFO at the moment it
// starts, per iteration. Callbacks enqueued during the drain (including
// by callbacks this drain runs) are left for the next iteration, bounding
// per-iteration work and preserving fairness.
func (r *Reactor) drainQueue() {
	pending := r.queue
	r.queue = nil
	for _, fn := range pending {
		r.runCallback(fn)
	}
}

func (r *Reactor) runCallback(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.cfg.logger.Err().Any("panic", rec).Log("callback panicked")
		}
	}()
	fn()
}

// computeTimeout derives the poll wait duration from the earliest pending
// timer, capped at the configured poll quantum.
func (r *Reactor) computeTimeout() time.Duration {
	deadline, ok := r.timers.nextDeadline()
	if !ok {
		return r.cfg.pollQuantum
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	if d > r.cfg.pollQuantum {
		return r.cfg.pollQuantum
	}
	return d
}

// dispatchReady enqueues OnReadable(-1)/OnWritable(-1) for each fd the
// poller reported ready, and drains the wake fd when it is among them.
func (r *Reactor) dispatchReady(ready []readyFD) {
	for _, rf := range ready {
		if rf.fd == r.wakeR {
			drainWakeFD(r.wakeR)
			continue
		}
		if rf.events&(EventRead|EventHangup|EventError) != 0 {
			if h, ok := r.readHandlers[rf.fd]; ok {
				h := h
				if rf.events&EventError != 0 {
					r.enqueueLocal(func() { h.OnError(&ReactorError{Op: "poll: error condition", Fd: rf.fd}) })
				} else {
					r.enqueueLocal(func() { h.OnReadable(-1) })
				}
			}
		}
		if rf.events&EventWrite != 0 {
			if h, ok := r.writeHandlers[rf.fd]; ok {
				h := h
				r.enqueueLocal(func() { h.OnWritable(-1) })
			}
		}
	}
}

// fireTimers enqueues every timer callback whose deadline has passed.
func (r *Reactor) fireTimers() {
	for _, e := range r.timers.peekReady(time.Now()) {
		e := e
		r.enqueueLocal(e.fn)
	}
}

// pruneBadFDs probes every fd registered in either direction's map
// (union, not a nonexistent combined field) and removes any that the OS
// now considers invalid from both maps, delivering the error to that fd's
// handler(s). This is the corrected form of the source reactor's
// set-difference pruning bug: removal is keyed by fd, not by subtracting
// transport objects from a collection.
func (r *Reactor) pruneBadFDs() {
	seen := make(map[int]struct{}, len(r.readHandlers)+len(r.writeHandlers))
	for fd := range r.readHandlers {
		seen[fd] = struct{}{}
	}
	for fd := range r.writeHandlers {
		seen[fd] = struct{}{}
	}
	for fd := range seen {
		if IsValidFD(fd) {
			continue
		}
		rh, rok := r.readHandlers[fd]
		wh, wok := r.writeHandlers[fd]
		delete(r.readHandlers, fd)
		delete(r.writeHandlers, fd)
		_ = r.poll.remove(fd)
		err := &ReactorError{Op: "poll: bad fd pruned", Fd: fd}
		if rok {
			rh := rh
			r.enqueueLocal(func() { rh.OnError(err) })
		}
		if wok && (!rok || wh != rh) {
			wh := wh
			r.enqueueLocal(func() { wh.OnError(err) })
		}
	}
}

// Stop requests that the main loop exit after completing its current
// iteration. Safe to call from any goroutine.
func (r *Reactor) Stop() {
	r.state.cas(stateRunning, stateTerminating)
	if r.wakeOn {
		_ = signalWakeFD(r.wakeW)
	}
}

// Close releases the poller and wake fd. The reactor must not be running;
// Close returns ErrAlreadyRunning if it is.
func (r *Reactor) Close() error {
	if r.state.load() == stateRunning {
		return ErrAlreadyRunning
	}
	closeWakeFD(r.wakeR, r.wakeW)
	return r.poll.close()
}
