package transport

import "github.com/pombreda/microactor/reactor"

// defaultReadChunk is the buffer size used for a count == -1 ("read all
// available without blocking") request.
const defaultReadChunk = 65536

type pendingRead struct {
	count int
	d     *reactor.Deferred[[]byte]
}

type pendingWrite struct {
	data   []byte
	offset int
	d      *reactor.Deferred[struct{}]
}

// Base is the embeddable implementation of the Transport contract's fd
// registration, pending-waiter tracking, and close semantics against a
// Reactor. It is the bottom layer every adapter in this package ultimately
// wraps; a concrete base transport (file, pipe, socket) embeds it and only
// needs to supply the fd and its capabilities.
//
// Base registers with the reactor lazily: a fd starts out with neither
// direction registered (unregistered state), moves to read_pending on the
// first Read call, and back to unregistered once that read's readiness
// callback completes — exactly the cycle spec'd for the bottom transport
// layer.
type Base struct {
	r       *reactor.Reactor
	fd      int
	props   Properties
	onClose func() error

	closed bool
	rp     *pendingRead
	wp     *pendingWrite
}

// NewBase wraps fd (already set non-blocking by the caller) for use with r.
// Close releases fd via reactor.CloseFD.
func NewBase(r *reactor.Reactor, fd int, props Properties) *Base {
	return &Base{r: r, fd: fd, props: props, onClose: func() error { return reactor.CloseFD(fd) }}
}

// NewBaseWithCloser is like NewBase, but delegates fd release to close
// instead of reactor.CloseFD. Used when fd was obtained by duplicating
// another owner's descriptor (e.g. NewConn's net.Conn.File()), where the
// duplicate must be released through the os.File that keeps it alive and
// holds its runtime finalizer.
func NewBaseWithCloser(r *reactor.Reactor, fd int, props Properties, close func() error) *Base {
	return &Base{r: r, fd: fd, props: props, onClose: close}
}

func (b *Base) Fd() int                 { return b.fd }
func (b *Base) Fileno() int             { return b.fd }
func (b *Base) Properties() Properties  { return b.props }

// Read implements Transport.Read by registering read interest and waiting
// for the reactor's readiness callback to perform the actual I/O.
func (b *Base) Read(count int) *reactor.Deferred[[]byte] {
	d := reactor.NewDeferred[[]byte](b.r)
	if b.closed {
		d.Throw(ErrTransportClosed)
		return d
	}
	if b.rp != nil {
		panic(&reactor.ProgrammingError{Message: "concurrent Read on the same transport"})
	}
	b.rp = &pendingRead{count: count, d: d}
	if err := b.r.RegisterRead(b); err != nil {
		b.rp = nil
		d.Throw(err)
	}
	return d
}

// Write implements Transport.Write by registering write interest and
// waiting for readiness to drain data to the fd.
func (b *Base) Write(data []byte) *reactor.Deferred[struct{}] {
	d := reactor.NewDeferred[struct{}](b.r)
	if b.closed {
		d.Throw(ErrTransportClosed)
		return d
	}
	if b.wp != nil {
		panic(&reactor.ProgrammingError{Message: "concurrent Write on the same transport"})
	}
	if len(data) == 0 {
		d.Set(struct{}{})
		return d
	}
	b.wp = &pendingWrite{data: data, d: d}
	if err := b.r.RegisterWrite(b); err != nil {
		b.wp = nil
		d.Throw(err)
	}
	return d
}

// OnReadable performs one non-blocking read attempt and resolves the
// pending reader, or leaves it registered if the fd was not actually
// ready yet (spurious wakeups are possible with level-triggered pollers).
func (b *Base) OnReadable(int) {
	rp := b.rp
	if rp == nil {
		return
	}
	count := rp.count
	if count < 0 {
		count = defaultReadChunk
	}
	buf := make([]byte, count)
	n, err := reactor.ReadFD(b.fd, buf)
	if err != nil {
		if reactor.IsWouldBlock(err) {
			return
		}
		b.rp = nil
		b.r.UnregisterRead(b)
		rp.d.Throw(err)
		return
	}
	b.rp = nil
	b.r.UnregisterRead(b)
	rp.d.Set(buf[:n])
}

// OnWritable drains as much of the pending write's buffer as the OS will
// accept in one non-blocking call, resolving once it is all written.
func (b *Base) OnWritable(int) {
	wp := b.wp
	if wp == nil {
		return
	}
	n, err := reactor.WriteFD(b.fd, wp.data[wp.offset:])
	if err != nil {
		if reactor.IsWouldBlock(err) {
			return
		}
		b.wp = nil
		b.r.UnregisterWrite(b)
		wp.d.Throw(err)
		return
	}
	wp.offset += n
	if wp.offset < len(wp.data) {
		return
	}
	b.wp = nil
	b.r.UnregisterWrite(b)
	wp.d.Set(struct{}{})
}

// OnError delivers a fatal fd-level error (typically from the reactor's
// bad-fd pruning pass) to whichever operation is currently pending.
func (b *Base) OnError(err error) {
	if rp := b.rp; rp != nil {
		b.rp = nil
		rp.d.Throw(err)
	}
	if wp := b.wp; wp != nil {
		b.wp = nil
		wp.d.Throw(err)
	}
}

// Close releases the fd and resolves any in-flight operations with
// ErrTransportClosed. Idempotent.
func (b *Base) Close() *reactor.Deferred[struct{}] {
	d := reactor.NewDeferred[struct{}](b.r)
	if b.closed {
		d.Set(struct{}{})
		return d
	}
	b.closed = true
	if rp := b.rp; rp != nil {
		b.rp = nil
		b.r.UnregisterRead(b)
		rp.d.Throw(ErrTransportClosed)
	}
	if wp := b.wp; wp != nil {
		b.wp = nil
		b.r.UnregisterWrite(b)
		wp.d.Throw(ErrTransportClosed)
	}
	if err := b.onClose(); err != nil {
		d.Throw(err)
		return d
	}
	d.Set(struct{}{})
	return d
}

// Detach unregisters from the reactor without closing the fd.
func (b *Base) Detach() {
	b.r.UnregisterRead(b)
	b.r.UnregisterWrite(b)
}
