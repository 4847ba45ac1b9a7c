package transport

import (
	"fmt"
	"net"
	"os"

	"github.com/pombreda/microactor/reactor"
)

// fileConn is implemented by every concrete net.Conn in the standard
// library (*net.TCPConn, *net.UnixConn, ...). File dup's the underlying
// fd into a new *os.File and detaches it from the Go runtime's own
// netpoller, which is required before the fd can be driven directly by
// this package's readiness poller instead.
type fileConn interface {
	File() (*os.File, error)
}

// NewConn wraps an already-connected net.Conn (e.g. accepted from a
// net.Listener) as a Transport over the duplicated fd, set non-blocking
// and bound to r; like every Base, it registers with r on its first Read
// or Write. The original conn is closed once its fd has been duplicated,
// since the Transport now owns the duplicate.
func NewConn(r *reactor.Reactor, c net.Conn) (Transport, error) {
	fc, ok := c.(fileConn)
	if !ok {
		return nil, fmt.Errorf("transport: %T does not support File()", c)
	}
	f, err := fc.File()
	if err != nil {
		return nil, err
	}
	fd := int(f.Fd())
	_ = c.Close()
	if err := reactor.SetNonblocking(fd); err != nil {
		_ = f.Close()
		return nil, err
	}
	// f is captured by the closure so it (and the finalizer that will
	// eventually close its fd) stays alive for as long as the Transport
	// does; release goes through f.Close(), not a raw CloseFD, so the
	// finalizer is disarmed correctly.
	return NewBaseWithCloser(r, fd, Properties{Readable: true, Writable: true}, f.Close), nil
}
