//go:build windows

package reactor

import (
	"net"

	"golang.org/x/sys/windows"
)

// syscallConn is the subset of syscall.RawConn used to recover a socket
// handle from a net.Conn.
type syscallConn interface {
	SyscallConn() (syscallRawConn, error)
}

type syscallRawConn interface {
	Control(f func(fd uintptr)) error
}

// socketHandle extracts the underlying socket handle from a net.Conn
// backed by a TCP connection, for use with WSAPoll and as the Reactor's
// notion of "fd" on Windows.
func socketHandle(c net.Conn) windows.Handle {
	sc, ok := c.(syscallConn)
	if !ok {
		return windows.InvalidHandle
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return windows.InvalidHandle
	}
	var handle windows.Handle
	_ = raw.Control(func(fd uintptr) {
		handle = windows.Handle(fd)
	})
	return handle
}

// CloseFD closes a socket handle on Windows.
func CloseFD(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}

// ReadFD reads from a socket handle on Windows.
func ReadFD(fd int, buf []byte) (int, error) {
	return windows.Read(windows.Handle(fd), buf)
}

// WriteFD writes to a socket handle on Windows.
func WriteFD(fd int, buf []byte) (int, error) {
	return windows.Write(windows.Handle(fd), buf)
}

// SetNonblocking is a no-op on Windows sockets used with WSAPoll: Go's
// net package already creates them non-blocking internally, and the raw
// handle recovered via socketHandle inherits that mode.
func SetNonblocking(fd int) error { return nil }

// IsWouldBlock reports whether err indicates the socket had no data/room
// available.
func IsWouldBlock(err error) bool {
	return err == windows.WSAEWOULDBLOCK
}

// IsValidFD reports whether fd still refers to an open handle, used by
// the reactor's bad-fd pruning path.
func IsValidFD(fd int) bool {
	var mode uint32
	err := windows.GetConsoleMode(windows.Handle(fd), &mode)
	if err == nil {
		return true
	}
	// Not a console handle; fall back to checking the handle is not the
	// invalid sentinel. A more thorough check would use NtQueryObject, but
	// that is unavailable via golang.org/x/sys/windows.
	return windows.Handle(fd) != windows.InvalidHandle
}

func isEINTR(err error) bool { return err == windows.WSAEINTR }
func isEBADF(err error) bool { return err == windows.WSAEBADF || err == windows.ERROR_INVALID_HANDLE }
