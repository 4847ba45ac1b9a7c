//go:build linux || darwin

package reactor

import "golang.org/x/sys/unix"

// CloseFD closes a file descriptor. Exported so transport implementations
// can release the fds they register with a Reactor.
func CloseFD(fd int) error {
	return unix.Close(fd)
}

// ReadFD reads from a file descriptor, retrying on EINTR. Transports call
// this (rather than os.File.Read) so non-blocking semantics are uniform
// across platforms.
func ReadFD(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// WriteFD writes to a file descriptor, retrying on EINTR.
func WriteFD(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Write(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// SetNonblocking puts fd into non-blocking mode, required before
// registering it with a Reactor so reads/writes never block the single
// reactor-driven thread of control.
func SetNonblocking(fd int) error {
	return unix.SetNonblock(fd, true)
}

// IsWouldBlock reports whether err indicates the fd had no data/room
// available, i.e. the readiness notification was stale or the fd is
// level-triggered and shared.
func IsWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// IsValidFD reports whether fd still refers to an open descriptor, used by
// the reactor's bad-fd pruning path when a poller reports EBADF.
func IsValidFD(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func isEINTR(err error) bool { return err == unix.EINTR }
func isEBADF(err error) bool { return err == unix.EBADF }
