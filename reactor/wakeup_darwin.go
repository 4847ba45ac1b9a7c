//go:build darwin

package reactor

import "golang.org/x/sys/unix"

// newWakeFD creates a self-pipe used to interrupt a blocked kqueue poller
// from another goroutine. kqueue has no eventfd equivalent, so a
// non-blocking pipe plays the same role.
func newWakeFD() (readFD, writeFD int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	if err := unix.SetNonblock(fds[0], true); err != nil {
		closeWakeFD(fds[0], fds[1])
		return -1, -1, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		closeWakeFD(fds[0], fds[1])
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

func signalWakeFD(writeFD int) error {
	_, err := unix.Write(writeFD, []byte{1})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func drainWakeFD(readFD int) {
	var buf [64]byte
	for {
		if _, err := unix.Read(readFD, buf[:]); err != nil {
			return
		}
	}
}

func closeWakeFD(readFD, writeFD int) {
	_ = unix.Close(readFD)
	if writeFD != readFD {
		_ = unix.Close(writeFD)
	}
}
