//go:build linux

package reactor

import "golang.org/x/sys/unix"

// newWakeFD creates a Linux eventfd used to interrupt a blocked poller
// from another goroutine. The same fd is used for both reading and
// writing.
func newWakeFD() (readFD, writeFD int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

func signalWakeFD(writeFD int) error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(writeFD, buf[:])
	if err == unix.EAGAIN {
		// Already has a pending wake-up; nothing more to do.
		return nil
	}
	return err
}

func drainWakeFD(readFD int) {
	var buf [8]byte
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
