//go:build linux

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller implements poller using Linux epoll.
type epollPoller struct {
	mu       sync.Mutex
	epfd     int
	interest map[int]IOEvents
	eventBuf [128]unix.EpollEvent
}

func newPoller() poller {
	return &epollPoller{interest: make(map[int]IOEvents)}
}

func (p *epollPoller) init() error {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = fd
	return nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}

func toEpollEvents(ev IOEvents) uint32 {
	var out uint32
	if ev&EventRead != 0 {
		out |= unix.EPOLLIN
	}
	if ev&EventWrite != 0 {
		out |= unix.EPOLLOUT
	}
	return out
}

func fromEpollEvents(ev uint32) IOEvents {
	var out IOEvents
	if ev&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		out |= EventRead
	}
	if ev&unix.EPOLLOUT != 0 {
		out |= EventWrite
	}
	if ev&unix.EPOLLERR != 0 {
		out |= EventError
	}
	if ev&unix.EPOLLHUP != 0 {
		out |= EventHangup
	}
	return out
}

func (p *epollPoller) add(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := &unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return err
	}
	p.interest[fd] = events
	return nil
}

func (p *epollPoller) modify(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := &unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return err
	}
	p.interest[fd] = events
	return nil
}

func (p *epollPoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.interest, fd)
	// EpollCtl with a nil event is accepted by the kernel for DEL, but older
	// kernels require a non-nil pointer even though it is ignored.
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{})
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *epollPoller) wait(timeout time.Duration) ([]readyFD, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], ms)
	if err != nil {
		return nil, err
	}
	out := make([]readyFD, 0, n)
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		out = append(out, readyFD{fd: int(ev.Fd), events: fromEpollEvents(ev.Events)})
	}
	return out, nil
}
