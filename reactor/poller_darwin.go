//go:build darwin

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller implements poller using Darwin/BSD kqueue.
type kqueuePoller struct {
	mu       sync.Mutex
	kq       int
	interest map[int]IOEvents
	eventBuf [128]unix.Kevent_t
}

func newPoller() poller {
	return &kqueuePoller{interest: make(map[int]IOEvents)}
}

func (p *kqueuePoller) init() error {
	fd, err := unix.Kqueue()
	if err != nil {
		return err
	}
	p.kq = fd
	return nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

// apply submits the kevent changes needed to move fd's registration from
// "before" to "after".
func (p *kqueuePoller) apply(fd int, before, after IOEvents) error {
	var changes []unix.Kevent_t
	addFilter := func(filter int16, flags uint16) {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  flags,
		})
	}
	if after&EventRead != 0 && before&EventRead == 0 {
		addFilter(unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
	} else if after&EventRead == 0 && before&EventRead != 0 {
		addFilter(unix.EVFILT_READ, unix.EV_DELETE)
	}
	if after&EventWrite != 0 && before&EventWrite == 0 {
		addFilter(unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE)
	} else if after&EventWrite == 0 && before&EventWrite != 0 {
		addFilter(unix.EVFILT_WRITE, unix.EV_DELETE)
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) add(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.apply(fd, 0, events); err != nil {
		return err
	}
	p.interest[fd] = events
	return nil
}

func (p *kqueuePoller) modify(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.interest[fd]
	if err := p.apply(fd, before, events); err != nil {
		return err
	}
	p.interest[fd] = events
	return nil
}

func (p *kqueuePoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	before, ok := p.interest[fd]
	if !ok {
		return nil
	}
	delete(p.interest, fd)
	return p.apply(fd, before, 0)
}

func (p *kqueuePoller) wait(timeout time.Duration) ([]readyFD, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		return nil, err
	}
	byFD := make(map[int]IOEvents, n)
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		fd := int(ev.Ident)
		switch ev.Filter {
		case unix.EVFILT_READ:
			byFD[fd] |= EventRead
		case unix.EVFILT_WRITE:
			byFD[fd] |= EventWrite
		}
		if ev.Flags&unix.EV_EOF != 0 {
			byFD[fd] |= EventHangup
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			byFD[fd] |= EventError
		}
	}
	out := make([]readyFD, 0, len(byFD))
	for fd, events := range byFD {
		out = append(out, readyFD{fd: fd, events: events})
	}
	return out, nil
}
