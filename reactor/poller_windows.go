//go:build windows

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// wsaPoller implements poller using WSAPoll, Windows' readiness-based
// multiplexing call. This intentionally does not use IOCP: per the
// package's scope, completion-based semantics are out of scope even on
// Windows, so a socket-readiness poller is used uniformly across
// platforms. WSAPoll only supports sockets, matching the scope of this
// package.
type wsaPoller struct {
	mu       sync.Mutex
	interest map[int]IOEvents
}

func newPoller() poller {
	return &wsaPoller{interest: make(map[int]IOEvents)}
}

func (p *wsaPoller) init() error  { return nil }
func (p *wsaPoller) close() error { return nil }

func (p *wsaPoller) add(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interest[fd] = events
	return nil
}

func (p *wsaPoller) modify(fd int, events IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interest[fd] = events
	return nil
}

func (p *wsaPoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.interest, fd)
	return nil
}

func toPollEvents(ev IOEvents) int16 {
	var out int16
	if ev&EventRead != 0 {
		out |= windows.POLLRDNORM
	}
	if ev&EventWrite != 0 {
		out |= windows.POLLWRNORM
	}
	return out
}

func fromPollEvents(ev int16) IOEvents {
	var out IOEvents
	if ev&(windows.POLLRDNORM|windows.POLLHUP) != 0 {
		out |= EventRead
	}
	if ev&windows.POLLWRNORM != 0 {
		out |= EventWrite
	}
	if ev&windows.POLLERR != 0 {
		out |= EventError
	}
	if ev&windows.POLLHUP != 0 {
		out |= EventHangup
	}
	return out
}

func (p *wsaPoller) wait(timeout time.Duration) ([]readyFD, error) {
	p.mu.Lock()
	fds := make([]windows.WSAPollFd, 0, len(p.interest))
	for fd, events := range p.interest {
		fds = append(fds, windows.WSAPollFd{Fd: windows.Handle(fd), Events: toPollEvents(events)})
	}
	p.mu.Unlock()

	if len(fds) == 0 {
		// Nothing registered; emulate blocking for timeout so callers that
		// rely on wait() to pace the loop still get a quantum-sized sleep.
		if timeout > 0 {
			time.Sleep(timeout)
		}
		return nil, nil
	}

	ms := int32(-1)
	if timeout >= 0 {
		ms = int32(timeout / time.Millisecond)
	}
	n, err := windows.WSAPoll(fds, ms)
	if err != nil {
		return nil, err
	}
	out := make([]readyFD, 0, n)
	for _, f := range fds {
		if f.REvents == 0 {
			continue
		}
		out = append(out, readyFD{fd: int(f.Fd), events: fromPollEvents(f.REvents)})
	}
	return out, nil
}
