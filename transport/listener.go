package transport

import (
	"net"

	"github.com/pombreda/microactor/reactor"
)

// Accept blocks the calling goroutine (not the reactor) on ln.Accept,
// then hands the accepted connection to the reactor via r.Call, resolving
// the returned Deferred with a Transport for it. Intended for a single
// accept loop driven by repeated calls, e.g. from a step-driven producer.
func Accept(r *reactor.Reactor, ln net.Listener) *reactor.Deferred[Transport] {
	out := reactor.NewDeferred[Transport](r)
	go func() {
		c, err := ln.Accept()
		r.Call(func() {
			if err != nil {
				out.Throw(err)
				return
			}
			t, terr := NewConn(r, c)
			if terr != nil {
				_ = c.Close()
				out.Throw(terr)
				return
			}
			out.Set(t)
		})
	}()
	return out
}
