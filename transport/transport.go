// Package transport implements the byte-stream transport contract and its
// adapter stack (buffering, codec translation, length-bounded substreams,
// and length-prefixed framing) on top of a [reactor.Reactor].
package transport

import "github.com/pombreda/microactor/reactor"

// Properties is the fixed capability set a Transport reports, replacing a
// loose string-keyed capability bag with a small typed struct plus an
// Extra map for anything outside the three recognized keys. Core
// components only ever consult Readable, Writable, and Buffered.
type Properties struct {
	Readable bool
	Writable bool
	Buffered bool
	Extra    map[string]any
}

// Transport is the uniform asynchronous byte-stream handle implemented by
// Base and by the Buffered, Bound and Duplex adapters. Codec (string Read
// and Write) and Packet (Send and Recv) do not implement it.
type Transport interface {
	// Read returns up to count bytes. A zero-length result (with a nil
	// error) signals EOF. count == -1 means "read all available without
	// blocking."
	Read(count int) *reactor.Deferred[[]byte]
	// Write resolves once every byte of data has been handed to the OS
	// (or, for adapters, to the next layer down).
	Write(data []byte) *reactor.Deferred[struct{}]
	// Close resolves outstanding waiters with ErrTransportClosed,
	// releases any owned resources, and is idempotent.
	Close() *reactor.Deferred[struct{}]
	// Detach releases this transport's registration with the reactor
	// without closing the underlying fd.
	Detach()
	// Fileno returns the underlying file descriptor.
	Fileno() int
	// Properties reports this transport's capabilities.
	Properties() Properties
}
