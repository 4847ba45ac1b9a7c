// Package reactor implements a single-threaded cooperative I/O event loop.
//
// A Reactor multiplexes readiness notifications for registered file
// descriptors and dispatches callbacks through a FIFO queue. Exactly one
// transport may hold the read interest on an fd and exactly one may hold
// the write interest; registering a second for an already-claimed
// fd/direction pair is a configuration error.
//
// # Deferred values
//
// [Deferred] is a one-shot container for a value or an error. It resolves
// at most once; subsequent resolutions are programming errors. Subscribers
// are always invoked through the reactor's callback queue, never inline,
// so that resolving a long subscriber chain cannot recurse the call stack.
//
// # Step-driven computations
//
// [Go] runs a sequential producer function to completion across any
// number of awaited Deferred values, without ever running two producers'
// user code concurrently with the reactor loop. See the package-level
// Go and Yield documentation for the mechanism.
//
// # Platform support
//
// Readiness multiplexing is implemented with epoll on Linux, kqueue on
// Darwin, and WSAPoll on Windows. All three report only readiness,
// matching this package's non-goal of IOCP-style completion semantics.
package reactor
