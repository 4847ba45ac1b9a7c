package transport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pombreda/microactor/reactor"
)

// newTestReactor returns a running Reactor for the duration of the test,
// stopped and closed automatically on cleanup.
func newTestReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r, err := reactor.New(reactor.WithPollQuantum(10 * time.Millisecond))
	require.NoError(t, err)
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run() }()
	t.Cleanup(func() {
		r.Stop()
		require.NoError(t, <-errCh)
		require.NoError(t, r.Close())
	})
	return r
}

// await blocks the test goroutine on d, failing the test if it does not
// resolve within the timeout.
func await[T any](t *testing.T, d *reactor.Deferred[T]) (T, error) {
	t.Helper()
	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	d.Subscribe(func(v T, err error) { ch <- outcome{value: v, err: err} })
	select {
	case o := <-ch:
		return o.value, o.err
	case <-time.After(5 * time.Second):
		var zero T
		t.Fatal("deferred did not resolve in time")
		return zero, nil
	}
}

// memTransport is an in-memory Transport backed by a fixed sequence of
// chunks, used to drive BufferedTransport/PacketTransport/etc. through
// specific chunk boundaries deterministically, independent of any real
// fd or poller.
type memTransport struct {
	r       *reactor.Reactor
	chunks   [][]byte
	idx      int
	pos      int
	written  bytes.Buffer
	closed   bool
	detached bool
	props    Properties
}

func newMemTransport(r *reactor.Reactor, chunks ...[]byte) *memTransport {
	return &memTransport{r: r, chunks: chunks, props: Properties{Readable: true, Writable: true}}
}

// Read honors count, returning at most one underlying chunk's worth per
// call (never spanning a chunk boundary), the way a real non-blocking
// socket read returns at most what a single OS buffer holds.
func (m *memTransport) Read(count int) *reactor.Deferred[[]byte] {
	d := reactor.NewDeferred[[]byte](m.r)
	if m.closed {
		d.Throw(ErrTransportClosed)
		return d
	}
	for m.idx < len(m.chunks) && m.pos >= len(m.chunks[m.idx]) {
		m.idx++
		m.pos = 0
	}
	if m.idx >= len(m.chunks) {
		d.Set(nil)
		return d
	}
	remaining := m.chunks[m.idx][m.pos:]
	n := len(remaining)
	if count >= 0 && count < n {
		n = count
	}
	data := append([]byte(nil), remaining[:n]...)
	m.pos += n
	d.Set(data)
	return d
}

func (m *memTransport) Write(data []byte) *reactor.Deferred[struct{}] {
	d := reactor.NewDeferred[struct{}](m.r)
	if m.closed {
		d.Throw(ErrTransportClosed)
		return d
	}
	m.written.Write(data)
	d.Set(struct{}{})
	return d
}

func (m *memTransport) Close() *reactor.Deferred[struct{}] {
	d := reactor.NewDeferred[struct{}](m.r)
	m.closed = true
	d.Set(struct{}{})
	return d
}

func (m *memTransport) Detach()                { m.detached = true }
func (m *memTransport) Fileno() int            { return -1 }
func (m *memTransport) Properties() Properties { return m.props }
