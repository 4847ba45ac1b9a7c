package transport

import (
	"errors"
	"fmt"
)

// ErrTransportClosed is raised by any operation on a closed transport, or
// delivered to waiters that were in flight at close time.
var ErrTransportClosed = errors.New("transport: closed")

// EndOfStream reports that a read_exactly-style operation came up short of
// its target because the inner stream reached EOF, or that a write
// exceeded a bound transport's write quota. It carries whatever partial
// result had already been accumulated.
type EndOfStream struct {
	Partial []byte
	Message string
}

func (e *EndOfStream) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("transport: end of stream: %s", e.Message)
	}
	return fmt.Sprintf("transport: end of stream: got %d bytes", len(e.Partial))
}

// PacketTooLong reports that an incoming frame's declared length exceeded
// the receiver's configured maximum.
type PacketTooLong struct {
	Length, MaxLength int
}

func (e *PacketTooLong) Error() string {
	return fmt.Sprintf("transport: packet length %d exceeds maximum %d", e.Length, e.MaxLength)
}
