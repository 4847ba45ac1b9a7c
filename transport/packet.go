package transport

import (
	"encoding/binary"

	"github.com/pombreda/microactor/reactor"
)

const packetHeaderSize = 4

// Packet implements length-prefixed message framing over a buffered inner
// transport: a 4-byte unsigned big-endian length header followed by
// exactly that many payload bytes. Grounded on
// original_source/microactor/utils/transports.py's PacketTransport.
type Packet struct {
	r         *reactor.Reactor
	inner     *Buffered
	maxLength int
}

// NewPacket wraps transport for framing. If transport is not a *Buffered,
// it is auto-wrapped in a Buffered first, matching §4.7's construction
// rule; Properties().Buffered is not consulted, so any other transport is
// wrapped even if it reports itself buffered. maxLength <= 0 disables the
// PacketTooLong check.
func NewPacket(r *reactor.Reactor, inner Transport, maxLength int) *Packet {
	buffered, ok := inner.(*Buffered)
	if !ok {
		buffered = NewBuffered(r, inner, 0, 0)
	}
	return &Packet{r: r, inner: buffered, maxLength: maxLength}
}

func (p *Packet) Fileno() int { return p.inner.Fileno() }

func (p *Packet) Properties() Properties { return p.inner.Properties() }

func (p *Packet) Detach() { p.inner.Detach() }

func (p *Packet) Flush() *reactor.Deferred[struct{}] { return p.inner.Flush() }

func (p *Packet) Close() *reactor.Deferred[struct{}] { return p.inner.Close() }

// Recv reads exactly one frame: a 4-byte header naming the payload
// length, then that many payload bytes. State machine per §4.7:
// await_header -> await_body(L) -> complete; EOF in either phase
// propagates as an *EndOfStream.
func (p *Packet) Recv() *reactor.Deferred[[]byte] {
	return reactor.GoTyped(p.r, func(y *reactor.Yield) ([]byte, error) {
		header, err := reactor.Await(y, p.inner.ReadExactly(packetHeaderSize, true))
		if err != nil {
			return nil, err
		}
		length := int(binary.BigEndian.Uint32(header))
		if p.maxLength > 0 && length > p.maxLength {
			return nil, &PacketTooLong{Length: length, MaxLength: p.maxLength}
		}
		return reactor.Await(y, p.inner.ReadExactly(length, true))
	})
}

// Send emits the header then the payload, flushing afterward unless
// flush is false. From the receiver's perspective a send is all-or-
// nothing: a partial write still lands bytes on the wire, but framing
// prevents the peer from advancing past the declared length until the
// rest arrives.
func (p *Packet) Send(data []byte, flush bool) *reactor.Deferred[struct{}] {
	return reactor.GoTyped(p.r, func(y *reactor.Yield) (struct{}, error) {
		var header [packetHeaderSize]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(data)))
		if _, err := reactor.Await(y, p.inner.Write(header[:])); err != nil {
			return struct{}{}, err
		}
		if _, err := reactor.Await(y, p.inner.Write(data)); err != nil {
			return struct{}{}, err
		}
		if flush {
			return reactor.Await(y, p.inner.Flush())
		}
		return struct{}{}, nil
	})
}
