package transport

import "github.com/pombreda/microactor/reactor"

// Duplex composes a readable input transport and a writable output
// transport into a single readable+writable handle. Grounded on
// original_source/microactor/utils/transports.py's DuplexStreamTransport.
type Duplex struct {
	r   *reactor.Reactor
	in  Transport
	out Transport
}

// NewDuplex pairs in (used for Read) with out (used for Write/Flush).
func NewDuplex(r *reactor.Reactor, in, out Transport) *Duplex {
	return &Duplex{r: r, in: in, out: out}
}

func (d *Duplex) Fileno() int { return d.in.Fileno() }

// Properties reports buffered only if both sides do; readable/writable
// are unconditionally true, since a Duplex exists specifically to pair a
// readable side with a writable one.
func (d *Duplex) Properties() Properties {
	return Properties{
		Readable: true,
		Writable: true,
		Buffered: d.in.Properties().Buffered && d.out.Properties().Buffered,
	}
}

func (d *Duplex) Read(count int) *reactor.Deferred[[]byte] { return d.in.Read(count) }

func (d *Duplex) Write(data []byte) *reactor.Deferred[struct{}] { return d.out.Write(data) }

// Flush forwards to the output side if it supports one.
func (d *Duplex) Flush() *reactor.Deferred[struct{}] {
	if f, ok := d.out.(interface{ Flush() *reactor.Deferred[struct{}] }); ok {
		return f.Flush()
	}
	out := reactor.NewDeferred[struct{}](d.r)
	out.Set(struct{}{})
	return out
}

func (d *Duplex) Detach() {
	d.in.Detach()
	d.out.Detach()
}

// Close closes both sides. If the input side fails to close, the output
// side is still closed before the error is surfaced (errors aggregated
// per §7, first error wins).
func (d *Duplex) Close() *reactor.Deferred[struct{}] {
	return reactor.GoTyped(d.r, func(y *reactor.Yield) (struct{}, error) {
		_, inErr := reactor.Await(y, d.in.Close())
		_, outErr := reactor.Await(y, d.out.Close())
		if inErr != nil {
			return struct{}{}, inErr
		}
		if outErr != nil {
			return struct{}{}, outErr
		}
		return struct{}{}, nil
	})
}
