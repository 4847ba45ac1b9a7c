package transport

import "github.com/pombreda/microactor/reactor"

// unboundedQuota marks a Bound side as having no cap, mirroring the
// original's read_length/write_length == None.
const unboundedQuota = -1

// Bound enforces independent read-side and write-side byte quotas
// against an inner transport, letting a length-prefixed sub-stream be
// consumed safely before resuming the outer stream. Grounded on
// original_source/microactor/utils/transports.py's BoundTransport.
type Bound struct {
	r     *reactor.Reactor
	inner Transport

	readRemaining  int
	writeRemaining int

	skipOnClose    bool
	closeUnderlying bool
}

// NewBound wraps inner with the given read/write quotas. A quota of
// unboundedQuota (or any negative value) disables that side's check.
func NewBound(r *reactor.Reactor, inner Transport, readLength, writeLength int, skipOnClose, closeUnderlying bool) *Bound {
	return &Bound{
		r:               r,
		inner:           inner,
		readRemaining:   readLength,
		writeRemaining:  writeLength,
		skipOnClose:     skipOnClose,
		closeUnderlying: closeUnderlying,
	}
}

func (b *Bound) Fileno() int { return b.inner.Fileno() }

func (b *Bound) Properties() Properties { return b.inner.Properties() }

func (b *Bound) Detach() { b.inner.Detach() }

// RemainingRead exposes the read-side quota counter.
func (b *Bound) RemainingRead() int { return b.readRemaining }

// RemainingWrite exposes the write-side quota counter.
func (b *Bound) RemainingWrite() int { return b.writeRemaining }

func (b *Bound) Read(count int) *reactor.Deferred[[]byte] {
	if b.readRemaining < 0 {
		return b.inner.Read(count)
	}
	return reactor.GoTyped(b.r, func(y *reactor.Yield) ([]byte, error) {
		if b.readRemaining <= 0 {
			return nil, nil
		}
		if count < 0 || count > b.readRemaining {
			count = b.readRemaining
		}
		data, err := reactor.Await(y, b.inner.Read(count))
		if err != nil {
			return nil, err
		}
		b.readRemaining -= len(data)
		return data, nil
	})
}

// Skip reads and discards up to count bytes (or the remaining quota if
// count < 0), returning how many bytes were actually consumed.
func (b *Bound) Skip(count int) *reactor.Deferred[int] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) (int, error) {
		if count < 0 {
			count = b.readRemaining
		}
		consumed := 0
		for count > 0 {
			data, err := reactor.Await(y, b.Read(count))
			if err != nil {
				return consumed, err
			}
			if len(data) == 0 {
				break
			}
			consumed += len(data)
			count -= len(data)
		}
		return consumed, nil
	})
}

func (b *Bound) Write(data []byte) *reactor.Deferred[struct{}] {
	if b.writeRemaining < 0 {
		return b.inner.Write(data)
	}
	return reactor.GoTyped(b.r, func(y *reactor.Yield) (struct{}, error) {
		if len(data) > b.writeRemaining {
			return struct{}{}, &EndOfStream{Message: "write exceeds bound transport's write quota"}
		}
		if _, err := reactor.Await(y, b.inner.Write(data)); err != nil {
			return struct{}{}, err
		}
		b.writeRemaining -= len(data)
		return struct{}{}, nil
	})
}

func (b *Bound) Close() *reactor.Deferred[struct{}] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) (struct{}, error) {
		if b.skipOnClose {
			if _, err := reactor.Await(y, b.Skip(-1)); err != nil {
				return struct{}{}, err
			}
		}
		if b.closeUnderlying {
			return reactor.Await(y, b.inner.Close())
		}
		return struct{}{}, nil
	})
}
