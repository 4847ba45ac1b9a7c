package transport

import (
	"bytes"

	"github.com/pombreda/microactor/reactor"
)

// Buffered wraps an inner Transport with a read-side and write-side byte
// accumulator, each with a target size, adding read_exactly/read_all/
// read_until/read_line/flush on top of the base contract. Grounded on
// original_source/microactor/utils/transports.py's BufferedTransport.
type Buffered struct {
	r       *reactor.Reactor
	inner   Transport
	rbuf    []byte
	wbuf    []byte
	rTarget int
	wTarget int
}

// NewBuffered wraps inner with read/write buffers sized at target bytes
// each (16000, matching the original's default, if target <= 0).
func NewBuffered(r *reactor.Reactor, inner Transport, readTarget, writeTarget int) *Buffered {
	if readTarget <= 0 {
		readTarget = 16000
	}
	if writeTarget <= 0 {
		writeTarget = 16000
	}
	return &Buffered{r: r, inner: inner, rTarget: readTarget, wTarget: writeTarget}
}

func (b *Buffered) Fileno() int { return b.inner.Fileno() }

func (b *Buffered) Properties() Properties {
	p := b.inner.Properties()
	p.Buffered = true
	return p
}

func (b *Buffered) Detach() { b.inner.Detach() }

// fillReadBuffer reads from the inner transport until count additional
// bytes have landed in rbuf, a short inner read is seen, or EOF. It
// treats ErrTransportClosed from the inner read as EOF for fill purposes,
// matching the original's try/except around the inner read inside
// _fill_rbuf, rather than propagating the close error to the caller of
// read/read_until while a fill is merely topping up the buffer.
func (b *Buffered) fillReadBuffer(y *reactor.Yield, count int) (eof bool, err error) {
	for count > 0 {
		data, rerr := reactor.Await(y, b.inner.Read(count))
		if rerr != nil {
			if rerr == ErrTransportClosed {
				return true, nil
			}
			return false, rerr
		}
		if len(data) == 0 {
			return true, nil
		}
		b.rbuf = append(b.rbuf, data...)
		if len(data) < count {
			break
		}
		count -= len(data)
	}
	return false, nil
}

// Read returns min(count, buffered) bytes, topping up the buffer first
// when it holds fewer than count bytes. count < 0 delegates to ReadAll.
func (b *Buffered) Read(count int) *reactor.Deferred[[]byte] {
	if count < 0 {
		return b.ReadAll(0)
	}
	return reactor.GoTyped(b.r, func(y *reactor.Yield) ([]byte, error) {
		if count > len(b.rbuf) {
			if _, err := b.fillReadBuffer(y, b.rTarget-len(b.rbuf)); err != nil {
				return nil, err
			}
		}
		n := count
		if n > len(b.rbuf) {
			n = len(b.rbuf)
		}
		data := b.rbuf[:n]
		b.rbuf = b.rbuf[n:]
		return data, nil
	})
}

// ReadExactly reads until count bytes have accumulated or EOF. When
// raiseOnEOF and EOF is hit short, it fails with an *EndOfStream carrying
// the partial result.
func (b *Buffered) ReadExactly(count int, raiseOnEOF bool) *reactor.Deferred[[]byte] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) ([]byte, error) {
		var buf bytes.Buffer
		remaining := count
		for remaining > 0 {
			data, err := reactor.Await(y, b.Read(remaining))
			if err != nil {
				return nil, err
			}
			if len(data) == 0 {
				break
			}
			buf.Write(data)
			remaining -= len(data)
		}
		if raiseOnEOF && remaining > 0 {
			return nil, &EndOfStream{Partial: buf.Bytes(), Message: "read_exactly short of target"}
		}
		return buf.Bytes(), nil
	})
}

// ReadAll drains the inner transport to EOF, in chunkSize pieces
// (defaulting to 16000), concatenated with whatever was already buffered.
func (b *Buffered) ReadAll(chunkSize int) *reactor.Deferred[[]byte] {
	if chunkSize <= 0 {
		chunkSize = 16000
	}
	return reactor.GoTyped(b.r, func(y *reactor.Yield) ([]byte, error) {
		var buf bytes.Buffer
		buf.Write(b.rbuf)
		b.rbuf = nil
		for {
			data, err := reactor.Await(y, b.inner.Read(chunkSize))
			if err != nil {
				if err == ErrTransportClosed {
					break
				}
				return nil, err
			}
			if len(data) == 0 {
				break
			}
			buf.Write(data)
		}
		return buf.Bytes(), nil
	})
}

// ReadUntil returns bytes up to and including (or excluding, per
// includePattern) the earliest occurrence of any of patterns. On EOF
// without a match it returns the remainder unless raiseOnEOF. A match
// found in the current buffer returns immediately without ever entering
// the fill path, resolving the source's ambiguous for/else interaction
// the way §4.4 specifies.
func (b *Buffered) ReadUntil(patterns [][]byte, raiseOnEOF, includePattern bool) *reactor.Deferred[[]byte] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) ([]byte, error) {
		longest := 0
		for _, p := range patterns {
			if len(p) > longest {
				longest = len(p)
			}
		}
		lastIndex := 0
		for {
			if data, ok := b.consumeEarliestMatch(patterns, lastIndex, includePattern); ok {
				return data, nil
			}
			lastIndex = len(b.rbuf) - longest
			if lastIndex < 0 {
				lastIndex = 0
			}
			eof, err := b.fillReadBuffer(y, b.rTarget)
			if err != nil {
				return nil, err
			}
			if eof {
				if raiseOnEOF {
					return nil, &EndOfStream{Partial: b.rbuf, Message: "read_until: EOF without match"}
				}
				data := b.rbuf
				b.rbuf = nil
				return data, nil
			}
		}
	})
}

// consumeEarliestMatch locates the earliest match among patterns at or
// after lastIndex, breaking ties by preferring the longer pattern at an
// identical index (so "\r\n" beats "\r" at the same position). On a match
// it consumes the matched prefix from rbuf and returns the slice the
// caller wants.
func (b *Buffered) consumeEarliestMatch(patterns [][]byte, lastIndex int, includePattern bool) (result []byte, matched bool) {
	if lastIndex > len(b.rbuf) {
		lastIndex = len(b.rbuf)
	}
	if lastIndex < 0 {
		lastIndex = 0
	}
	best := -1
	var bestPat []byte
	for _, pat := range patterns {
		idx := bytes.Index(b.rbuf[lastIndex:], pat)
		if idx < 0 {
			continue
		}
		idx += lastIndex
		if best < 0 || idx < best || (idx == best && len(pat) > len(bestPat)) {
			best, bestPat = idx, pat
		}
	}
	if best < 0 {
		return nil, false
	}
	var data []byte
	if includePattern {
		data = b.rbuf[:best+len(bestPat)]
	} else {
		data = b.rbuf[:best]
	}
	out := make([]byte, len(data))
	copy(out, data)
	b.rbuf = b.rbuf[best+len(bestPat):]
	return out, true
}

// ReadLine is ReadUntil with the canonical newline patterns, longest
// match first so "\r\n" wins ties against "\r" at the same position.
func (b *Buffered) ReadLine(includeNewline bool) *reactor.Deferred[[]byte] {
	return b.ReadUntil([][]byte{[]byte("\r\n"), []byte("\r"), []byte("\n")}, false, includeNewline)
}

// Write appends to the write buffer, flushing once it exceeds its target.
func (b *Buffered) Write(data []byte) *reactor.Deferred[struct{}] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) (struct{}, error) {
		b.wbuf = append(b.wbuf, data...)
		if len(b.wbuf) > b.wTarget {
			if _, err := reactor.Await(y, b.Flush()); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
}

// Flush writes the entire write buffer through the inner transport.
func (b *Buffered) Flush() *reactor.Deferred[struct{}] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) (struct{}, error) {
		data := b.wbuf
		b.wbuf = nil
		if len(data) == 0 {
			return struct{}{}, nil
		}
		if _, err := reactor.Await(y, b.inner.Write(data)); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

// Close flushes (if writable) then closes the inner transport. The
// buffered transport never discards unacknowledged bytes: even a close
// with a nonempty write buffer flushes first.
func (b *Buffered) Close() *reactor.Deferred[struct{}] {
	return reactor.GoTyped(b.r, func(y *reactor.Yield) (struct{}, error) {
		if b.Properties().Writable {
			if _, err := reactor.Await(y, b.Flush()); err != nil {
				return struct{}{}, err
			}
		}
		return reactor.Await(y, b.inner.Close())
	})
}
