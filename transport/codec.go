package transport

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pombreda/microactor/reactor"
)

// Codec wraps an inner binary transport with a text interface, using an
// incremental encoder/decoder pair for a configured encoding, the direct
// Go-ecosystem equivalent of the original's
// codecs.getincrementalencoder/getincrementaldecoder. count on Read is
// expressed in raw bytes, not code points; a partial multibyte sequence
// at a chunk boundary is held over to the next read rather than
// corrupting output.
type Codec struct {
	r     *reactor.Reactor
	inner Transport

	enc transform.Transformer
	dec transform.Transformer

	// leftover holds raw bytes consumed from the inner transport but not
	// yet fully decoded (an incomplete multibyte sequence at the tail).
	leftover []byte
}

// NewCodec wraps inner using enc for both directions. A nil enc defaults
// to UTF-8, standing in for "the platform filesystem encoding."
func NewCodec(r *reactor.Reactor, inner Transport, enc encoding.Encoding) *Codec {
	if enc == nil {
		enc = unicode.UTF8
	}
	return &Codec{
		r:     r,
		inner: inner,
		enc:   enc.NewEncoder(),
		dec:   enc.NewDecoder(),
	}
}

func (c *Codec) Fileno() int { return c.inner.Fileno() }

func (c *Codec) Properties() Properties { return c.inner.Properties() }

func (c *Codec) Detach() { c.inner.Detach() }

// decodeIncremental runs raw through the incremental decoder, growing the
// destination buffer as needed, and returns the decoded text plus
// whatever raw suffix the decoder could not yet consume (an incomplete
// multibyte sequence).
func decodeIncremental(dec transform.Transformer, raw []byte, atEOF bool) (text string, rest []byte, err error) {
	dst := make([]byte, len(raw)*4+16)
	for {
		nDst, nSrc, terr := dec.Transform(dst, raw, atEOF)
		if terr == transform.ErrShortDst {
			dst = make([]byte, len(dst)*2)
			continue
		}
		if terr == transform.ErrShortSrc {
			return string(dst[:nDst]), append([]byte(nil), raw[nSrc:]...), nil
		}
		if terr != nil {
			return "", nil, terr
		}
		return string(dst[:nDst]), nil, nil
	}
}

// Read reads up to count raw bytes from the inner transport and decodes
// them, finalizing the decoder on EOF.
func (c *Codec) Read(count int) *reactor.Deferred[string] {
	return reactor.GoTyped(c.r, func(y *reactor.Yield) (string, error) {
		raw, err := reactor.Await(y, c.inner.Read(count))
		if err != nil {
			return "", err
		}
		if len(raw) == 0 {
			text, _, err := decodeIncremental(c.dec, c.leftover, true)
			c.leftover = nil
			return text, err
		}
		buf := append(append([]byte(nil), c.leftover...), raw...)
		text, rest, err := decodeIncremental(c.dec, buf, false)
		c.leftover = rest
		return text, err
	})
}

// Write encodes data and forwards the resulting bytes to the inner
// transport.
func (c *Codec) Write(data string) *reactor.Deferred[struct{}] {
	return reactor.GoTyped(c.r, func(y *reactor.Yield) (struct{}, error) {
		dst := make([]byte, len(data)*4+16)
		for {
			nDst, _, err := c.enc.Transform(dst, []byte(data), false)
			if err == transform.ErrShortDst {
				dst = make([]byte, len(dst)*2)
				continue
			}
			if err != nil {
				return struct{}{}, err
			}
			if nDst == 0 {
				return struct{}{}, nil
			}
			return reactor.Await(y, c.inner.Write(dst[:nDst]))
		}
	})
}

// Close emits the encoder's final trailing bytes (if any), then closes
// the inner transport.
func (c *Codec) Close() *reactor.Deferred[struct{}] {
	return reactor.GoTyped(c.r, func(y *reactor.Yield) (struct{}, error) {
		dst := make([]byte, 16)
		for {
			nDst, _, err := c.enc.Transform(dst, nil, true)
			if err == transform.ErrShortDst {
				dst = make([]byte, len(dst)*2)
				continue
			}
			if err != nil {
				return struct{}{}, err
			}
			if nDst > 0 {
				if _, werr := reactor.Await(y, c.inner.Write(dst[:nDst])); werr != nil {
					return struct{}{}, werr
				}
			}
			break
		}
		return reactor.Await(y, c.inner.Close())
	})
}
