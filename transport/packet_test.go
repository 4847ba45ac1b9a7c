package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacket_SendProducesLengthPrefixedWire(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r)
	pkt := NewPacket(r, inner, 0)

	_, err := await(t, pkt.Send([]byte("hello"), true))
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}, inner.written.Bytes())
}

func TestPacket_RoundTrip(t *testing.T) {
	r := newTestReactor(t)
	wire := []byte{0x00, 0x00, 0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}
	inner := newMemTransport(r, wire)
	pkt := NewPacket(r, inner, 0)

	got, err := await(t, pkt.Recv())
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestPacket_RejectsOversizedHeaderBeforeReadingBody(t *testing.T) {
	r := newTestReactor(t)
	// Header declares a 5-byte body but none of it is ever supplied; if
	// Recv tried to read the body it would hang waiting for data that
	// never arrives, so a correct implementation must reject on the
	// header alone.
	inner := newMemTransport(r, []byte{0x00, 0x00, 0x00, 0x05})
	pkt := NewPacket(r, inner, 4)

	_, err := await(t, pkt.Recv())
	require.Error(t, err)
	var tooLong *PacketTooLong
	require.ErrorAs(t, err, &tooLong)
	require.Equal(t, 5, tooLong.Length)
	require.Equal(t, 4, tooLong.MaxLength)
}

func TestPacket_AutoWrapsUnbufferedInner(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte{0x00, 0x00, 0x00, 0x02, 'h', 'i'})
	require.False(t, inner.Properties().Buffered)

	pkt := NewPacket(r, inner, 0)
	require.True(t, pkt.Properties().Buffered)

	got, err := await(t, pkt.Recv())
	require.NoError(t, err)
	require.Equal(t, "hi", string(got))
}
