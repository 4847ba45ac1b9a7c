package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDuplex_ReadDelegatesToIn(t *testing.T) {
	r := newTestReactor(t)
	in := newMemTransport(r, []byte("incoming"))
	out := newMemTransport(r)
	d := NewDuplex(r, in, out)

	got, err := await(t, d.Read(8))
	require.NoError(t, err)
	require.Equal(t, "incoming", string(got))
	require.Empty(t, out.written.Bytes())
}

func TestDuplex_WriteDelegatesToOut(t *testing.T) {
	r := newTestReactor(t)
	in := newMemTransport(r)
	out := newMemTransport(r)
	d := NewDuplex(r, in, out)

	_, err := await(t, d.Write([]byte("outgoing")))
	require.NoError(t, err)
	require.Equal(t, "outgoing", out.written.String())
	require.Empty(t, in.written.Bytes())
}

func TestDuplex_PropertiesBufferedRequiresBothSides(t *testing.T) {
	r := newTestReactor(t)
	in := newMemTransport(r)
	out := newMemTransport(r)
	d := NewDuplex(r, in, out)
	require.False(t, d.Properties().Buffered)

	bufIn := NewBuffered(r, in, 0, 0)
	bufOut := NewBuffered(r, out, 0, 0)
	d2 := NewDuplex(r, bufIn, bufOut)
	require.True(t, d2.Properties().Buffered)
}

func TestDuplex_CloseClosesBothSides(t *testing.T) {
	r := newTestReactor(t)
	in := newMemTransport(r)
	out := newMemTransport(r)
	d := NewDuplex(r, in, out)

	_, err := await(t, d.Close())
	require.NoError(t, err)
	require.True(t, in.closed)
	require.True(t, out.closed)
}

func TestDuplex_CloseSurfacesInSideErrorEvenWhenOutSucceeds(t *testing.T) {
	r := newTestReactor(t)
	// An input side whose closer fails with ErrTransportClosed.
	in := NewBaseWithCloser(r, -1, Properties{Readable: true}, func() error { return ErrTransportClosed })
	out := newMemTransport(r)
	d := NewDuplex(r, in, out)

	_, err := await(t, d.Close())
	require.ErrorIs(t, err, ErrTransportClosed)
	require.True(t, out.closed, "out side is still closed despite in side's error")
}
