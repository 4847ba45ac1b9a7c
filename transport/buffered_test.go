package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func chunkString(s string, sizes ...int) [][]byte {
	var chunks [][]byte
	i := 0
	for _, n := range sizes {
		end := i + n
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, []byte(s[i:end]))
		i = end
	}
	if i < len(s) {
		chunks = append(chunks, []byte(s[i:]))
	}
	return chunks
}

func TestBuffered_ReadAll_IndependentOfChunking(t *testing.T) {
	const want = "the quick brown fox jumps over the lazy dog"
	chunkings := [][]int{
		{len(want)},
		{1, 1, 1, len(want)},
		{5, 5, 5, 5, 5, 5, 5, 5, 4},
		{len(want) / 2, len(want)},
	}

	for _, sizes := range chunkings {
		r := newTestReactor(t)
		inner := newMemTransport(r, chunkString(want, sizes...)...)
		buf := NewBuffered(r, inner, 0, 0)

		got, err := await(t, buf.ReadAll(0))
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}
}

func TestBuffered_ReadExactly(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte("ab"), []byte("cde"), []byte("fgh"))
	buf := NewBuffered(r, inner, 0, 0)

	got, err := await(t, buf.ReadExactly(5, true))
	require.NoError(t, err)
	require.Equal(t, "abcde", string(got))

	got, err = await(t, buf.ReadExactly(3, true))
	require.NoError(t, err)
	require.Equal(t, "fgh", string(got))
}

func TestBuffered_ReadExactly_ShortOnEOFRaises(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte("ab"))
	buf := NewBuffered(r, inner, 0, 0)

	_, err := await(t, buf.ReadExactly(5, true))
	require.Error(t, err)
	var eof *EndOfStream
	require.ErrorAs(t, err, &eof)
	require.Equal(t, "ab", string(eof.Partial))
}

func TestBuffered_ReadUntil_AcrossChunks(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte("abXX"), []byte("YYcd"))
	buf := NewBuffered(r, inner, 0, 0)

	got, err := await(t, buf.ReadUntil([][]byte{[]byte("XXYY")}, true, false))
	require.NoError(t, err)
	require.Equal(t, "ab", string(got))

	rest, err := await(t, buf.ReadAll(0))
	require.NoError(t, err)
	require.Equal(t, "cd", string(rest))
}

func TestBuffered_ReadUntil_MatchAlreadyBufferedReturnsImmediately(t *testing.T) {
	r := newTestReactor(t)
	// A single chunk containing the full match; fillReadBuffer should never
	// be needed a second time once the match is present.
	inner := newMemTransport(r, []byte("ab\r\ncd"))
	buf := NewBuffered(r, inner, 0, 0)

	got, err := await(t, buf.ReadUntil([][]byte{[]byte("\r\n")}, true, false))
	require.NoError(t, err)
	require.Equal(t, "ab", string(got))
}

func TestBuffered_ReadLine_TieBreakCRLFOverCR(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte("a\r\nb"))
	buf := NewBuffered(r, inner, 0, 0)

	line, err := await(t, buf.ReadLine(false))
	require.NoError(t, err)
	require.Equal(t, "a", string(line))

	rest, err := await(t, buf.ReadAll(0))
	require.NoError(t, err)
	require.Equal(t, "b", string(rest))
}

func TestBuffered_WriteFlushesOnClose(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r)
	buf := NewBuffered(r, inner, 0, 0)

	_, err := await(t, buf.Write([]byte("hello")))
	require.NoError(t, err)
	require.Empty(t, inner.written.Bytes(), "write should stay buffered until flush")

	_, err = await(t, buf.Close())
	require.NoError(t, err)
	require.Equal(t, "hello", inner.written.String())
	require.True(t, inner.closed)
}
