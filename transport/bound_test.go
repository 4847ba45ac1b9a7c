package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBound_ReadQuotaEnforced(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte("0123456789"))
	bound := NewBound(r, inner, 4, unboundedQuota, false, false)

	got, err := await(t, bound.Read(10))
	require.NoError(t, err)
	require.Equal(t, "0123", string(got))
	require.Equal(t, 0, bound.RemainingRead())

	got, err = await(t, bound.Read(10))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBound_WriteQuotaExceeded(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r)
	bound := NewBound(r, inner, unboundedQuota, 5, false, false)

	_, err := await(t, bound.Write([]byte("abc")))
	require.NoError(t, err)

	_, err = await(t, bound.Write([]byte("abc")))
	require.Error(t, err)
	var eof *EndOfStream
	require.ErrorAs(t, err, &eof)
}

func TestBound_SkipOnClose(t *testing.T) {
	r := newTestReactor(t)
	inner := newMemTransport(r, []byte("0123456789"))
	bound := NewBound(r, inner, 10, unboundedQuota, true, true)

	got, err := await(t, bound.Read(3))
	require.NoError(t, err)
	require.Equal(t, "012", string(got))
	require.Equal(t, 7, bound.RemainingRead())

	_, err = await(t, bound.Close())
	require.NoError(t, err)
	require.Equal(t, 0, bound.RemainingRead())
	require.True(t, inner.closed)
}
