package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoTyped_AwaitChain(t *testing.T) {
	r := newTestReactor(t)

	inner := NewDeferred[int](r)
	out := GoTyped(r, func(y *Yield) (int, error) {
		v, err := Await(y, inner)
		if err != nil {
			return 0, err
		}
		return v * 2, nil
	})

	var got int
	done := make(chan struct{})
	out.Subscribe(func(v int, err error) {
		got = v
		close(done)
	})
	go func() { r.Call(func() { inner.Set(21) }) }()

	runUntil(t, r, done)
	require.Equal(t, 42, got)
}

func TestGo_RecoversPanic(t *testing.T) {
	r := newTestReactor(t)

	out := Go(r, func(y *Yield) (any, error) {
		panic("boom")
	})

	var gotErr error
	done := make(chan struct{})
	out.Subscribe(func(v any, err error) {
		gotErr = err
		close(done)
	})

	runUntil(t, r, done)
	var panicErr *PanicError
	require.ErrorAs(t, gotErr, &panicErr)
	require.Equal(t, "boom", panicErr.Value)
}

func TestGo_PropagatesError(t *testing.T) {
	r := newTestReactor(t)
	wantErr := errors.New("producer failed")

	out := Go(r, func(y *Yield) (any, error) {
		return nil, wantErr
	})

	var gotErr error
	done := make(chan struct{})
	out.Subscribe(func(v any, err error) {
		gotErr = err
		close(done)
	})

	runUntil(t, r, done)
	require.ErrorIs(t, gotErr, wantErr)
}

func TestAwait_SerializesAcrossSuspensionPoints(t *testing.T) {
	r := newTestReactor(t)

	d1 := NewDeferred[int](r)
	d2 := NewDeferred[int](r)

	var sum int
	out := GoTyped(r, func(y *Yield) (int, error) {
		a, err := Await(y, d1)
		if err != nil {
			return 0, err
		}
		b, err := Await(y, d2)
		if err != nil {
			return 0, err
		}
		sum = a + b
		return sum, nil
	})

	done := make(chan struct{})
	out.Subscribe(func(v int, err error) { close(done) })

	go func() {
		r.Call(func() { d1.Set(1) })
		time.Sleep(5 * time.Millisecond)
		r.Call(func() { d2.Set(2) })
	}()

	runUntil(t, r, done)
	require.Equal(t, 3, sum)
}
