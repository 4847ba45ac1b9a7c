package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestReactor(t *testing.T) *Reactor {
	t.Helper()
	r, err := New(WithPollQuantum(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Stop()
		_ = r.Close()
	})
	return r
}

func runUntil(t *testing.T, r *Reactor, done <-chan struct{}) {
	t.Helper()
	go func() {
		<-done
		r.Stop()
	}()
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run() }()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reactor.Run did not return in time")
	}
}

func TestDeferred_SubscribeOrder(t *testing.T) {
	r := newTestReactor(t)

	d := NewDeferred[int](r)
	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		d.Subscribe(func(v int, err error) {
			order = append(order, i)
			if len(order) == 5 {
				close(done)
			}
		})
	}

	go func() { r.Call(func() { d.Set(42) }) }()

	runUntil(t, r, done)
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDeferred_SubscribeAfterResolveStillScheduled(t *testing.T) {
	r := newTestReactor(t)

	d := NewDeferred[string](r)
	d.Set("hello") // resolve before the reactor is even running

	var got string
	done := make(chan struct{})
	d.Subscribe(func(v string, err error) {
		got = v
		close(done)
	})

	runUntil(t, r, done)
	require.Equal(t, "hello", got)
}

func TestDeferred_DoubleResolvePanics(t *testing.T) {
	r := newTestReactor(t)
	d := NewDeferred[int](r)
	d.Set(1)

	require.Panics(t, func() { d.Set(2) })
	require.Panics(t, func() { d.Throw(errors.New("boom")) })
}

func TestDeferred_Throw(t *testing.T) {
	r := newTestReactor(t)
	d := NewDeferred[int](r)
	wantErr := errors.New("boom")

	var gotErr error
	done := make(chan struct{})
	d.Subscribe(func(v int, err error) {
		gotErr = err
		close(done)
	})
	go func() { r.Call(func() { d.Throw(wantErr) }) }()

	runUntil(t, r, done)
	require.ErrorIs(t, gotErr, wantErr)
}
