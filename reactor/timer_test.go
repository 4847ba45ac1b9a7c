package reactor

import (
	"container/heap"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerHeap_OrdersByDeadlineThenSeq(t *testing.T) {
	var h timerHeap
	base := time.Now()

	e3 := &timerEntry{deadline: base.Add(3 * time.Second), seq: 3}
	e1a := &timerEntry{deadline: base.Add(1 * time.Second), seq: 1}
	e1b := &timerEntry{deadline: base.Add(1 * time.Second), seq: 2}
	e2 := &timerEntry{deadline: base.Add(2 * time.Second), seq: 4}

	heap.Push(&h, e3)
	heap.Push(&h, e1a)
	heap.Push(&h, e1b)
	heap.Push(&h, e2)

	var order []uint64
	for h.Len() > 0 {
		e := heap.Pop(&h).(*timerEntry)
		order = append(order, e.seq)
	}
	require.Equal(t, []uint64{1, 2, 4, 3}, order)
}

func TestTimerHeap_PeekReadyLeavesFutureEntriesInPlace(t *testing.T) {
	var h timerHeap
	now := time.Now()

	due := &timerEntry{deadline: now.Add(-time.Second), seq: 1}
	notYet := &timerEntry{deadline: now.Add(time.Hour), seq: 2}

	heap.Push(&h, due)
	heap.Push(&h, notYet)

	ready := h.peekReady(now)
	require.Len(t, ready, 1)
	require.Equal(t, uint64(1), ready[0].seq)

	deadline, ok := h.nextDeadline()
	require.True(t, ok)
	require.True(t, deadline.Equal(notYet.deadline))
}
