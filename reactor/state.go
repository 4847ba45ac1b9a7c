package reactor

import "sync/atomic"

// runState is the lifecycle state of a Reactor.
//
//	Awake -> Running -> Terminating -> Terminated
//
// Awake is the state after New, before the first Run. Running is set for
// the duration of Run's loop. Stop moves a running reactor to Terminating
// so in-flight callback-queue processing finishes the current iteration
// before Run returns and the state becomes Terminated. The transition is
// one-way; a terminated reactor cannot be restarted.
type runState uint32

const (
	stateAwake runState = iota
	stateRunning
	stateTerminating
	stateTerminated
)

func (s runState) String() string {
	switch s {
	case stateAwake:
		return "awake"
	case stateRunning:
		return "running"
	case stateTerminating:
		return "terminating"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type atomicState struct {
	v atomic.Uint32
}

func (s *atomicState) load() runState           { return runState(s.v.Load()) }
func (s *atomicState) store(v runState)         { s.v.Store(uint32(v)) }
func (s *atomicState) cas(old, new_ runState) bool {
	return s.v.CompareAndSwap(uint32(old), uint32(new_))
}
