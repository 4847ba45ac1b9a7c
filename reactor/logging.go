package reactor

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging type shared by the reactor and
// transport packages, parameterized over stumpy's JSON event, matching
// the teacher's package-level structured-logging convention but wired
// to a real logging library rather than a hand-rolled one.
type Logger = logiface.Logger[*stumpy.Event]

// NewNopLogger returns a Logger with logging disabled, the default when
// no WithLogger option is supplied.
func NewNopLogger() *Logger {
	return stumpy.L.New(logiface.WithLevel[*stumpy.Event](logiface.LevelDisabled))
}
