package reactor

import "time"

// config holds resolved Reactor construction options, grounded on the
// teacher's options.go loopOptions/resolveLoopOptions pattern.
type config struct {
	logger      *Logger
	pollQuantum time.Duration
	maxFDs      int
}

// Option configures a Reactor instance.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithLogger sets the structured logger used for lifecycle and error
// events. The default is a disabled logger.
func WithLogger(l *Logger) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithPollQuantum bounds how long a single poll wait may block when no
// timer is pending, so the reactor periodically reconsiders its external
// queue even on platforms whose wake mechanism is best-effort.
func WithPollQuantum(d time.Duration) Option {
	return optionFunc(func(c *config) {
		if d > 0 {
			c.pollQuantum = d
		}
	})
}

// WithMaxFDs caps the number of simultaneous registrations, counting read
// and write registrations separately (an fd registered in both directions
// counts twice). Zero (the default) means no cap.
func WithMaxFDs(n int) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.maxFDs = n
		}
	})
}

func resolveOptions(opts []Option) *config {
	cfg := &config{
		logger:      NewNopLogger(),
		pollQuantum: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
