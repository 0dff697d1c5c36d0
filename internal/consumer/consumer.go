// Package consumer mirrors butler's consumer.Consumer: a small sink for
// progress and log output that every long-running operation is handed,
// so it doesn't need to know whether it's driving a CLI, a GUI, or a
// test harness.
package consumer

import (
	"os"

	"github.com/rs/zerolog"
)

// Consumer receives log lines and progress updates from one running
// operation.
type Consumer interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Progress reports overall completion, 0..1.
	Progress(value float64)
	PauseProgress()
	ResumeProgress()
}

// zerologConsumer drives a structured zerolog.Logger and tracks the last
// reported progress so PauseProgress/ResumeProgress can no-op sensibly.
type zerologConsumer struct {
	log     zerolog.Logger
	paused  bool
	lastPct float64
}

// New returns a Consumer that logs through zerolog, writing human-readable
// lines to stderr by default.
func New(component string) Consumer {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("component", component).Logger()
	return &zerologConsumer{log: log}
}

// NewWithLogger wraps an already-configured zerolog.Logger.
func NewWithLogger(log zerolog.Logger) Consumer {
	return &zerologConsumer{log: log}
}

func (c *zerologConsumer) Infof(format string, args ...interface{}) {
	c.log.Info().Msgf(format, args...)
}

func (c *zerologConsumer) Warnf(format string, args ...interface{}) {
	c.log.Warn().Msgf(format, args...)
}

func (c *zerologConsumer) Errorf(format string, args ...interface{}) {
	c.log.Error().Msgf(format, args...)
}

func (c *zerologConsumer) Progress(value float64) {
	c.lastPct = value
	if c.paused {
		return
	}
	c.log.Debug().Float64("progress", value).Msg("progress")
}

func (c *zerologConsumer) PauseProgress() {
	c.paused = true
}

func (c *zerologConsumer) ResumeProgress() {
	c.paused = false
	c.log.Debug().Float64("progress", c.lastPct).Msg("progress")
}

// Noop discards everything; used in tests that don't care about output.
func Noop() Consumer {
	return &zerologConsumer{log: zerolog.Nop()}
}
