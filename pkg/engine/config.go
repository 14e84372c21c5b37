package engine

import "time"

// Config holds configuration for the engine.
type Config struct {
	// DefaultDoneReason is reported on the terminal frame and in
	// non-streaming responses when the backend gives no finish reason.
	// Defaults to "stop".
	DefaultDoneReason string

	// Now returns the current time. Tests replace it to make created_at
	// and durations deterministic. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) doneReason() string {
	if c.DefaultDoneReason == "" {
		return "stop"
	}
	return c.DefaultDoneReason
}

func (c Config) clock() func() time.Time {
	if c.Now == nil {
		return time.Now
	}
	return c.Now
}
