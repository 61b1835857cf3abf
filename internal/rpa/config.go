package rpa

import "time"

// Config tunes the locator and the input helpers of a Session.
type Config struct {
	// Confidence is the primary match threshold (0, 1].
	Confidence float64
	// FallbackConfidence is used once when the primary search finds nothing,
	// and for the second half of every wait.
	FallbackConfidence float64

	DoubleClickInterval time.Duration
	// StartupDelay settles the UI before a double click.
	StartupDelay time.Duration
	PollInterval time.Duration
	// TypeInterval is the pause between typed characters.
	TypeInterval time.Duration
	// ActionsPerSecond paces pointer and keyboard actions; <= 0 disables pacing.
	ActionsPerSecond float64

	ImagesDir string
	// Preview moves the pointer onto targets without clicking or typing.
	Preview bool
}

func DefaultConfig() Config {
	return Config{
		Confidence:          0.9,
		FallbackConfidence:  0.6,
		DoubleClickInterval: 100 * time.Millisecond,
		StartupDelay:        3 * time.Second,
		PollInterval:        time.Second,
		TypeInterval:        100 * time.Millisecond,
		ActionsPerSecond:    10,
		ImagesDir:           "images",
	}
}
