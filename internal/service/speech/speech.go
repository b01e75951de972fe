package speech

import (
	"context"
	"fmt"
)

// Audio is a synthesized commentary clip.
type Audio struct {
	Data   []byte
	Format string
}

// Synthesizer renders narrative text into playable audio. Both backend
// implementations satisfy it; the orchestrator never branches on mode.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// ConfigError reports missing or invalid synthesis configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tts configuration error: %s", e.Reason)
}

// UnavailableError reports a failed call to the synthesis backend. It
// never invalidates a narrative that was already generated.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("tts backend unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
