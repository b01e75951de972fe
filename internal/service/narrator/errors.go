package narrator

import "fmt"

// ConfigError reports missing or invalid narrator configuration, such
// as absent credentials for the selected backend.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("narrator configuration error: %s", e.Reason)
}

// UnavailableError reports a failed call to the narrative backend.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("narrative backend unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
