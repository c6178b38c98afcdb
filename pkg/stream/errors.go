package stream

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidFPS is returned when the frame-rate ceiling is not positive.
	ErrInvalidFPS = errors.New("stream: fps must be positive")

	// ErrInvalidDevice is returned for a negative device index.
	ErrInvalidDevice = errors.New("stream: device index must not be negative")

	// ErrNoSurface is returned when no display surface is configured.
	ErrNoSurface = errors.New("stream: display surface required")

	// ErrInvalidSettings is returned when capture settings fail validation.
	ErrInvalidSettings = errors.New("stream: invalid capture settings")
)

// Stage names the step of an iteration that failed.
type Stage string

const (
	StageRead      Stage = "read"
	StageConvert   Stage = "convert"
	StageTransform Stage = "transform"
	StageEncode    Stage = "encode"
	StageDisplay   Stage = "display"
)

// StageError wraps a processing failure with the stage and frame number.
type StageError struct {
	Stage Stage
	Frame int
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stream: frame %d: %s: %v", e.Frame, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
