package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrFrameSize indicates the input is not exactly one frame long.
	ErrFrameSize = errors.New("invalid frame size")
)

// ChecksumError indicates the stored checksum doesn't match the content.
type ChecksumError struct {
	Want byte
	Got  byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: want %d, got %d", e.Want, e.Got)
}
