package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Fill after Close.
	ErrClosed = errors.New("capture: session closed")

	// ErrBadRead is wrapped in a DeviceError when a device reports a read
	// count outside the space it was given.
	ErrBadRead = errors.New("capture: device returned invalid sample count")
)

// DeviceError reports a capture device failure.
type DeviceError struct {
	// Op is the device operation that failed: "min-buffer", "open",
	// "start" or "read".
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture: device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// IsDeviceError reports whether err is or wraps a *DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}
