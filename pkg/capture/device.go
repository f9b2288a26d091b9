package capture

import "github.com/haivivi/echoprint/go/pkg/audio/pcm"

// DeviceState is the recording state reported by a Handle.
type DeviceState int

const (
	// DeviceRecording means the handle is delivering samples.
	DeviceRecording DeviceState = iota
	// DeviceStopped means the handle was stopped, or never started.
	DeviceStopped
)

func (s DeviceState) String() string {
	switch s {
	case DeviceRecording:
		return "recording"
	case DeviceStopped:
		return "stopped"
	}
	return "unknown"
}

// Device is an audio capture backend.
type Device interface {
	// MinBufferSize returns the smallest buffer size, in bytes, the device
	// accepts for the given format.
	MinBufferSize(f pcm.Format) (int, error)

	// Open opens the capture path. bufferBytes is the device-side buffer
	// size and is at least the value returned by MinBufferSize.
	Open(src Source, f pcm.Format, bufferBytes int) (Handle, error)
}

// Handle is an opened capture path.
//
// Read blocks until at least one sample is available and may return fewer
// samples than len(buf). Stop must be safe to call concurrently with Read
// and after Release.
type Handle interface {
	Start() error
	Read(buf []int16) (int, error)
	State() DeviceState
	Stop() error
	Release() error
}
