package capture

import "github.com/haivivi/echoprint/go/pkg/audio/pcm"

// Capture duration bounds in seconds.
const (
	MinSeconds     = 10
	MaxSeconds     = 30
	DefaultSeconds = 20
)

// Source selects the device input path.
type Source int

const (
	// SourceMic records from the microphone.
	SourceMic Source = iota
	// SourceDefault lets the device pick its default input.
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceMic:
		return "mic"
	case SourceDefault:
		return "default"
	}
	return "unknown"
}

// Config describes one capture. It is copied into the Session on Open and
// never changes afterwards.
type Config struct {
	// Format is the PCM format to record. Zero value is pcm.L16Mono11K.
	Format pcm.Format

	// Seconds is the requested duration. It is clamped to
	// [MinSeconds, MaxSeconds].
	Seconds int

	// Source is the device input path.
	Source Source
}

// ClampSeconds returns d clamped to [MinSeconds, MaxSeconds].
func ClampSeconds(d int) int {
	return max(min(d, MaxSeconds), MinSeconds)
}

// Normalize returns a copy of c with Seconds clamped.
func (c Config) Normalize() Config {
	c.Seconds = ClampSeconds(c.Seconds)
	return c
}

// BufferLen returns the session buffer length in samples for a device that
// reports minBufferSize.
func (c Config) BufferLen(minBufferSize int) int {
	return max(minBufferSize, c.Format.SamplesInSeconds(ClampSeconds(c.Seconds)))
}
