package pcm

import (
	"encoding/binary"
	"time"
)

const (
	// L16Mono11K represents audio/L16; rate=11025; channels=1.
	// This is the format echoprint codegen expects.
	L16Mono11K Format = iota
	// L16Mono16K represents audio/L16; rate=16000; channels=1
	L16Mono16K
	// L16Mono22K represents audio/L16; rate=22050; channels=1
	L16Mono22K
	// L16Mono44K represents audio/L16; rate=44100; channels=1
	L16Mono44K
)

// Format represents an audio format configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono11K:
		return 11025
	case L16Mono16K:
		return 16000
	case L16Mono22K:
		return 22050
	case L16Mono44K:
		return 44100
	}
	panic("pcm: invalid audio type")
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	switch f {
	case L16Mono11K, L16Mono16K, L16Mono22K, L16Mono44K:
		return 1
	}
	panic("pcm: invalid audio type")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case L16Mono11K, L16Mono16K, L16Mono22K, L16Mono44K:
		return 16
	}
	panic("pcm: invalid audio type")
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f >= L16Mono11K && f <= L16Mono44K
}

// BytesPerSample returns the size of one frame (all channels) in bytes.
func (f Format) BytesPerSample() int {
	return f.Channels() * f.Depth() / 8
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// SamplesInSeconds returns the number of samples in n whole seconds.
func (f Format) SamplesInSeconds(n int) int {
	return f.SampleRate() * f.Channels() * n
}

// BytesInSamples returns the number of bytes occupied by n samples.
func (f Format) BytesInSamples(n int) int {
	return n * f.Depth() / 8
}

// Duration returns the playback duration of n samples.
func (f Format) Duration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate()*f.Channels())
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	switch f {
	case L16Mono11K:
		return "audio/L16; rate=11025; channels=1"
	case L16Mono16K:
		return "audio/L16; rate=16000; channels=1"
	case L16Mono22K:
		return "audio/L16; rate=22050; channels=1"
	case L16Mono44K:
		return "audio/L16; rate=44100; channels=1"
	}
	return "audio/invalid"
}

// EncodeLE encodes samples as little-endian signed 16-bit bytes.
func EncodeLE(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// DecodeLE decodes little-endian signed 16-bit bytes. A trailing odd byte is
// ignored.
func DecodeLE(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
