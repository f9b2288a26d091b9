// Package portaudio provides the PortAudio capture backend.
//
// This package uses CGO to interface with the PortAudio C library.
// Device implements capture.Device on the default input device using
// blocking reads.
//
// For go build: requires portaudio installed via pkg-config (brew install portaudio)
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_input(void **stream, PaDeviceIndex device, int channels,
                             PaTime latency, double sampleRate,
                             unsigned long framesPerBuffer) {
    PaStreamParameters in;
    in.device = device;
    in.channelCount = channels;
    in.sampleFormat = paInt16;
    in.suggestedLatency = latency;
    in.hostApiSpecificStreamInfo = NULL;
    return Pa_OpenStream((PaStream**)stream, &in, NULL, sampleRate,
                         framesPerBuffer, paClipOff, NULL, NULL);
}

static PaError pa_input_supported(PaDeviceIndex device, int channels,
                                  PaTime latency, double sampleRate) {
    PaStreamParameters in;
    in.device = device;
    in.channelCount = channels;
    in.sampleFormat = paInt16;
    in.suggestedLatency = latency;
    in.hostApiSpecificStreamInfo = NULL;
    return Pa_IsFormatSupported(&in, NULL, sampleRate);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/haivivi/echoprint/go/pkg/audio/pcm"
	"github.com/haivivi/echoprint/go/pkg/capture"
)

// minFrames is the smallest read period we accept from a device.
const minFrames = 256

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an input device.
type DeviceInfo struct {
	Index                   int     `json:"index" yaml:"index"`
	Name                    string  `json:"name" yaml:"name"`
	MaxInputChannels        int     `json:"max_input_channels" yaml:"max_input_channels"`
	DefaultLowInputLatency  float64 `json:"default_low_input_latency" yaml:"default_low_input_latency"`
	DefaultHighInputLatency float64 `json:"default_high_input_latency" yaml:"default_high_input_latency"`
	DefaultSampleRate       float64 `json:"default_sample_rate" yaml:"default_sample_rate"`
	IsDefaultInput          bool    `json:"is_default_input" yaml:"is_default_input"`
}

// InputDevices returns the devices that can record.
func InputDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())

	var devices []DeviceInfo
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil || info.maxInputChannels <= 0 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:                   i,
			Name:                    C.GoString(info.name),
			MaxInputChannels:        int(info.maxInputChannels),
			DefaultLowInputLatency:  float64(info.defaultLowInputLatency),
			DefaultHighInputLatency: float64(info.defaultHighInputLatency),
			DefaultSampleRate:       float64(info.defaultSampleRate),
			IsDefaultInput:          i == defaultInput,
		})
	}
	return devices, nil
}

// DefaultInputDevice returns the default input device.
func DefaultInputDevice() (*DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	idx := C.Pa_GetDefaultInputDevice()
	if idx == C.paNoDevice {
		return nil, errors.New("no default input device")
	}

	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return nil, errors.New("failed to get device info")
	}

	return &DeviceInfo{
		Index:                   int(idx),
		Name:                    C.GoString(info.name),
		MaxInputChannels:        int(info.maxInputChannels),
		DefaultLowInputLatency:  float64(info.defaultLowInputLatency),
		DefaultHighInputLatency: float64(info.defaultHighInputLatency),
		DefaultSampleRate:       float64(info.defaultSampleRate),
		IsDefaultInput:          true,
	}, nil
}

// Device records from the default PortAudio input device.
type Device struct{}

var _ capture.Device = (*Device)(nil)

// NewDevice initializes PortAudio and returns the default input device.
func NewDevice() (*Device, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	return &Device{}, nil
}

func defaultInput() (C.PaDeviceIndex, *C.PaDeviceInfo, error) {
	idx := C.Pa_GetDefaultInputDevice()
	if idx == C.paNoDevice {
		return 0, nil, errors.New("no default input device")
	}
	info := C.Pa_GetDeviceInfo(idx)
	if info == nil {
		return 0, nil, errors.New("failed to get device info")
	}
	return idx, info, nil
}

// MinBufferSize returns the byte size of one low-latency period of the
// default input, after checking the device accepts the format.
func (d *Device) MinBufferSize(f pcm.Format) (int, error) {
	idx, info, err := defaultInput()
	if err != nil {
		return 0, err
	}
	err = paError(C.pa_input_supported(idx, C.int(f.Channels()),
		info.defaultLowInputLatency, C.double(f.SampleRate())))
	if err != nil {
		return 0, fmt.Errorf("%s unsupported: %w", f, err)
	}
	frames := int(math.Ceil(float64(info.defaultLowInputLatency) * float64(f.SampleRate())))
	frames = max(frames, minFrames)
	return frames * f.BytesPerSample(), nil
}

// Open opens a blocking input stream on the default device. Every source
// maps to the default input.
func (d *Device) Open(_ capture.Source, f pcm.Format, bufferBytes int) (capture.Handle, error) {
	idx, info, err := defaultInput()
	if err != nil {
		return nil, err
	}
	frames := max(bufferBytes/f.BytesPerSample(), minFrames)

	var stream unsafe.Pointer
	err = paError(C.pa_open_input(&stream, idx, C.int(f.Channels()),
		info.defaultLowInputLatency, C.double(f.SampleRate()), C.ulong(frames)))
	if err != nil {
		return nil, err
	}

	h := &inputHandle{
		stream:   stream,
		buffer:   C.malloc(C.size_t(frames * f.BytesPerSample())),
		frames:   frames,
		channels: f.Channels(),
	}
	h.state.Store(int32(capture.DeviceStopped))
	return h, nil
}

// inputHandle is one open PortAudio input stream.
//
// Stop only flips the state: PortAudio does not allow stopping a stream
// while another thread is blocked in Pa_ReadStream, so the stream itself is
// stopped in Release on the reading goroutine. Reads are at most one period
// long, which bounds how long Fill takes to notice a Stop.
type inputHandle struct {
	state atomic.Int32

	mu       sync.Mutex
	stream   unsafe.Pointer
	buffer   unsafe.Pointer
	frames   int
	channels int
	released bool
}

func (h *inputHandle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return errors.New("stream closed")
	}
	if err := paError(C.pa_start_stream(h.stream)); err != nil {
		return err
	}
	h.state.Store(int32(capture.DeviceRecording))
	return nil
}

// Read reads up to one period of samples into buf.
func (h *inputHandle) Read(buf []int16) (int, error) {
	if h.State() == capture.DeviceStopped {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return 0, errors.New("stream closed")
	}

	frames := min(h.frames, len(buf)/h.channels)
	if frames == 0 {
		return 0, nil
	}
	code := C.pa_read_stream(h.stream, h.buffer, C.ulong(frames))
	// An overflow still delivers the requested frames; earlier audio was lost.
	if code != C.paNoError && code != C.paInputOverflowed {
		return 0, paError(code)
	}

	n := frames * h.channels
	C.memcpy(unsafe.Pointer(&buf[0]), h.buffer, C.size_t(n*2))
	return n, nil
}

func (h *inputHandle) State() capture.DeviceState {
	return capture.DeviceState(h.state.Load())
}

func (h *inputHandle) Stop() error {
	h.state.Store(int32(capture.DeviceStopped))
	return nil
}

// Release stops and closes the stream. Only the first call has an effect.
func (h *inputHandle) Release() error {
	h.state.Store(int32(capture.DeviceStopped))

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	h.released = true

	stopErr := C.pa_stop_stream(h.stream)
	if stopErr == C.paStreamIsStopped {
		stopErr = C.paNoError
	}
	err := errors.Join(paError(stopErr), paError(C.pa_close_stream(h.stream)))
	C.free(h.buffer)
	return err
}
