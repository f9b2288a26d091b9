// Package capturetest provides a scripted capture.Device for tests.
package capturetest

import (
	"errors"
	"sync"

	"github.com/haivivi/echoprint/go/pkg/audio/pcm"
	"github.com/haivivi/echoprint/go/pkg/capture"
)

// ErrReleased is returned by Read on a released handle.
var ErrReleased = errors.New("capturetest: handle released")

// Device is a fake capture.Device. Configure the exported fields before use;
// they are read without locking.
type Device struct {
	// MinSize is returned by MinBufferSize. Zero means 1024.
	MinSize    int
	MinSizeErr error
	OpenErr    error
	StartErr   error

	// ChunkSize caps the samples delivered per Read. Zero means 4096.
	ChunkSize int

	// StopAt makes the handle stop itself once this many samples have been
	// delivered, as if Stop had been called from another goroutine.
	StopAt int

	// ReadErr is returned by the first Read at or after offset ReadErrAt.
	ReadErr   error
	ReadErrAt int

	// ReadPanic, when non-nil, is raised by the first Read.
	ReadPanic any

	// Overcount is added to the count returned by Read.
	Overcount int

	// Block makes Read wait until Stop is called, then return 0.
	Block bool

	// Reading, when non-nil, receives a value each time a Read begins.
	Reading chan struct{}

	mu          sync.Mutex
	handles     []*Handle
	bufferBytes int
}

// MinBufferSize implements capture.Device.
func (d *Device) MinBufferSize(pcm.Format) (int, error) {
	if d.MinSizeErr != nil {
		return 0, d.MinSizeErr
	}
	if d.MinSize == 0 {
		return 1024, nil
	}
	return d.MinSize, nil
}

// Open implements capture.Device.
func (d *Device) Open(_ capture.Source, _ pcm.Format, bufferBytes int) (capture.Handle, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	h := &Handle{dev: d, state: capture.DeviceStopped, stopCh: make(chan struct{})}
	d.mu.Lock()
	d.handles = append(d.handles, h)
	d.bufferBytes = bufferBytes
	d.mu.Unlock()
	return h, nil
}

// Handles returns every handle opened so far.
func (d *Device) Handles() []*Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Handle(nil), d.handles...)
}

// BufferBytes returns the bufferBytes passed to the last Open.
func (d *Device) BufferBytes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufferBytes
}

// Leaked returns the number of opened handles that were never released.
func (d *Device) Leaked() int {
	n := 0
	for _, h := range d.Handles() {
		if h.Releases() == 0 {
			n++
		}
	}
	return n
}

// Handle is a fake capture.Handle.
type Handle struct {
	dev *Device

	mu       sync.Mutex
	state    capture.DeviceState
	offset   int
	reads    int
	stops    int
	releases int
	panicked bool
	errored  bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Start implements capture.Handle.
func (h *Handle) Start() error {
	if h.dev.StartErr != nil {
		return h.dev.StartErr
	}
	h.mu.Lock()
	h.state = capture.DeviceRecording
	h.mu.Unlock()
	return nil
}

// Read implements capture.Handle. It writes a ramp of sample values so tests
// can check offsets.
func (h *Handle) Read(buf []int16) (int, error) {
	if h.dev.Reading != nil {
		h.dev.Reading <- struct{}{}
	}

	h.mu.Lock()
	if h.releases > 0 {
		h.mu.Unlock()
		return 0, ErrReleased
	}
	h.reads++
	if h.dev.ReadPanic != nil && !h.panicked {
		h.panicked = true
		h.mu.Unlock()
		panic(h.dev.ReadPanic)
	}
	if h.dev.ReadErr != nil && !h.errored && h.offset >= h.dev.ReadErrAt {
		h.errored = true
		h.mu.Unlock()
		return 0, h.dev.ReadErr
	}
	h.mu.Unlock()

	if h.dev.Block {
		<-h.stopCh
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == capture.DeviceStopped {
		return 0, nil
	}

	chunk := h.dev.ChunkSize
	if chunk == 0 {
		chunk = 4096
	}
	n := min(chunk, len(buf))
	if h.dev.StopAt > 0 && h.offset+n >= h.dev.StopAt {
		n = h.dev.StopAt - h.offset
		h.state = capture.DeviceStopped
	}
	for i := 0; i < n; i++ {
		buf[i] = int16((h.offset + i) % 32768)
	}
	h.offset += n
	return n + h.dev.Overcount, nil
}

// State implements capture.Handle.
func (h *Handle) State() capture.DeviceState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Stop implements capture.Handle.
func (h *Handle) Stop() error {
	h.mu.Lock()
	h.state = capture.DeviceStopped
	h.stops++
	h.mu.Unlock()
	h.stopOnce.Do(func() { close(h.stopCh) })
	return nil
}

// Release implements capture.Handle.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases++
	h.state = capture.DeviceStopped
	return nil
}

// Offset returns the number of samples delivered.
func (h *Handle) Offset() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.offset
}

// Reads returns the number of Read calls.
func (h *Handle) Reads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}

// Stops returns the number of Stop calls.
func (h *Handle) Stops() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stops
}

// Releases returns the number of Release calls.
func (h *Handle) Releases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releases
}
