package capture

import (
	"errors"
	"fmt"
	"sync"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	StateUnopened SessionState = iota
	StateRecording
	StateStopped
	StateReleased
)

func (s SessionState) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// FillResult is the outcome of Session.Fill.
type FillResult struct {
	// Samples is the whole session buffer. Only the first N samples are valid.
	Samples []int16

	// N is the number of samples written.
	N int

	// Complete is false when the device stopped before the buffer filled.
	Complete bool
}

// Valid returns the written part of the buffer.
func (r FillResult) Valid() []int16 {
	return r.Samples[:r.N]
}

// Session is one recording attempt against a Device.
//
// Fill and Close must be called from the same goroutine. Stop and State are
// safe from any goroutine.
type Session struct {
	cfg Config
	buf []int16

	mu     sync.Mutex
	handle Handle
	state  SessionState
}

// Open sizes the sample buffer, opens the device and starts recording.
//
// On failure the returned error is a *DeviceError and any partially opened
// handle has already been released.
func Open(dev Device, cfg Config) (*Session, error) {
	if dev == nil {
		return nil, errors.New("capture: nil device")
	}
	cfg = cfg.Normalize()
	if !cfg.Format.Valid() {
		return nil, fmt.Errorf("capture: invalid format %d", cfg.Format)
	}

	minSize, err := dev.MinBufferSize(cfg.Format)
	if err != nil {
		return nil, &DeviceError{Op: "min-buffer", Err: err}
	}
	if minSize <= 0 {
		return nil, &DeviceError{Op: "min-buffer", Err: fmt.Errorf("invalid size %d", minSize)}
	}

	s := &Session{
		cfg: cfg,
		buf: make([]int16, cfg.BufferLen(minSize)),
	}

	h, err := dev.Open(cfg.Source, cfg.Format, minSize)
	if err != nil {
		return nil, &DeviceError{Op: "open", Err: err}
	}
	if h == nil {
		return nil, &DeviceError{Op: "open", Err: errors.New("device returned no handle")}
	}
	if err := h.Start(); err != nil {
		h.Release()
		return nil, &DeviceError{Op: "start", Err: err}
	}

	s.handle = h
	s.state = StateRecording
	return s, nil
}

// Fill reads from the device until the buffer is full or the device reports
// it stopped. Short reads are not errors.
//
// A halted fill returns the partial buffer with Complete set to false and a
// nil error.
func (s *Session) Fill() (FillResult, error) {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()
	if h == nil {
		return FillResult{}, ErrClosed
	}

	off := 0
	for off < len(s.buf) {
		n, err := h.Read(s.buf[off:])
		if err != nil {
			return s.result(off, false), &DeviceError{Op: "read", Err: err}
		}
		if n < 0 || n > len(s.buf)-off {
			return s.result(off, false), &DeviceError{Op: "read", Err: fmt.Errorf("%w: %d", ErrBadRead, n)}
		}
		off += n
		if off < len(s.buf) && h.State() == DeviceStopped {
			s.mu.Lock()
			if s.state == StateRecording {
				s.state = StateStopped
			}
			s.mu.Unlock()
			return s.result(off, false), nil
		}
	}
	return s.result(off, true), nil
}

func (s *Session) result(n int, complete bool) FillResult {
	return FillResult{Samples: s.buf, N: n, Complete: complete}
}

// Stop stops the device. It is idempotent and does not wait for Fill.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil || s.state != StateRecording {
		return nil
	}
	s.state = StateStopped
	return s.handle.Stop()
}

// Close stops the device if needed and releases it. Only the first call
// releases; later calls return nil.
func (s *Session) Close() error {
	s.mu.Lock()
	h := s.handle
	prev := s.state
	s.handle = nil
	s.state = StateReleased
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	var stopErr error
	if prev == StateRecording {
		stopErr = h.Stop()
	}
	return errors.Join(stopErr, h.Release())
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Len returns the buffer length in samples.
func (s *Session) Len() int {
	return len(s.buf)
}

// Config returns the normalized configuration.
func (s *Session) Config() Config {
	return s.cfg
}
