package fingerprint

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrBusy is matched by the error Start returns while a pass is running.
	ErrBusy = errors.New("fingerprint: a pass is already running")

	// ErrGenerationFailed is reported when the generator yields no code.
	ErrGenerationFailed = errors.New("fingerprint: unable to generate the audio fingerprint")

	// ErrInterrupted is the Err of an interrupted Outcome. It is never
	// passed to Observer.DidFail.
	ErrInterrupted = errors.New("fingerprint: capture interrupted")
)

// BusyError is returned by Start when another pass is active.
type BusyError struct {
	Active uuid.UUID
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("fingerprint: pass %s is already running", e.Active)
}

// Is reports whether target is ErrBusy.
func (e *BusyError) Is(target error) bool {
	return target == ErrBusy
}

// UnexpectedError wraps a panic or unclassified failure caught at the pass
// boundary.
type UnexpectedError struct {
	// Step is the pass step that failed: "notify", "open", "fill", "close"
	// or "generate".
	Step string

	// Panic holds the recovered value when the failure was a panic.
	Panic any

	// Err is the underlying error, if any.
	Err error
}

func (e *UnexpectedError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("fingerprint: unexpected panic during %s: %v", e.Step, e.Panic)
	}
	return fmt.Sprintf("fingerprint: unexpected failure during %s: %v", e.Step, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}
