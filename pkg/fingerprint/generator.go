package fingerprint

import (
	"errors"
	"fmt"
)

// Result is the outcome of one code generation: either a non-empty Code or
// an Err.
type Result struct {
	Code string
	Err  error
}

// Succeeded returns a successful Result. An empty code is a failure.
func Succeeded(code string) Result {
	if code == "" {
		return Failed(ErrGenerationFailed)
	}
	return Result{Code: code}
}

// Failed returns a failed Result. A nil err means ErrGenerationFailed.
func Failed(err error) Result {
	if err == nil {
		err = ErrGenerationFailed
	}
	return Result{Err: err}
}

// OK reports whether r carries a usable code.
func (r Result) OK() bool {
	return r.Err == nil && r.Code != ""
}

// err returns the failure reported for r, always matching
// ErrGenerationFailed.
func (r Result) err() error {
	switch {
	case r.Err == nil:
		return ErrGenerationFailed
	case errors.Is(r.Err, ErrGenerationFailed):
		return r.Err
	default:
		return fmt.Errorf("%w: %w", ErrGenerationFailed, r.Err)
	}
}

// Generator turns captured samples into a fingerprint code. Only the first n
// samples are valid.
type Generator interface {
	Generate(samples []int16, n int) Result
}

// GeneratorFunc adapts a function returning a bare code. An empty string
// signals failure.
type GeneratorFunc func(samples []int16, n int) string

// Generate implements Generator.
func (f GeneratorFunc) Generate(samples []int16, n int) Result {
	return Succeeded(f(samples, n))
}
