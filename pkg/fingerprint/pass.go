package fingerprint

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/echoprint/go/pkg/capture"
)

// OutcomeKind classifies how a pass ended.
type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeFinished
	OutcomeInterrupted
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeFinished:
		return "finished"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the terminal state of a pass. It mirrors the notification the
// observer received.
type Outcome struct {
	Kind OutcomeKind

	// Code is set when Kind is OutcomeFinished.
	Code string

	// Err is ErrInterrupted for interrupted passes and the reported error
	// for failed ones.
	Err error

	// Samples is the number of samples captured.
	Samples int

	// FinishedAt is when the pass settled.
	FinishedAt time.Time
}

func finished(code string, n int) Outcome {
	return Outcome{Kind: OutcomeFinished, Code: code, Samples: n}
}

func interrupted(n int) Outcome {
	return Outcome{Kind: OutcomeInterrupted, Err: ErrInterrupted, Samples: n}
}

func failed(err error, n int) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err, Samples: n}
}

// Pass is one running or settled capture-and-generate pass.
type Pass struct {
	ID        uuid.UUID
	Seconds   int
	StartedAt time.Time

	session  atomic.Pointer[capture.Session]
	canceled atomic.Bool

	done    chan struct{}
	outcome Outcome
}

func newPass(seconds int) *Pass {
	return &Pass{
		ID:        uuid.New(),
		Seconds:   seconds,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Cancel asks the pass to stop recording. It does not wait. Canceling
// after the capture completed has no effect.
func (p *Pass) Cancel() {
	p.canceled.Store(true)
	if s := p.session.Load(); s != nil {
		s.Stop()
	}
}

// attach publishes the session so Cancel can reach it. A cancel that raced
// ahead of the publication is applied here.
func (p *Pass) attach(s *capture.Session) {
	p.session.Store(s)
	if p.canceled.Load() {
		s.Stop()
	}
}

func (p *Pass) detach() {
	p.session.Store(nil)
}

// Done is closed once the terminal notification has been dispatched.
func (p *Pass) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the terminal state, or an OutcomePending value while the
// pass is running.
func (p *Pass) Outcome() Outcome {
	select {
	case <-p.done:
		return p.outcome
	default:
		return Outcome{Kind: OutcomePending}
	}
}

// Wait blocks until the pass settles or ctx is done.
func (p *Pass) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{Kind: OutcomePending}, ctx.Err()
	}
}
