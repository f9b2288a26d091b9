package history

import (
	"time"

	"github.com/haivivi/echoprint/go/pkg/fingerprint"
)

// Record is the journal entry of one pass.
type Record struct {
	ID         string    `json:"id" yaml:"id" msgpack:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at" msgpack:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at" msgpack:"finished_at"`
	Seconds    int       `json:"seconds" yaml:"seconds" msgpack:"seconds"`
	Samples    int       `json:"samples" yaml:"samples" msgpack:"samples"`

	// Outcome is "finished", "interrupted" or "failed".
	Outcome string `json:"outcome" yaml:"outcome" msgpack:"outcome"`

	Code  string `json:"code,omitempty" yaml:"code,omitempty" msgpack:"code,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

// FromPass builds the record of a settled pass. It returns false while the
// pass is still running.
func FromPass(p *fingerprint.Pass) (Record, bool) {
	out := p.Outcome()
	if out.Kind == fingerprint.OutcomePending {
		return Record{}, false
	}
	rec := Record{
		ID:         p.ID.String(),
		StartedAt:  p.StartedAt,
		FinishedAt: out.FinishedAt,
		Seconds:    p.Seconds,
		Samples:    out.Samples,
		Outcome:    out.Kind.String(),
		Code:       out.Code,
	}
	if out.Kind == fingerprint.OutcomeFailed && out.Err != nil {
		rec.Error = out.Err.Error()
	}
	return rec, true
}
