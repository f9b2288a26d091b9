package fingerprint

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/haivivi/echoprint/go/pkg/audio/pcm"
	"github.com/haivivi/echoprint/go/pkg/capture"
	"github.com/haivivi/echoprint/go/pkg/dispatch"
)

// Config configures a Pipeline.
type Config struct {
	// Device is the capture backend. Required.
	Device capture.Device

	// Generator turns samples into a code. Required.
	Generator Generator

	// Observer receives notifications. Nil skips them.
	Observer Observer

	// Dispatcher delivers notifications. Nil means dispatch.Direct.
	Dispatcher dispatch.Dispatcher

	// Format is the capture format. Zero value is pcm.L16Mono11K.
	Format pcm.Format

	// Source is the device input path.
	Source capture.Source

	// Logger is used for pass diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Pipeline runs fingerprinting passes one at a time.
type Pipeline struct {
	dev    capture.Device
	gen    Generator
	format pcm.Format
	source capture.Source
	notify notifier
	logger *slog.Logger

	active atomic.Pointer[Pass]
}

// New creates a Pipeline. The observer and dispatcher are fixed for its
// lifetime.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Device == nil {
		return nil, errors.New("fingerprint: Config.Device is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("fingerprint: Config.Generator is required")
	}
	if !cfg.Format.Valid() {
		return nil, errors.New("fingerprint: invalid Config.Format")
	}
	d := cfg.Dispatcher
	if d == nil {
		d = dispatch.Direct
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		dev:    cfg.Device,
		gen:    cfg.Generator,
		format: cfg.Format,
		source: cfg.Source,
		notify: notifier{obs: cfg.Observer, d: d},
		logger: logger,
	}, nil
}

// Start begins a pass of the given duration, clamped to
// [capture.MinSeconds, capture.MaxSeconds], and returns without waiting for
// it. Canceling ctx has the same effect as Cancel.
//
// If a pass is already running Start returns a *BusyError matching ErrBusy
// and the running pass is unaffected.
func (p *Pipeline) Start(ctx context.Context, seconds int) (*Pass, error) {
	pass := newPass(capture.ClampSeconds(seconds))
	if !p.active.CompareAndSwap(nil, pass) {
		busy := &BusyError{}
		if cur := p.active.Load(); cur != nil {
			busy.Active = cur.ID
		}
		return nil, busy
	}

	stopCtx := context.AfterFunc(ctx, pass.Cancel)
	go p.run(pass, stopCtx)
	return pass, nil
}

// StartDefault is Start with capture.DefaultSeconds.
func (p *Pipeline) StartDefault(ctx context.Context) (*Pass, error) {
	return p.Start(ctx, capture.DefaultSeconds)
}

// Cancel asks the active pass, if any, to stop recording. It does not wait
// for the pass to settle.
func (p *Pipeline) Cancel() {
	if pass := p.active.Load(); pass != nil {
		pass.Cancel()
	}
}

// Active returns the running pass, or nil.
func (p *Pipeline) Active() *Pass {
	return p.active.Load()
}

func (p *Pipeline) run(pass *Pass, stopCtx func() bool) {
	log := p.logger.With("pass", pass.ID.String(), "seconds", pass.Seconds)
	defer func() {
		stopCtx()
		p.active.CompareAndSwap(pass, nil)
		close(pass.done)
	}()

	out := p.execute(pass, log)
	out.FinishedAt = time.Now()
	pass.outcome = out

	switch out.Kind {
	case OutcomeFinished:
		log.Info("fingerprint: pass finished", "samples", out.Samples, "code_len", len(out.Code))
	case OutcomeInterrupted:
		log.Info("fingerprint: pass interrupted", "samples", out.Samples)
	default:
		log.Warn("fingerprint: pass failed", "err", out.Err)
	}

	p.deliver(log, out)
}

// deliver emits the terminal notification. An observer panicking under
// direct dispatch is logged and not reported again.
func (p *Pipeline) deliver(log *slog.Logger, out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("fingerprint: observer panicked", "panic", r)
		}
	}()
	switch out.Kind {
	case OutcomeFinished:
		p.notify.finish(out.Code)
	case OutcomeInterrupted:
		p.notify.interrupt()
	default:
		p.notify.fail(out.Err)
	}
}

// execute runs the pass steps and converts every exit into an Outcome. The
// session is released before execute returns, on every path.
func (p *Pipeline) execute(pass *Pass, log *slog.Logger) (out Outcome) {
	var (
		session *capture.Session
		step    = "notify"
		samples int
	)
	defer func() {
		pass.detach()
		if session != nil {
			if err := session.Close(); err != nil {
				log.Warn("fingerprint: release device", "err", err)
			}
		}
		if r := recover(); r != nil {
			log.Error("fingerprint: pass panicked", "step", step, "panic", r, "stack", string(debug.Stack()))
			out = failed(&UnexpectedError{Step: step, Panic: r}, samples)
		}
	}()

	p.notify.willStart()

	step = "open"
	session, err := capture.Open(p.dev, capture.Config{
		Format:  p.format,
		Seconds: pass.Seconds,
		Source:  p.source,
	})
	if err != nil {
		return failed(err, 0)
	}
	pass.attach(session)
	log.Debug("fingerprint: recording", "buffer", session.Len())

	step = "fill"
	res, err := session.Fill()
	samples = res.N
	if err != nil {
		return failed(err, samples)
	}
	if !res.Complete {
		return interrupted(samples)
	}

	// Release the device before generation, which may be slow.
	step = "close"
	pass.detach()
	closeErr := session.Close()
	session = nil
	if closeErr != nil {
		log.Warn("fingerprint: release device", "err", closeErr)
	}

	step = "generate"
	r := p.gen.Generate(res.Samples, res.N)
	if !r.OK() {
		return failed(r.err(), samples)
	}
	return finished(r.Code, samples)
}
