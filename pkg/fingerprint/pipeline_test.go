package fingerprint_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/haivivi/echoprint/go/pkg/capture"
	"github.com/haivivi/echoprint/go/pkg/capture/capturetest"
	"github.com/haivivi/echoprint/go/pkg/dispatch"
	"github.com/haivivi/echoprint/go/pkg/fingerprint"
)

// recorder is an Observer that records every notification.
type recorder struct {
	mu     sync.Mutex
	events []string
	code   string
	err    error
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) WillStartListening() { r.add("start") }

func (r *recorder) DidFinishListening(code string) {
	r.mu.Lock()
	r.code = code
	r.mu.Unlock()
	r.add("finish")
}

func (r *recorder) DidInterrupt() { r.add("interrupt") }

func (r *recorder) DidFail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.add("fail")
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func newPipeline(t *testing.T, dev capture.Device, gen fingerprint.Generator, obs fingerprint.Observer) *fingerprint.Pipeline {
	t.Helper()
	p, err := fingerprint.New(fingerprint.Config{
		Device:    dev,
		Generator: gen,
		Observer:  obs,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func wait(t *testing.T, pass *fingerprint.Pass) fingerprint.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := pass.Wait(ctx)
	if err != nil {
		t.Fatalf("pass did not settle: %v", err)
	}
	return out
}

func expectEvents(t *testing.T, obs *recorder, want ...string) {
	t.Helper()
	if got := obs.Events(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestPassFinishes(t *testing.T) {
	dev := &capturetest.Device{}
	obs := &recorder{}

	var (
		calls     int
		gotN      int
		gotLen    int
		leakedGen int
	)
	gen := fingerprint.GeneratorFunc(func(samples []int16, n int) string {
		calls++
		gotN, gotLen = n, len(samples)
		leakedGen = dev.Leaked()
		return "ABC123"
	})
	p := newPipeline(t, dev, gen, obs)

	pass, err := p.Start(context.Background(), 5)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if pass.Seconds != 10 {
		t.Errorf("Seconds = %d, want 10", pass.Seconds)
	}
	out := wait(t, pass)

	expectEvents(t, obs, "start", "finish")
	if obs.code != "ABC123" {
		t.Errorf("code = %q, want ABC123", obs.code)
	}
	if out.Kind != fingerprint.OutcomeFinished || out.Code != "ABC123" || out.Samples != 110250 {
		t.Errorf("outcome = %+v", out)
	}
	if calls != 1 {
		t.Errorf("generator calls = %d, want 1", calls)
	}
	if gotN != 110250 || gotLen != 110250 {
		t.Errorf("generator got n=%d len=%d, want 110250", gotN, gotLen)
	}
	if leakedGen != 0 {
		t.Error("device still open while generating")
	}
	if dev.Leaked() != 0 {
		t.Error("device handle leaked")
	}
	if p.Active() != nil {
		t.Error("pipeline still reports an active pass")
	}
}

func TestPassClampsUp(t *testing.T) {
	dev := &capturetest.Device{ChunkSize: 1 << 16}
	var gotN int
	gen := fingerprint.GeneratorFunc(func(_ []int16, n int) string {
		gotN = n
		return "code"
	})
	p := newPipeline(t, dev, gen, nil)

	pass, err := p.Start(context.Background(), 120)
	if err != nil {
		t.Fatal(err)
	}
	if out := wait(t, pass); out.Kind != fingerprint.OutcomeFinished {
		t.Fatalf("outcome = %+v", out)
	}
	if pass.Seconds != 30 || gotN != 330750 {
		t.Errorf("Seconds = %d, n = %d; want 30, 330750", pass.Seconds, gotN)
	}
}

func TestPassInterruptedByDevice(t *testing.T) {
	dev := &capturetest.Device{StopAt: 50000}
	obs := &recorder{}
	called := false
	gen := fingerprint.GeneratorFunc(func([]int16, int) string {
		called = true
		return "ABC123"
	})
	p := newPipeline(t, dev, gen, obs)

	pass, err := p.Start(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	out := wait(t, pass)

	expectEvents(t, obs, "start", "interrupt")
	if called {
		t.Error("generator invoked for an interrupted pass")
	}
	if out.Kind != fingerprint.OutcomeInterrupted || out.Samples != 50000 {
		t.Errorf("outcome = %+v", out)
	}
	if !errors.Is(out.Err, fingerprint.ErrInterrupted) {
		t.Errorf("outcome err = %v", out.Err)
	}
	if dev.Leaked() != 0 {
		t.Error("device handle leaked")
	}
}

func TestPassOpenFailure(t *testing.T) {
	busy := errors.New("busy")
	dev := &capturetest.Device{OpenErr: busy}
	obs := &recorder{}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), obs)

	pass, err := p.Start(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	out := wait(t, pass)

	expectEvents(t, obs, "start", "fail")
	var de *capture.DeviceError
	if !errors.As(obs.Err(), &de) {
		t.Fatalf("DidFail got %T %v, want *capture.DeviceError", obs.Err(), obs.Err())
	}
	if !errors.Is(obs.Err(), busy) {
		t.Errorf("error does not wrap device cause: %v", obs.Err())
	}
	if out.Kind != fingerprint.OutcomeFailed {
		t.Errorf("outcome = %+v", out)
	}
	if dev.Leaked() != 0 {
		t.Error("device handle leaked")
	}
}

func TestPassGenerationFailures(t *testing.T) {
	custom := errors.New("codegen crashed")
	tests := []struct {
		name string
		gen  fingerprint.Generator
		is   []error
	}{
		{
			name: "empty code",
			gen:  fingerprint.GeneratorFunc(func([]int16, int) string { return "" }),
			is:   []error{fingerprint.ErrGenerationFailed},
		},
		{
			name: "failed result",
			gen: generatorOf(func([]int16, int) fingerprint.Result {
				return fingerprint.Failed(custom)
			}),
			is: []error{fingerprint.ErrGenerationFailed, custom},
		},
		{
			name: "zero result",
			gen: generatorOf(func([]int16, int) fingerprint.Result {
				return fingerprint.Result{}
			}),
			is: []error{fingerprint.ErrGenerationFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &capturetest.Device{}
			obs := &recorder{}
			p := newPipeline(t, dev, tt.gen, obs)
			pass, err := p.Start(context.Background(), 10)
			if err != nil {
				t.Fatal(err)
			}
			out := wait(t, pass)

			expectEvents(t, obs, "start", "fail")
			for _, target := range tt.is {
				if !errors.Is(obs.Err(), target) {
					t.Errorf("DidFail(%v) does not match %v", obs.Err(), target)
				}
			}
			if out.Kind != fingerprint.OutcomeFailed {
				t.Errorf("outcome = %+v", out)
			}
			if dev.Leaked() != 0 {
				t.Error("device handle leaked")
			}
		})
	}
}

type generatorOf func(samples []int16, n int) fingerprint.Result

func (f generatorOf) Generate(samples []int16, n int) fingerprint.Result { return f(samples, n) }

func TestPassUnexpectedFailures(t *testing.T) {
	ok := fingerprint.GeneratorFunc(func([]int16, int) string { return "ok" })
	tests := []struct {
		name string
		dev  *capturetest.Device
		gen  fingerprint.Generator
		step string
	}{
		{
			name: "device panic",
			dev:  &capturetest.Device{ReadPanic: "driver bug"},
			gen:  ok,
			step: "fill",
		},
		{
			name: "generator panic",
			dev:  &capturetest.Device{},
			gen: fingerprint.GeneratorFunc(func([]int16, int) string {
				panic(errors.New("segfault"))
			}),
			step: "generate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recorder{}
			p := newPipeline(t, tt.dev, tt.gen, obs)
			pass, err := p.Start(context.Background(), 10)
			if err != nil {
				t.Fatal(err)
			}
			out := wait(t, pass)

			expectEvents(t, obs, "start", "fail")
			var ue *fingerprint.UnexpectedError
			if !errors.As(out.Err, &ue) {
				t.Fatalf("outcome err = %T %v, want *UnexpectedError", out.Err, out.Err)
			}
			if ue.Step != tt.step {
				t.Errorf("Step = %q, want %q", ue.Step, tt.step)
			}
			if tt.dev.Leaked() != 0 {
				t.Error("device handle leaked")
			}
		})
	}
}

func TestPassReadError(t *testing.T) {
	dev := &capturetest.Device{ReadErr: errors.New("overrun"), ReadErrAt: 4096}
	obs := &recorder{}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), obs)

	pass, err := p.Start(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	out := wait(t, pass)

	expectEvents(t, obs, "start", "fail")
	if !capture.IsDeviceError(out.Err) {
		t.Errorf("outcome err = %v, want DeviceError", out.Err)
	}
	if out.Samples != 4096 {
		t.Errorf("Samples = %d, want 4096", out.Samples)
	}
	if dev.Leaked() != 0 {
		t.Error("device handle leaked")
	}
}

func TestCancelInterruptsPass(t *testing.T) {
	dev := &capturetest.Device{Block: true, Reading: make(chan struct{}, 1)}
	obs := &recorder{}
	called := false
	gen := fingerprint.GeneratorFunc(func([]int16, int) string {
		called = true
		return "x"
	})
	p := newPipeline(t, dev, gen, obs)

	p.Cancel() // no pass yet; must be a no-op

	pass, err := p.Start(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	<-dev.Reading
	p.Cancel()
	out := wait(t, pass)

	expectEvents(t, obs, "start", "interrupt")
	if called {
		t.Error("generator invoked after cancel")
	}
	if out.Kind != fingerprint.OutcomeInterrupted {
		t.Errorf("outcome = %+v", out)
	}
	if dev.Leaked() != 0 {
		t.Error("device handle leaked")
	}
}

func TestContextCancelInterruptsPass(t *testing.T) {
	dev := &capturetest.Device{Block: true, Reading: make(chan struct{}, 1)}
	obs := &recorder{}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), obs)

	ctx, cancel := context.WithCancel(context.Background())
	pass, err := p.Start(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	<-dev.Reading
	cancel()

	if out := wait(t, pass); out.Kind != fingerprint.OutcomeInterrupted {
		t.Errorf("outcome = %+v", out)
	}
	expectEvents(t, obs, "start", "interrupt")
}

func TestCanceledContextBeforeStart(t *testing.T) {
	dev := &capturetest.Device{Block: true}
	obs := &recorder{}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), obs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pass, err := p.Start(ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	if out := wait(t, pass); out.Kind != fingerprint.OutcomeInterrupted {
		t.Errorf("outcome = %+v", out)
	}
	expectEvents(t, obs, "start", "interrupt")
	if dev.Leaked() != 0 {
		t.Error("device handle leaked")
	}
}

func TestStartRejectsOverlap(t *testing.T) {
	dev := &capturetest.Device{Block: true, Reading: make(chan struct{}, 1)}
	obs := &recorder{}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), obs)

	first, err := p.Start(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	<-dev.Reading

	second, err := p.Start(context.Background(), 10)
	if second != nil {
		t.Fatal("overlapping Start returned a pass")
	}
	if !errors.Is(err, fingerprint.ErrBusy) {
		t.Fatalf("overlapping Start = %v, want ErrBusy", err)
	}
	var be *fingerprint.BusyError
	if !errors.As(err, &be) || be.Active != first.ID {
		t.Errorf("BusyError = %+v, want active %s", be, first.ID)
	}
	if p.Active() != first {
		t.Error("active pass replaced by rejected Start")
	}

	p.Cancel()
	wait(t, first)
	expectEvents(t, obs, "start", "interrupt")

	// The pipeline accepts a new pass once the first settled.
	dev.Block = false
	dev.Reading = nil
	third, err := p.Start(context.Background(), 10)
	if err != nil {
		t.Fatalf("Start after settle: %v", err)
	}
	if out := wait(t, third); out.Kind != fingerprint.OutcomeFinished {
		t.Errorf("third outcome = %+v", out)
	}
}

func TestNilObserver(t *testing.T) {
	dev := &capturetest.Device{}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), nil)
	pass, err := p.StartDefault(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pass.Seconds != capture.DefaultSeconds {
		t.Errorf("Seconds = %d, want %d", pass.Seconds, capture.DefaultSeconds)
	}
	if out := wait(t, pass); out.Kind != fingerprint.OutcomeFinished {
		t.Errorf("outcome = %+v", out)
	}
}

func TestLoopDispatchMarshalsNotifications(t *testing.T) {
	dev := &capturetest.Device{}
	obs := &recorder{}
	loop := dispatch.NewLoop(nil)
	p, err := fingerprint.New(fingerprint.Config{
		Device:     dev,
		Generator:  fingerprint.GeneratorFunc(func([]int16, int) string { return "ABC123" }),
		Observer:   obs,
		Dispatcher: loop,
	})
	if err != nil {
		t.Fatal(err)
	}

	pass, err := p.Start(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	wait(t, pass)

	// Nothing ran on the worker goroutine.
	expectEvents(t, obs)
	if loop.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", loop.Pending())
	}
	if n := loop.Drain(); n != 2 {
		t.Fatalf("Drain() = %d, want 2", n)
	}
	expectEvents(t, obs, "start", "finish")
}

func TestObserverPanicStillTerminates(t *testing.T) {
	dev := &capturetest.Device{}
	var failures []error
	obs := fingerprint.ObserverFuncs{
		OnWillStart: func() { panic("ui bug") },
		OnFinish:    func(string) { t.Error("finish delivered after a failed pass") },
		OnFail:      func(err error) { failures = append(failures, err) },
	}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), obs)

	pass, err := p.Start(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	out := wait(t, pass)

	var ue *fingerprint.UnexpectedError
	if !errors.As(out.Err, &ue) || ue.Step != "notify" {
		t.Fatalf("outcome err = %v", out.Err)
	}
	if len(failures) != 1 {
		t.Fatalf("DidFail called %d times, want 1", len(failures))
	}
	if dev.Leaked() != 0 || len(dev.Handles()) != 0 {
		t.Error("device opened after failed notification")
	}
}

func TestNewValidation(t *testing.T) {
	gen := fingerprint.GeneratorFunc(func([]int16, int) string { return "x" })
	if _, err := fingerprint.New(fingerprint.Config{Generator: gen}); err == nil {
		t.Error("New without Device succeeded")
	}
	if _, err := fingerprint.New(fingerprint.Config{Device: &capturetest.Device{}}); err == nil {
		t.Error("New without Generator succeeded")
	}
	if _, err := fingerprint.New(fingerprint.Config{Device: &capturetest.Device{}, Generator: gen, Format: 77}); err == nil {
		t.Error("New with invalid format succeeded")
	}
}

func TestResultHelpers(t *testing.T) {
	if r := fingerprint.Succeeded("abc"); !r.OK() || r.Code != "abc" {
		t.Errorf("Succeeded(abc) = %+v", r)
	}
	if r := fingerprint.Succeeded(""); r.OK() || !errors.Is(r.Err, fingerprint.ErrGenerationFailed) {
		t.Errorf("Succeeded(\"\") = %+v", r)
	}
	if r := fingerprint.Failed(nil); r.OK() || !errors.Is(r.Err, fingerprint.ErrGenerationFailed) {
		t.Errorf("Failed(nil) = %+v", r)
	}
}

func TestOutcomePendingWhileRunning(t *testing.T) {
	dev := &capturetest.Device{Block: true, Reading: make(chan struct{}, 1)}
	p := newPipeline(t, dev, fingerprint.GeneratorFunc(func([]int16, int) string { return "x" }), nil)
	pass, err := p.Start(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	<-dev.Reading
	if k := pass.Outcome().Kind; k != fingerprint.OutcomePending {
		t.Errorf("Outcome().Kind = %v while running", k)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pass.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want DeadlineExceeded", err)
	}
	pass.Cancel()
	wait(t, pass)
	if k := pass.Outcome().Kind; k != fingerprint.OutcomeInterrupted {
		t.Errorf("Outcome().Kind = %v after cancel", k)
	}
}
