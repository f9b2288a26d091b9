package fingerprint

import "github.com/haivivi/echoprint/go/pkg/dispatch"

// Observer receives the lifecycle notifications of each pass.
type Observer interface {
	// WillStartListening is called before the device is opened.
	WillStartListening()

	// DidFinishListening is called with the generated code.
	DidFinishListening(code string)

	// DidInterrupt is called when the capture was stopped before the
	// buffer filled.
	DidInterrupt()

	// DidFail is called when the device, the generator or anything else
	// failed.
	DidFail(err error)
}

// ObserverFuncs is an Observer built from optional functions. Nil fields
// are skipped.
type ObserverFuncs struct {
	OnWillStart func()
	OnFinish    func(code string)
	OnInterrupt func()
	OnFail      func(err error)
}

func (o ObserverFuncs) WillStartListening() {
	if o.OnWillStart != nil {
		o.OnWillStart()
	}
}

func (o ObserverFuncs) DidFinishListening(code string) {
	if o.OnFinish != nil {
		o.OnFinish(code)
	}
}

func (o ObserverFuncs) DidInterrupt() {
	if o.OnInterrupt != nil {
		o.OnInterrupt()
	}
}

func (o ObserverFuncs) DidFail(err error) {
	if o.OnFail != nil {
		o.OnFail(err)
	}
}

// notifier delivers notifications to an optional observer through a
// dispatcher.
type notifier struct {
	obs Observer
	d   dispatch.Dispatcher
}

func (n notifier) willStart() {
	if n.obs == nil {
		return
	}
	n.d.Dispatch(n.obs.WillStartListening)
}

func (n notifier) finish(code string) {
	if n.obs == nil {
		return
	}
	obs := n.obs
	n.d.Dispatch(func() { obs.DidFinishListening(code) })
}

func (n notifier) interrupt() {
	if n.obs == nil {
		return
	}
	n.d.Dispatch(n.obs.DidInterrupt)
}

func (n notifier) fail(err error) {
	if n.obs == nil {
		return
	}
	obs := n.obs
	n.d.Dispatch(func() { obs.DidFail(err) })
}
