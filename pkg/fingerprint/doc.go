// Package fingerprint runs capture-and-generate passes and reports each one
// to a single Observer.
//
// A pass records a clamped window of audio (10 to 30 seconds) on its own
// goroutine, releases the device, hands the samples to a Generator and emits
// exactly one terminal notification:
//
//	WillStartListening
//	    then one of
//	DidFinishListening(code) | DidInterrupt() | DidFail(err)
//
// Notifications go through the Dispatcher chosen at construction. Use
// dispatch.Direct to receive them on the worker goroutine, or a dispatch.Loop
// to have them marshaled onto the goroutine running the loop.
//
// Example:
//
//	p, err := fingerprint.New(fingerprint.Config{
//	    Device:     dev,
//	    Generator:  gen,
//	    Observer:   obs,
//	    Dispatcher: loop,
//	})
//	if err != nil {
//	    return err
//	}
//	pass, err := p.Start(ctx, 20)
//	if errors.Is(err, fingerprint.ErrBusy) {
//	    // A pass is still running.
//	}
//	// ...
//	p.Cancel() // pass reports DidInterrupt
//
// Only one pass runs per Pipeline at a time; Start rejects overlapping passes
// with ErrBusy.
package fingerprint
