// Package capture records one bounded window of microphone audio.
//
// A Session owns a single recording attempt: it sizes the sample buffer from
// the device minimum and the requested duration, starts the device, fills the
// buffer with blocking reads and releases the device exactly once.
//
//	s, err := capture.Open(dev, capture.Config{Seconds: 20})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	res, err := s.Fill()
//	if err != nil {
//	    return err
//	}
//	if !res.Complete {
//	    // Stop was called before the buffer filled.
//	}
//
// Stop may be called from any goroutine while Fill is running. Fill observes
// it at its next state check, after the read in flight returns.
package capture
