package router

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"tr-router/debug"
)

// Callback returns the func the MIDI driver invokes once per inbound
// message. It must never stop the listener: empty or malformed messages are
// dropped and logged, and a panic anywhere below is recovered. The driver
// calls it serially in arrival order, so routing order follows input order.
func (e *Engine) Callback() func(msg gomidi.Message, timestampms int32) {
	return func(msg gomidi.Message, timestampms int32) {
		defer func() {
			if r := recover(); r != nil {
				debug.Log("dispatch", "recovered from %v (msg % X)", r, []byte(msg))
			}
		}()

		if len(msg) == 0 {
			debug.Log("dispatch", "dropping empty message")
			return
		}

		e.Handle(msg, timestampms)
	}
}
