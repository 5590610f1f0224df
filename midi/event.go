package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Status nibbles for the channel voice messages the router cares about
const (
	StatusNoteOff uint8 = 0x80
	StatusNoteOn  uint8 = 0x90
)

// IsChannelMessage reports whether msg is a channel voice message
// (status 0x80-0xEF). System messages carry no channel and are never routed.
func IsChannelMessage(msg gomidi.Message) bool {
	if len(msg) < 1 {
		return false
	}
	return msg[0] >= 0x80 && msg[0] <= 0xEF
}

// MessageChannel extracts the 1-based channel from a channel voice message
func MessageChannel(msg gomidi.Message) (uint8, bool) {
	if !IsChannelMessage(msg) {
		return 0, false
	}
	return (msg[0] & 0x0F) + 1, true
}

// WithChannel returns a copy of msg with its channel rewritten (1-based).
// Non-channel messages are returned unchanged.
func WithChannel(msg gomidi.Message, channel uint8) gomidi.Message {
	if !IsChannelMessage(msg) {
		return msg
	}

	out := make(gomidi.Message, len(msg))
	copy(out, msg)
	out[0] = (out[0] & 0xF0) | ((channel - 1) & 0x0F)
	return out
}

// noteInfo classifies a message for note bookkeeping. A note-on with
// velocity 0 is a note-off by MIDI convention.
func noteInfo(msg gomidi.Message) (channel, note uint8, on, isNote bool) {
	if len(msg) < 3 || !IsChannelMessage(msg) {
		return 0, 0, false, false
	}

	channel = (msg[0] & 0x0F) + 1
	note = msg[1]

	switch msg[0] & 0xF0 {
	case StatusNoteOn:
		return channel, note, msg[2] > 0, true
	case StatusNoteOff:
		return channel, note, false, true
	}
	return 0, 0, false, false
}
