package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestMessageChannel(t *testing.T) {
	cases := []struct {
		name    string
		msg     gomidi.Message
		channel uint8
		ok      bool
	}{
		{"note-on ch1", gomidi.NoteOn(0, 60, 100), 1, true},
		{"note-off ch16", gomidi.NoteOff(15, 60), 16, true},
		{"cc ch5", gomidi.ControlChange(4, 7, 100), 5, true},
		{"program change ch2", gomidi.ProgramChange(1, 10), 2, true},
		{"clock", gomidi.Message{0xF8}, 0, false},
		{"sysex-ish", gomidi.Message{0xF0, 0x7E, 0xF7}, 0, false},
		{"empty", gomidi.Message{}, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			channel, ok := MessageChannel(tc.msg)
			if ok != tc.ok || channel != tc.channel {
				t.Errorf("got (%d, %v), want (%d, %v)", channel, ok, tc.channel, tc.ok)
			}
		})
	}
}

func TestWithChannel(t *testing.T) {
	orig := gomidi.NoteOn(0, 60, 100)
	moved := WithChannel(orig, 3)

	if ch, _ := MessageChannel(moved); ch != 3 {
		t.Errorf("rewritten channel = %d, want 3", ch)
	}
	if moved[1] != 60 || moved[2] != 100 {
		t.Errorf("data bytes changed: % X", []byte(moved))
	}
	if ch, _ := MessageChannel(orig); ch != 1 {
		t.Error("original message was mutated")
	}
}

func TestWithChannelNonChannelMessage(t *testing.T) {
	clock := gomidi.Message{0xF8}
	if got := WithChannel(clock, 5); !bytes.Equal(got, clock) {
		t.Errorf("system message rewritten: % X", []byte(got))
	}
}
