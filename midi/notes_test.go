package midi

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestTrackerNoteOnOff(t *testing.T) {
	tr := NewNoteTracker()

	tr.Track(gomidi.NoteOn(1, 60, 100))
	if tr.Active() != 1 {
		t.Fatalf("after note-on: active = %d, want 1", tr.Active())
	}

	// Same note again should not double-count
	tr.Track(gomidi.NoteOn(1, 60, 80))
	if tr.Active() != 1 {
		t.Fatalf("after repeated note-on: active = %d, want 1", tr.Active())
	}

	tr.Track(gomidi.NoteOff(1, 60))
	if tr.Active() != 0 {
		t.Fatalf("after note-off: active = %d, want 0", tr.Active())
	}
}

func TestTrackerVelocityZeroIsNoteOff(t *testing.T) {
	tr := NewNoteTracker()

	tr.Track(gomidi.NoteOn(0, 64, 100))
	// Raw note-on with velocity 0 (MIDI running-status convention)
	tr.Track(gomidi.Message{0x90, 64, 0})

	if tr.Active() != 0 {
		t.Fatalf("velocity-0 note-on did not release: active = %d", tr.Active())
	}
}

func TestTrackerIgnoresNonNotes(t *testing.T) {
	tr := NewNoteTracker()

	tr.Track(gomidi.ControlChange(0, 7, 100))
	tr.Track(gomidi.Pitchbend(0, 1024))
	tr.Track(gomidi.Message{0xF8}) // clock

	if tr.Active() != 0 {
		t.Fatalf("non-note messages tracked: active = %d", tr.Active())
	}
}

func TestTrackerDistinguishesChannels(t *testing.T) {
	tr := NewNoteTracker()

	tr.Track(gomidi.NoteOn(1, 60, 100))
	tr.Track(gomidi.NoteOn(2, 60, 100))
	if tr.Active() != 2 {
		t.Fatalf("active = %d, want 2", tr.Active())
	}

	tr.Track(gomidi.NoteOff(1, 60))
	if tr.Active() != 1 {
		t.Fatalf("active = %d, want 1", tr.Active())
	}
}

func TestDrain(t *testing.T) {
	tr := NewNoteTracker()

	tr.Track(gomidi.NoteOn(2, 64, 100))
	tr.Track(gomidi.NoteOn(1, 60, 100))
	tr.Track(gomidi.NoteOn(1, 72, 100))

	released := tr.Drain()
	if len(released) != 3 {
		t.Fatalf("drained %d messages, want 3", len(released))
	}

	// Ordered by channel then note
	want := []struct{ channel, note uint8 }{{2, 60}, {2, 72}, {3, 64}}
	for i, msg := range released {
		channel, note, on, isNote := noteInfo(msg)
		if !isNote || on {
			t.Fatalf("drain message %d is not a note-off: % X", i, []byte(msg))
		}
		if channel != want[i].channel || note != want[i].note {
			t.Errorf("drain[%d] = ch%d note%d, want ch%d note%d",
				i, channel, note, want[i].channel, want[i].note)
		}
		if msg[2] != 0 {
			t.Errorf("drain[%d] velocity = %d, want 0", i, msg[2])
		}
	}

	if tr.Active() != 0 {
		t.Fatalf("drain left %d notes tracked", tr.Active())
	}
}

func TestDrainIdempotent(t *testing.T) {
	tr := NewNoteTracker()
	tr.Track(gomidi.NoteOn(0, 60, 100))

	if got := len(tr.Drain()); got != 1 {
		t.Fatalf("first drain: %d messages, want 1", got)
	}
	if got := len(tr.Drain()); got != 0 {
		t.Fatalf("second drain: %d messages, want 0", got)
	}
}

func TestDrainEmpty(t *testing.T) {
	if got := NewNoteTracker().Drain(); got != nil {
		t.Fatalf("drain of empty tracker returned %d messages", len(got))
	}
}
