package midi

import (
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// noteKey identifies a sounding note on an output. Channel is 1-based.
type noteKey struct {
	channel uint8
	note    uint8
}

// NoteTracker records the notes currently sounding on one output port,
// maintained from the messages actually written there. Every emitted note is
// tracked so a reconfiguration or shutdown can release it precisely instead
// of guessing from the current mapping.
//
// Not safe for concurrent use; the router owns one tracker per output and
// serializes access.
type NoteTracker struct {
	active map[noteKey]struct{}
}

// NewNoteTracker returns an empty tracker
func NewNoteTracker() *NoteTracker {
	return &NoteTracker{
		active: make(map[noteKey]struct{}, 32),
	}
}

// Track updates the tracker from a message written to the output. Note-on
// inserts, note-off (or note-on with velocity 0) removes. Other messages are
// ignored.
func (t *NoteTracker) Track(msg gomidi.Message) {
	channel, note, on, isNote := noteInfo(msg)
	if !isNote {
		return
	}

	key := noteKey{channel: channel, note: note}
	if on {
		t.active[key] = struct{}{}
	} else {
		delete(t.active, key)
	}
}

// Active returns the number of currently sounding notes
func (t *NoteTracker) Active() int {
	return len(t.active)
}

// Drain returns a velocity-0 note-off for every sounding note and empties
// the tracker. A second drain with no intervening traffic returns nothing.
// Results are ordered by channel then note so the release sweep is
// deterministic.
func (t *NoteTracker) Drain() []gomidi.Message {
	if len(t.active) == 0 {
		return nil
	}

	keys := make([]noteKey, 0, len(t.active))
	for k := range t.active {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].channel != keys[j].channel {
			return keys[i].channel < keys[j].channel
		}
		return keys[i].note < keys[j].note
	})

	msgs := make([]gomidi.Message, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, gomidi.NoteOff(k.channel-1, k.note))
	}

	t.active = make(map[noteKey]struct{}, 32)
	return msgs
}
