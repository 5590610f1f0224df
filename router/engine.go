// Package router implements the dispatch core: it fans every event accepted
// on the input channel out to the configured outputs, rewriting the channel
// per output, and guarantees that no note is left sounding across a
// reconfiguration or shutdown.
package router

import (
	"fmt"
	"sync"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"tr-router/config"
	"tr-router/debug"
	"tr-router/midi"
)

// Output is one routing destination: a named port and its send func
type Output struct {
	Name string
	Send midi.Sender
}

// route maps the input channel onto one output (index into Engine.outputs)
// with its 1-based destination channel
type route struct {
	output  int
	channel uint8
}

// routeTable is an immutable snapshot derived from a Config. It is replaced
// wholesale on reconfiguration, never mutated.
type routeTable struct {
	inputChannel uint8
	routes       []route
}

// Engine routes inbound messages to the outputs. Handle runs on the MIDI
// driver's callback thread; Apply/Rebind/Shutdown run on the control path.
// The route table is published by atomic replacement so the dispatch path
// reads a consistent snapshot with a single load. The RWMutex only
// serializes fan-out against the drain that precedes a table swap; neither
// side holds it across file or port I/O beyond the sends themselves.
type Engine struct {
	mu       sync.RWMutex
	outputs  []Output
	trackers []*midi.NoteTracker
	table    atomic.Pointer[routeTable]
	stopped  atomic.Bool

	// Quiet suppresses per-event console logging
	Quiet bool
}

// New creates an engine routing to outputs per cfg. Outputs and cfg.Outputs
// are expected to match by name; config entries without an open port are
// skipped.
func New(outputs []Output, cfg *config.Config) *Engine {
	e := &Engine{outputs: outputs}
	e.trackers = make([]*midi.NoteTracker, len(outputs))
	for i := range outputs {
		e.trackers[i] = midi.NewNoteTracker()
	}
	e.table.Store(buildTable(outputs, cfg))
	return e
}

func buildTable(outputs []Output, cfg *config.Config) *routeTable {
	byName := make(map[string]int, len(outputs))
	for i, out := range outputs {
		byName[out.Name] = i
	}

	rt := &routeTable{inputChannel: cfg.Input.Channel}
	for _, out := range cfg.Outputs {
		idx, ok := byName[out.Name]
		if !ok {
			debug.Log("router", "no open port for output %q, skipping", out.Name)
			continue
		}
		rt.routes = append(rt.routes, route{output: idx, channel: out.Channel})
	}
	return rt
}

// Handle routes one inbound message. Messages that are not channel voice
// messages, or whose channel is not the input channel, are dropped.
func (e *Engine) Handle(msg gomidi.Message, timestampms int32) {
	if e.stopped.Load() {
		return
	}

	channel, ok := midi.MessageChannel(msg)
	if !ok {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	rt := e.table.Load()
	if channel != rt.inputChannel {
		if !e.Quiet {
			fmt.Printf("\033[2m[dropped] ch:%d %s\033[0m\n", channel, msg.String())
		}
		debug.LogEvery(100, "router", "dropped event on channel %d", channel)
		return
	}

	for _, r := range rt.routes {
		out := e.outputs[r.output]
		fwd := midi.WithChannel(msg, r.channel)
		if err := out.Send(fwd); err != nil {
			debug.Log("router", "send to %q failed: %v", out.Name, err)
			continue
		}
		e.trackers[r.output].Track(fwd)
		if !e.Quiet {
			fmt.Printf("[%s] ch:%d->%d %s\n", out.Name, channel, r.channel, fwd.String())
		}
	}
}

// Apply swaps in the mapping from cfg over the current outputs. Every
// output's sounding notes are released before the new table becomes visible,
// so nothing mapped under the old table can be orphaned under the new one.
func (e *Engine) Apply(cfg *config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.drainLocked()
	e.table.Store(buildTable(e.outputs, cfg))
}

// Rebind replaces the output set and the mapping, used when a reload changed
// the port list. Sounding notes are released to the old outputs first.
func (e *Engine) Rebind(outputs []Output, cfg *config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.drainLocked()
	e.outputs = outputs
	e.trackers = make([]*midi.NoteTracker, len(outputs))
	for i := range outputs {
		e.trackers[i] = midi.NewNoteTracker()
	}
	e.table.Store(buildTable(outputs, cfg))
}

// DrainAll forces a note-off for every sounding note on every output
func (e *Engine) DrainAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drainLocked()
}

func (e *Engine) drainLocked() {
	for i, tracker := range e.trackers {
		released := tracker.Drain()
		if len(released) == 0 {
			continue
		}
		debug.Log("router", "releasing %d notes on %q", len(released), e.outputs[i].Name)
		for _, off := range released {
			if err := e.outputs[i].Send(off); err != nil {
				debug.Log("router", "release on %q failed: %v", e.outputs[i].Name, err)
			}
		}
	}
}

// ActiveNotes returns the number of sounding notes per output, in output
// order
func (e *Engine) ActiveNotes() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make([]int, len(e.trackers))
	for i, tracker := range e.trackers {
		counts[i] = tracker.Active()
	}
	return counts
}

// Shutdown stops accepting events and releases every sounding note.
// Idempotent.
func (e *Engine) Shutdown() {
	if e.stopped.Swap(true) {
		return
	}
	e.DrainAll()
}
