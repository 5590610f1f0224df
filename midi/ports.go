package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"tr-router/config"
)

// ErrPortUnavailable is wrapped when a virtual port cannot be created
// (name taken, or the OS MIDI subsystem refused).
var ErrPortUnavailable = errors.New("port unavailable")

// Sender writes one message to an output port
type Sender func(msg gomidi.Message) error

// Ports owns the virtual input port and the set of virtual output ports for
// one router run. Opening is all-or-nothing: if any port fails, everything
// opened in the same attempt is closed before the error is returned.
type Ports struct {
	in       drivers.In
	outs     []drivers.Out
	outNames []string
	senders  []Sender

	mu     sync.Mutex
	stop   func()
	closed bool
}

// OpenPorts creates the virtual input and every configured virtual output,
// in config order
func OpenPorts(cfg *config.Config) (*Ports, error) {
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: rtmidi driver not available", ErrPortUnavailable)
	}

	if err := checkNameFree(cfg.Input.Name); err != nil {
		return nil, err
	}

	in, err := drv.OpenVirtualIn(cfg.Input.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: input %q: %v", ErrPortUnavailable, cfg.Input.Name, err)
	}

	p := &Ports{in: in}
	for _, out := range cfg.Outputs {
		if err := checkNameFree(out.Name); err != nil {
			p.Close()
			return nil, err
		}

		virtualOut, err := drv.OpenVirtualOut(out.Name)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("%w: output %q: %v", ErrPortUnavailable, out.Name, err)
		}

		send, err := gomidi.SendTo(virtualOut)
		if err != nil {
			virtualOut.Close()
			p.Close()
			return nil, fmt.Errorf("%w: output %q: %v", ErrPortUnavailable, out.Name, err)
		}

		p.outs = append(p.outs, virtualOut)
		p.outNames = append(p.outNames, out.Name)
		p.senders = append(p.senders, Sender(send))
	}

	return p, nil
}

// checkNameFree refuses names some other application already exposes
func checkNameFree(name string) error {
	ins, outs, ok := listPorts(3 * time.Second)
	if !ok {
		// Subsystem hung, let the open itself report the failure
		return nil
	}
	for _, port := range ins {
		if port.String() == name {
			return fmt.Errorf("%w: input name %q already taken", ErrPortUnavailable, name)
		}
	}
	for _, port := range outs {
		if port.String() == name {
			return fmt.Errorf("%w: output name %q already taken", ErrPortUnavailable, name)
		}
	}
	return nil
}

// listPorts fetches the port lists with a timeout (CoreMIDI can hang)
func listPorts(timeout time.Duration) ([]drivers.In, []drivers.Out, bool) {
	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}

	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r.ins, r.outs, true
	case <-time.After(timeout):
		return nil, nil, false
	}
}

// ListPorts returns the names of all visible MIDI ports, or ok=false if the
// subsystem did not answer in time
func ListPorts() (ins []string, outs []string, ok bool) {
	inPorts, outPorts, ok := listPorts(3 * time.Second)
	if !ok {
		return nil, nil, false
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, true
}

// Listen starts the input callback. The driver invokes fn once per inbound
// message, serially, in arrival order.
func (p *Ports) Listen(fn func(msg gomidi.Message, timestampms int32)) error {
	stop, err := gomidi.ListenTo(p.in, fn)
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", p.in.String(), err)
	}

	p.mu.Lock()
	p.stop = stop
	p.mu.Unlock()
	return nil
}

// InputName returns the name of the virtual input port
func (p *Ports) InputName() string {
	return p.in.String()
}

// OutputNames returns the output port names in config order
func (p *Ports) OutputNames() []string {
	return p.outNames
}

// Senders returns one send func per output, in config order
func (p *Ports) Senders() []Sender {
	return p.senders
}

// Close stops the listener and closes every open port. Idempotent.
func (p *Ports) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	if p.in != nil {
		p.in.Close()
	}
	for _, out := range p.outs {
		out.Close()
	}
}
