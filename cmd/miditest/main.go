package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"tr-router/midi"
)

func main() {
	defer gomidi.CloseDriver()

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "send":
		sendNote(os.Args[2:])
	case "monitor":
		monitor(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List all MIDI ports")
	fmt.Println("  send <port> <ch> <note>   - Send a test note to a port (e.g. the router input)")
	fmt.Println("  monitor <port>            - Print events arriving on a port (e.g. a router output)")
}

func listPorts() {
	fmt.Println("=== MIDI Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, outs, ok := midi.ListPorts()
	if !ok {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}

	fmt.Println("\nInputs:")
	for i, name := range ins {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\nOutputs:")
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func sendNote(args []string) {
	if len(args) < 3 {
		usage()
		return
	}

	portName := args[0]
	channel, err1 := strconv.Atoi(args[1])
	note, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || channel < 1 || channel > 16 || note < 0 || note > 127 {
		fmt.Println("Bad channel (1-16) or note (0-127)")
		return
	}

	outPort, err := gomidi.FindOutPort(portName)
	if err != nil {
		fmt.Printf("Port %q not found\n", portName)
		return
	}

	send, err := gomidi.SendTo(outPort)
	if err != nil {
		fmt.Printf("Error opening port: %v\n", err)
		return
	}

	fmt.Printf("Sending note %d on channel %d to %q...\n", note, channel, portName)
	if err := send(gomidi.NoteOn(uint8(channel-1), uint8(note), 100)); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	time.Sleep(500 * time.Millisecond)
	if err := send(gomidi.NoteOff(uint8(channel-1), uint8(note))); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Done!")
}

func monitor(args []string) {
	if len(args) < 1 {
		usage()
		return
	}

	portName := args[0]
	inPort, err := gomidi.FindInPort(portName)
	if err != nil {
		fmt.Printf("Port %q not found\n", portName)
		return
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		if ch, ok := midi.MessageChannel(msg); ok {
			fmt.Printf("[%dms] ch:%d %s\n", timestampms, ch, msg.String())
		} else {
			fmt.Printf("[%dms] %s\n", timestampms, msg.String())
		}
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	fmt.Printf("Monitoring %q, Ctrl+C to stop...\n", portName)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}
