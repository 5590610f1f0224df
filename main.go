package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"

	"tr-router/config"
	"tr-router/debug"
	"tr-router/midi"
	"tr-router/router"
	"tr-router/theme"
	"tr-router/tui"
)

func main() {
	configFile := flag.String("config", "", "config file path (default: ~/.config/tr-router/config.json)")
	edit := flag.Bool("edit", false, "open the config editor instead of routing")
	quiet := flag.Bool("quiet", false, "suppress per-event logging")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/tr-router/debug.log")
	flag.Parse()

	path := *configFile
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			log.Fatalf("Failed to resolve config path: %v", err)
		}
		path = p
	}

	if *debugLog {
		if err := debug.Enable(); err != nil {
			log.Printf("Warning: debug log unavailable: %v", err)
		}
		defer debug.Disable()
	}

	if *edit {
		runEditor(path)
		return
	}

	if err := run(path, *quiet); err != nil {
		log.Fatalf("MIDI router error: %v", err)
	}
}

func runEditor(path string) {
	th := theme.New(theme.DefaultPalette())
	p := tea.NewProgram(tui.NewModel(path, th), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, quiet bool) error {
	defer gomidi.CloseDriver()

	store, err := config.NewStore(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// First run: seed the default config so there is something to edit
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Printf("Wrote default config to %s", path)
		if store, err = config.NewStore(path); err != nil {
			return err
		}
	}

	cfg := store.Current()
	ports, err := midi.OpenPorts(cfg)
	if err != nil {
		return err
	}

	engine := router.New(outputsFor(ports), cfg)
	engine.Quiet = quiet

	if err := ports.Listen(engine.Callback()); err != nil {
		ports.Close()
		return err
	}

	fmt.Printf("Virtual input %q listening on channel %d\n", cfg.Input.Name, cfg.Input.Channel)
	for _, out := range cfg.Outputs {
		fmt.Printf("Virtual output %q on channel %d\n", out.Name, out.Channel)
	}
	fmt.Println("Press Ctrl+C to stop, SIGHUP to reload config...")

	if err := writePidfile(); err != nil {
		debug.Log("main", "pidfile: %v", err)
	}
	defer removePidfile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			break
		}
		ports = reload(store, engine, ports)
	}

	fmt.Println("Shutting down...")
	engine.Shutdown()
	ports.Close()
	return nil
}

// reload applies a config change. With the same port set only the mapping is
// swapped; otherwise sounding notes are released and the ports are rebuilt.
// On an invalid file the previous config keeps routing.
func reload(store *config.Store, engine *router.Engine, ports *midi.Ports) *midi.Ports {
	prev := store.Current()

	cfg, err := store.Reload()
	if err != nil {
		log.Printf("Reload failed, keeping previous config: %v", err)
		return ports
	}

	if samePortNames(prev, cfg) {
		engine.Apply(cfg)
		log.Printf("Mapping reloaded")
		return ports
	}

	engine.DrainAll()
	ports.Close()

	newPorts, err := midi.OpenPorts(cfg)
	if err != nil {
		log.Printf("Reopening ports failed: %v, restoring previous ports", err)
		cfg = prev
		if newPorts, err = midi.OpenPorts(cfg); err != nil {
			log.Fatalf("Cannot restore ports: %v", err)
		}
	}

	engine.Rebind(outputsFor(newPorts), cfg)
	if err := newPorts.Listen(engine.Callback()); err != nil {
		log.Fatalf("Cannot restart listener: %v", err)
	}
	log.Printf("Ports reopened, mapping reloaded")
	return newPorts
}

func outputsFor(ports *midi.Ports) []router.Output {
	names := ports.OutputNames()
	senders := ports.Senders()
	outs := make([]router.Output, len(names))
	for i := range names {
		outs[i] = router.Output{Name: names[i], Send: senders[i]}
	}
	return outs
}

// samePortNames reports whether two configs expose the same set of virtual
// ports (order doesn't matter, the mapping is rebuilt by name)
func samePortNames(a, b *config.Config) bool {
	if a.Input.Name != b.Input.Name || len(a.Outputs) != len(b.Outputs) {
		return false
	}
	an := make([]string, len(a.Outputs))
	bn := make([]string, len(b.Outputs))
	for i := range a.Outputs {
		an[i] = a.Outputs[i].Name
		bn[i] = b.Outputs[i].Name
	}
	sort.Strings(an)
	sort.Strings(bn)
	for i := range an {
		if an[i] != bn[i] {
			return false
		}
	}
	return true
}

func writePidfile() error {
	path, err := config.PidPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePidfile() {
	if path, err := config.PidPath(); err == nil {
		os.Remove(path)
	}
}
