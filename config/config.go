package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrInvalidConfig is wrapped by every parse/validation failure so callers
// can tell a bad config from an I/O problem with errors.Is.
var ErrInvalidConfig = errors.New("invalid config")

// Input describes the virtual input port and the channel it listens on
type Input struct {
	Name    string `json:"name"`
	Channel uint8  `json:"channel"` // 1-16
}

// Output describes one virtual output port and the channel events are
// rewritten to before being sent there
type Output struct {
	Name    string `json:"name"`
	Channel uint8  `json:"channel"` // 1-16
}

// Config is the full router configuration. Outputs keep file order; the
// router forwards to them in that order.
type Config struct {
	Input   Input    `json:"input"`
	Outputs []Output `json:"outputs"`
}

// Default returns a config matching the stock two-pattern setup
func Default() *Config {
	return &Config{
		Input: Input{Name: "TR Router In", Channel: 1},
		Outputs: []Output{
			{Name: "Pattern 1", Channel: 2},
			{Name: "Pattern 2", Channel: 3},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tr-router"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// PidPath returns the path of the running router's pidfile. The editor uses
// it to signal a reload after saving.
func PidPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "router.pid"), nil
}

// Load reads and validates a config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks channel ranges, port names and output list shape
func (c *Config) Validate() error {
	if c.Input.Name == "" {
		return fmt.Errorf("%w: input has no name", ErrInvalidConfig)
	}
	if err := checkChannel(c.Input.Channel); err != nil {
		return fmt.Errorf("%w: input: %v", ErrInvalidConfig, err)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs configured", ErrInvalidConfig)
	}

	seen := map[string]bool{c.Input.Name: true}
	for i, out := range c.Outputs {
		if out.Name == "" {
			return fmt.Errorf("%w: output %d has no name", ErrInvalidConfig, i+1)
		}
		if seen[out.Name] {
			return fmt.Errorf("%w: duplicate port name %q", ErrInvalidConfig, out.Name)
		}
		seen[out.Name] = true
		if err := checkChannel(out.Channel); err != nil {
			return fmt.Errorf("%w: output %q: %v", ErrInvalidConfig, out.Name, err)
		}
	}

	return nil
}

func checkChannel(ch uint8) error {
	if ch < 1 || ch > 16 {
		return fmt.Errorf("invalid channel: %d (must be 1-16)", ch)
	}
	return nil
}

// Save writes the config to disk, creating the directory if needed
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, for editing without touching the live config
func (c *Config) Clone() *Config {
	out := &Config{Input: c.Input}
	out.Outputs = append([]Output(nil), c.Outputs...)
	return out
}

// Store holds the active config and swaps it wholesale on reload. A failed
// reload leaves the previous config in place.
type Store struct {
	path    string
	mu      sync.RWMutex
	current *Config
}

// NewStore loads the config at path and returns a store holding it
func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, current: cfg}, nil
}

// Current returns the active config snapshot
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Path returns the file the store loads from
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the config file. On any error the previously active
// config stays in effect and the error is returned to the caller.
func (s *Store) Reload() (*Config, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()

	return cfg, nil
}
