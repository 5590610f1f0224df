package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Input: Input{Name: "TR Router In", Channel: 1},
		Outputs: []Output{
			{Name: "Pattern 1", Channel: 2},
			{Name: "Pattern 2", Channel: 3},
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"input channel zero", func(c *Config) { c.Input.Channel = 0 }, true},
		{"input channel 17", func(c *Config) { c.Input.Channel = 17 }, true},
		{"output channel zero", func(c *Config) { c.Outputs[0].Channel = 0 }, true},
		{"output channel 17", func(c *Config) { c.Outputs[1].Channel = 17 }, true},
		{"no outputs", func(c *Config) { c.Outputs = nil }, true},
		{"empty input name", func(c *Config) { c.Input.Name = "" }, true},
		{"empty output name", func(c *Config) { c.Outputs[0].Name = "" }, true},
		{"duplicate output names", func(c *Config) { c.Outputs[1].Name = c.Outputs[0].Name }, true},
		{"output shadows input", func(c *Config) { c.Outputs[0].Name = c.Input.Name }, true},
		{"channel 16 ok", func(c *Config) { c.Outputs[0].Channel = 16 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error %v is not ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("missing file should not be ErrInvalidConfig: %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	want := validConfig()

	if err := want.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.Input != want.Input {
		t.Errorf("input: got %+v, want %+v", got.Input, want.Input)
	}
	if len(got.Outputs) != len(want.Outputs) {
		t.Fatalf("outputs: got %d, want %d", len(got.Outputs), len(want.Outputs))
	}
	for i := range want.Outputs {
		if got.Outputs[i] != want.Outputs[i] {
			t.Errorf("output %d: got %+v, want %+v", i, got.Outputs[i], want.Outputs[i])
		}
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := validConfig()
	cfg.Input.Channel = 42

	path := filepath.Join(t.TempDir(), "config.json")
	if err := cfg.Save(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config was written to disk")
	}
}

func TestStoreReloadKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := validConfig().Save(path); err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	before := store.Current()

	if err := os.WriteFile(path, []byte(`{"input":{"name":"x","channel":99},"outputs":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Reload(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
	if store.Current() != before {
		t.Error("failed reload replaced the active config")
	}

	good := validConfig()
	good.Outputs[0].Channel = 5
	if err := good.Save(path); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Reload(); err != nil {
		t.Fatalf("reload of valid config failed: %v", err)
	}
	if store.Current().Outputs[0].Channel != 5 {
		t.Error("successful reload did not swap the config")
	}
}

func TestClone(t *testing.T) {
	orig := validConfig()
	clone := orig.Clone()

	clone.Outputs[0].Channel = 9
	clone.Input.Channel = 9

	if orig.Outputs[0].Channel == 9 || orig.Input.Channel == 9 {
		t.Error("clone shares state with original")
	}
}
