package main

import (
	"testing"

	"tr-router/config"
)

func TestSamePortNames(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Input: config.Input{Name: "TR Router In", Channel: 1},
			Outputs: []config.Output{
				{Name: "Pattern 1", Channel: 2},
				{Name: "Pattern 2", Channel: 3},
			},
		}
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   bool
	}{
		{"identical", func(c *config.Config) {}, true},
		{"channel change only", func(c *config.Config) { c.Outputs[0].Channel = 9 }, true},
		{"input channel change", func(c *config.Config) { c.Input.Channel = 9 }, true},
		{"output reorder", func(c *config.Config) {
			c.Outputs[0], c.Outputs[1] = c.Outputs[1], c.Outputs[0]
		}, true},
		{"renamed output", func(c *config.Config) { c.Outputs[0].Name = "Pattern X" }, false},
		{"renamed input", func(c *config.Config) { c.Input.Name = "Other In" }, false},
		{"added output", func(c *config.Config) {
			c.Outputs = append(c.Outputs, config.Output{Name: "Pattern 3", Channel: 4})
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other := base()
			tc.mutate(other)
			if got := samePortNames(base(), other); got != tc.want {
				t.Errorf("samePortNames = %v, want %v", got, tc.want)
			}
		})
	}
}
