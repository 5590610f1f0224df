package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderChannelGrid renders the 16 MIDI channels as one row of cells with
// the selected channel (1-16) highlighted
func RenderChannelGrid(selected uint8, on, off lipgloss.Style) string {
	var out strings.Builder
	for ch := uint8(1); ch <= 16; ch++ {
		if ch > 1 {
			out.WriteString(" ")
		}
		label := fmt.Sprintf("%2d", ch)
		if ch == selected {
			out.WriteString(on.Render(label))
		} else {
			out.WriteString(off.Render(label))
		}
	}
	return out.String()
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
