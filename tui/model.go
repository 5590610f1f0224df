// Package tui is the terminal config editor. It edits the router config
// file and pokes a running router to reload after a save.
package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tr-router/config"
	"tr-router/theme"
	"tr-router/widgets"
)

type Model struct {
	Theme *theme.Theme

	path string
	cfg  *config.Config

	cursor   int // 0 = input row, 1..len(outputs) = output rows
	renaming bool
	nameBuf  string
	dirty    bool
	status   string
	quitting bool
}

// NewModel loads the config at path (or defaults if it doesn't exist yet)
func NewModel(path string, th *theme.Theme) Model {
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
	}
	return Model{
		Theme: th,
		path:  path,
		cfg:   cfg.Clone(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.renaming {
		return m.updateRename(keyMsg)
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		if m.dirty && keyMsg.String() == "q" && m.status != "unsaved changes - q again to discard" {
			m.status = "unsaved changes - q again to discard"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.cfg.Outputs) {
			m.cursor++
		}

	case "left", "h":
		m.adjustChannel(-1)

	case "right", "l":
		m.adjustChannel(+1)

	case "a":
		m.addOutput()

	case "d":
		m.deleteOutput()

	case "r", "enter":
		if m.cursor > 0 {
			m.renaming = true
			m.nameBuf = m.cfg.Outputs[m.cursor-1].Name
		}

	case "s":
		m.save()
	}

	return m, nil
}

func (m Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.nameBuf)
		if name != "" {
			m.cfg.Outputs[m.cursor-1].Name = name
			m.dirty = true
		}
		m.renaming = false

	case "esc":
		m.renaming = false

	case "backspace":
		if len(m.nameBuf) > 0 {
			runes := []rune(m.nameBuf)
			m.nameBuf = string(runes[:len(runes)-1])
		}

	default:
		if msg.Type == tea.KeyRunes {
			m.nameBuf += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.nameBuf += " "
		}
	}
	return m, nil
}

func (m *Model) adjustChannel(delta int) {
	wrap := func(ch uint8) uint8 {
		v := int(ch) + delta
		if v < 1 {
			v = 16
		}
		if v > 16 {
			v = 1
		}
		return uint8(v)
	}

	if m.cursor == 0 {
		m.cfg.Input.Channel = wrap(m.cfg.Input.Channel)
	} else {
		out := &m.cfg.Outputs[m.cursor-1]
		out.Channel = wrap(out.Channel)
	}
	m.dirty = true
	m.status = ""
}

func (m *Model) addOutput() {
	name := fmt.Sprintf("Pattern %d", len(m.cfg.Outputs)+1)
	for n := len(m.cfg.Outputs) + 1; taken(m.cfg, name); n++ {
		name = fmt.Sprintf("Pattern %d", n+1)
	}

	channel := uint8(len(m.cfg.Outputs)%16 + 1)
	m.cfg.Outputs = append(m.cfg.Outputs, config.Output{Name: name, Channel: channel})
	m.cursor = len(m.cfg.Outputs)
	m.dirty = true
	m.status = ""
}

func taken(cfg *config.Config, name string) bool {
	if cfg.Input.Name == name {
		return true
	}
	for _, out := range cfg.Outputs {
		if out.Name == name {
			return true
		}
	}
	return false
}

func (m *Model) deleteOutput() {
	if m.cursor == 0 || len(m.cfg.Outputs) <= 1 {
		m.status = "at least one output required"
		return
	}
	i := m.cursor - 1
	m.cfg.Outputs = append(m.cfg.Outputs[:i], m.cfg.Outputs[i+1:]...)
	if m.cursor > len(m.cfg.Outputs) {
		m.cursor--
	}
	m.dirty = true
	m.status = ""
}

func (m *Model) save() {
	if err := m.cfg.Validate(); err != nil {
		m.status = err.Error()
		return
	}
	if err := m.cfg.Save(m.path); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}

	m.dirty = false
	if notifyRouter() {
		m.status = "saved, router reloading"
	} else {
		m.status = "saved"
	}
}

// notifyRouter signals a running router (via its pidfile) to reload the
// config. Returns false if no router is running.
func notifyRouter() bool {
	pidPath, err := config.PidPath()
	if err != nil {
		return false
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}
	return syscall.Kill(pid, syscall.SIGHUP) == nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	chOn := lipgloss.NewStyle().Foreground(m.Theme.Success()).Bold(true)
	chOff := dimStyle

	title := "tr-router config"
	if m.dirty {
		title += " " + string(m.Theme.Symbols.Dirty)
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(title))
	out.WriteString("\n\n")

	out.WriteString(m.renderRow(0, "input", m.cfg.Input.Name, m.cfg.Input.Channel, cursorStyle, dimStyle))
	for i, o := range m.cfg.Outputs {
		name := o.Name
		if m.renaming && m.cursor == i+1 {
			name = m.nameBuf + "_"
		}
		out.WriteString(m.renderRow(i+1, fmt.Sprintf("out %d", i+1), name, o.Channel, cursorStyle, dimStyle))
	}

	out.WriteString("\n")
	selected := m.cfg.Input.Channel
	if m.cursor > 0 {
		selected = m.cfg.Outputs[m.cursor-1].Channel
	}
	out.WriteString("  " + widgets.RenderChannelGrid(selected, chOn, chOff))
	out.WriteString("\n\n")

	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "jk/↑↓", Desc: "select row"},
			{Key: "hl/←→", Desc: "channel"},
			{Key: "a/d", Desc: "add/delete output"},
			{Key: "r", Desc: "rename output"},
			{Key: "s", Desc: "save (reloads running router)"},
			{Key: "q", Desc: "quit"},
		}},
	})))

	if m.status != "" {
		style := okStyle
		if strings.Contains(m.status, "invalid") || strings.Contains(m.status, "failed") ||
			strings.Contains(m.status, "unsaved") || strings.Contains(m.status, "required") {
			style = warnStyle
		}
		out.WriteString("\n\n")
		out.WriteString(style.Render(m.status))
	}

	out.WriteString("\n")
	return out.String()
}

func (m Model) renderRow(row int, label, name string, channel uint8, cursorStyle, dimStyle lipgloss.Style) string {
	marker := "  "
	if m.cursor == row {
		marker = cursorStyle.Render(string(m.Theme.Symbols.Cursor)) + " "
	}
	return fmt.Sprintf("%s%s %-20q %s\n",
		marker,
		dimStyle.Render(fmt.Sprintf("%-7s", label)),
		name,
		fmt.Sprintf("ch %2d", channel))
}
