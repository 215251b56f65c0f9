package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/hexcore/gml"
	"github.com/nathoo/hexcore/kernel"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed input
	isSystem bool // true for meta-command output
}

// Model is the Bubble Tea model for the hexcore console. Plain input lines
// are Lua fragments handed to the kernel; lines starting with '/' are
// meta-commands.
type Model struct {
	kernel *kernel.Kernel

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	quitting bool
	saveDir  string
}

// kernelOutputMsg carries output from the kernel into the Update loop.
type kernelOutputMsg struct {
	input    string   // echoed input line (empty for startup output)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given kernel.
func New(k *kernel.Kernel) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	return Model{
		kernel:  k,
		input:   ti,
		history: NewHistory(100),
		saveDir: filepath.Join(home, ".hexcore", "saves"),
	}
}

// Run starts the Bubble Tea program.
func Run(k *kernel.Kernel) error {
	m := New(k)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that replays the startup command log.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		lines := []string{"hexcore console — type Lua, or /help for commands", ""}
		lines = append(lines, splitLines(m.kernel.Log())...)
		return kernelOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, kernel output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case kernelOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(kernelOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Lua fragment. Show whatever the fragment appended to the command log.
	before := len(m.kernel.Log())
	res := m.kernel.Execute(input)
	lines := splitLines(m.kernel.Log()[before:])
	if res.Err != nil {
		lines = append(lines, res.Err.Error())
	}
	m = m.appendOutput(kernelOutputMsg{input: input, lines: lines})
	return m, nil
}

// appendOutput adds lines to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg kernelOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between inputs.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindEvent:
		return styleEvent.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	default:
		return styleScript.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// splitLines splits command-log output into display lines, dropping the
// trailing newline the log always carries.
func splitLines(out string) []string {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = strings.Join(parts[1:], " ")
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/help":
		return m.cmdHelp(), false

	case "/turn":
		return []string{m.statusLine()}, false

	case "/end":
		if res := m.kernel.EndTurn(); res.Err != nil {
			return []string{res.Err.Error()}, false
		}
		return []string{m.statusLine()}, false

	case "/ai":
		if res := m.kernel.ExecuteAITurn(); res.Err != nil {
			return []string{res.Err.Error()}, false
		}
		return []string{"AI turn complete."}, false

	case "/fire":
		if arg == "" {
			return []string{"Usage: /fire <event>"}, false
		}
		if res := m.kernel.FireEvent(arg); res.Err != nil {
			return []string{res.Err.Error()}, false
		}
		return []string{fmt.Sprintf("Event %q fired.", arg)}, false

	case "/log":
		return splitLines(m.kernel.Log()), false

	case "/snapshot":
		return m.cmdSnapshot(arg), false

	case "/restore":
		return m.cmdRestore(arg), false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSnapshot(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Snapshot failed: %v", err)}
	}
	path := filepath.Join(m.saveDir, name+".cfg")
	if err := os.WriteFile(path, []byte(m.kernel.Snapshot().String()), 0o644); err != nil {
		return []string{fmt.Sprintf("Snapshot failed: %v", err)}
	}
	return []string{fmt.Sprintf("Snapshot written to %s.", path)}
}

func (m *Model) cmdRestore(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(m.saveDir, name+".cfg")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Restore failed: %v", err)}
	}
	snap, err := gml.Parse(string(data))
	if err != nil {
		return []string{fmt.Sprintf("Restore failed: %v", err)}
	}
	if err := m.kernel.RestoreSnapshot(snap); err != nil {
		return []string{fmt.Sprintf("Restore failed: %v", err)}
	}
	return []string{fmt.Sprintf("Restored %s.", name), m.statusLine()}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /turn             — Show turn, side and phase",
		"  /end              — End the current side's turn",
		"  /ai               — Run the AI for the current side",
		"  /fire <event>     — Fire a named event",
		"  /log              — Dump the command log",
		"  /snapshot [name]  — Write a GML snapshot (default: quicksave)",
		"  /restore [name]   — Restore a GML snapshot",
		"  /quit             — Exit",
		"  /help             — Show this help",
		"",
		"Anything else is Lua, handed to the kernel:",
		"  print(Units[1].x)",
		"  Units[1].x = 2",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for input history",
	}
}

func (m *Model) statusLine() string {
	return fmt.Sprintf("Turn %d, side %d, phase %s",
		m.kernel.TurnNumber(), m.kernel.CurrentSidePlaying(), m.kernel.Phase())
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
