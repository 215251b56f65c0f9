// Package cli provides terminal I/O and meta-command dispatch for driving a
// kernel from a plain line console.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/hexcore/gml"
	"github.com/nathoo/hexcore/kernel"
)

// CLI handles terminal interaction with a running kernel. Plain input lines
// are Lua fragments handed to Execute; lines starting with '/' are
// meta-commands.
type CLI struct {
	Kernel    *kernel.Kernel
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI wired to the given kernel and standard streams.
func New(k *kernel.Kernel) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Kernel:  k,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".hexcore", "saves"),
	}
}

// Run starts the console loop: prompt → input → dispatch → output.
func (c *CLI) Run() {
	c.printStatus()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "--") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		before := len(c.Kernel.Log())
		res := c.Kernel.Execute(input)
		if out := c.Kernel.Log()[before:]; out != "" {
			c.print(out)
		}
		if res.Err != nil {
			c.printSystem(res.Err.Error())
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the console should
// exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.Join(parts[1:], " ")
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/turn":
		c.printStatus()

	case "/end":
		if res := c.Kernel.EndTurn(); res.Err != nil {
			c.printSystem(res.Err.Error())
		} else {
			c.printStatus()
		}

	case "/ai":
		if res := c.Kernel.ExecuteAITurn(); res.Err != nil {
			c.printSystem(res.Err.Error())
		}

	case "/fire":
		if arg == "" {
			c.printSystem("Usage: /fire <event>")
			break
		}
		if res := c.Kernel.FireEvent(arg); res.Err != nil {
			c.printSystem(res.Err.Error())
		}

	case "/log":
		c.print(c.Kernel.Log())

	case "/snapshot":
		c.cmdSnapshot(arg)

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSnapshot(name string) {
	if name == "" {
		name = "quicksave"
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Snapshot failed: %v", err))
		return
	}
	path := filepath.Join(c.SaveDir, name+".cfg")
	if err := os.WriteFile(path, []byte(c.Kernel.Snapshot().String()), 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Snapshot failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Snapshot written to %s.", path))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /turn             — Show turn, side and phase",
		"  /end              — End the current side's turn",
		"  /ai               — Run the AI for the current side",
		"  /fire <event>     — Fire a named event",
		"  /log              — Dump the command log",
		"  /snapshot [name]  — Write a GML snapshot (default: quicksave)",
		"  /quit             — Exit",
		"  /help             — Show this help",
		"",
		"Anything else is Lua, handed to the kernel:",
		"  print(Units[1].x)",
		"  Units[1].x = 2",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) printStatus() {
	c.printSystem(fmt.Sprintf("Turn %d, side %d, phase %s",
		c.Kernel.TurnNumber(), c.Kernel.CurrentSidePlaying(), c.Kernel.Phase()))
}

// PrintConfig pretty-prints a parsed GML tree to the output stream.
func (c *CLI) PrintConfig(cfg gml.Config) {
	gml.Print(c.Out, cfg)
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
