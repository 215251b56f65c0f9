// Hexcore is a headless rules kernel for turn-based hex strategy scenarios.
// Usage: hexcore [--version] [--plain] [--verbose] [--play <file>] <scenario.lua | snapshot.cfg>
//
// A .lua argument boots a kernel from the scenario script and opens an
// interactive console. A .cfg argument is parsed as GML and pretty-printed,
// which doubles as a syntax check for snapshots and markup files.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nathoo/hexcore/cli"
	"github.com/nathoo/hexcore/gml"
	"github.com/nathoo/hexcore/kernel"
	"github.com/nathoo/hexcore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	verbose := false
	var scenarioFile string
	var playFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("hexcore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--verbose":
			verbose = true
		case "--play":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--play requires a file path\n")
				os.Exit(1)
			}
			i++
			playFile = args[i]
		default:
			if scenarioFile == "" {
				scenarioFile = args[i]
			}
		}
	}

	if scenarioFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: hexcore [--version] [--plain] [--verbose] [--play <file>] <scenario.lua | snapshot.cfg>\n")
		os.Exit(1)
	}

	// GML mode: parse and pretty-print, reporting any syntax error.
	if strings.HasSuffix(scenarioFile, ".cfg") {
		data, err := os.ReadFile(scenarioFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		body, err := gml.Parse(string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		gml.Print(os.Stdout, gml.Config{body})
		return
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	script, err := os.ReadFile(scenarioFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading scenario: %v\n", err)
		os.Exit(1)
	}

	k, err := kernel.New(string(script), kernel.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenario: %v\n", err)
		os.Exit(1)
	}
	defer k.Close()

	// Playback mode: feed a command file through the plain console, echoing
	// each line.
	if playFile != "" {
		f, err := os.Open(playFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening play file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(k)
		c.In = f
		c.EchoInput = true
		c.Run()
		return
	}

	// Use the plain console if --plain or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(k)
		c.Run()
		return
	}

	if err := tui.Run(k); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
