package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lmorg/readline/v4"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/coregx/rulematch/jsonrule"
	"github.com/coregx/rulematch/machine"
	"github.com/coregx/rulematch/metrics"
)

// Shell is a read-eval-print loop over JSON events: each line is flattened
// and matched against the machine, and the matching rule names are
// printed.
type Shell struct {
	machine *machine.GenericMachine
	stats   *metrics.Stats
	log     *zap.Logger
	input   io.Reader
	output  io.Writer
	prompt  string
}

// NewShell creates a Shell reading from input and writing to output.
func NewShell(m *machine.GenericMachine, stats *metrics.Stats, log *zap.Logger, input io.Reader, output io.Writer) *Shell {
	return &Shell{
		machine: m,
		stats:   stats,
		log:     log,
		input:   input,
		output:  output,
		prompt:  "rule> ",
	}
}

func (s *Shell) isInteractive() bool {
	if s.input == os.Stdin {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
	return false
}

// Run dispatches to the interactive readline loop or the plain scanner
// loop depending on whether input is a terminal.
func (s *Shell) Run() error {
	if s.isInteractive() {
		return s.runInteractive()
	}
	return s.runScanner()
}

func (s *Shell) runInteractive() error {
	rl := readline.NewInstance()
	rl.SetPrompt(s.prompt)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.processLine(line)
	}
}

func (s *Shell) runScanner() error {
	scanner := bufio.NewScanner(s.input)
	for scanner.Scan() {
		s.processLine(scanner.Text())
	}
	return scanner.Err()
}

// processLine handles one line of input: a blank line is skipped, a line
// that is exactly "quit" or "exit" ends the session; everything else is
// treated as a JSON event to flatten and match.
func (s *Shell) processLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if line == "quit" || line == "exit" {
		os.Exit(0)
	}

	ev, err := jsonrule.FlattenEvent([]byte(line))
	if err != nil {
		s.log.Warn("failed to flatten event", zap.Error(err))
		fmt.Fprintf(s.output, "error: %v\n", err)
		return
	}

	names := s.machine.Match(ev)
	s.stats.RecordQuery(len(names))
	if len(names) == 0 {
		fmt.Fprintln(s.output, "(no match)")
		return
	}
	fmt.Fprintln(s.output, strings.Join(names, ", "))
}
