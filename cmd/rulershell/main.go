// Command rulershell is an interactive shell around a GenericMachine: it
// loads a rule file, then accepts JSON events one line at a time (from a
// terminal or a piped stream) and prints the rule names each one matches.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/coregx/rulematch/jsonrule"
	"github.com/coregx/rulematch/machine"
	"github.com/coregx/rulematch/metrics"
)

func main() {
	rulesPath := flag.String("rules", "", "path to a JSON file mapping rule name to rule pattern document")
	verbose := flag.Bool("v", false, "enable verbose (development-mode) logging")
	flag.Parse()

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()

	m := machine.New(jsonrule.NumericCodec(), log, machine.DefaultConfig())
	stats := &metrics.Stats{}

	if *rulesPath != "" {
		n, err := loadRules(m, stats, *rulesPath)
		if err != nil {
			log.Fatal("failed to load rules", zap.String("path", *rulesPath), zap.Error(err))
		}
		log.Info("loaded rules", zap.String("path", *rulesPath), zap.Int("count", n))
	}

	shell := NewShell(m, stats, log, os.Stdin, os.Stdout)
	if err := shell.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "rulershell:", err)
		os.Exit(1)
	}
}
