package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/coregx/rulematch/jsonrule"
	"github.com/coregx/rulematch/machine"
	"github.com/coregx/rulematch/metrics"
)

// loadRules reads a JSON object mapping rule name to rule pattern
// document and adds each one to m, returning the count added.
func loadRules(m *machine.GenericMachine, stats *metrics.Stats, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules file: %w", err)
	}

	var docs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return 0, fmt.Errorf("rules file is not a JSON object of rule name to rule document: %w", err)
	}

	n := 0
	for name, doc := range docs {
		patterns, err := jsonrule.CompileRule(doc, m.Config())
		if err != nil {
			stats.RecordAdd(err)
			return n, fmt.Errorf("compile rule %q: %w", name, err)
		}
		err = m.AddPatternRule(name, patterns)
		stats.RecordAdd(err)
		if err != nil {
			return n, fmt.Errorf("add rule %q: %w", name, err)
		}
		n++
	}
	return n, nil
}
