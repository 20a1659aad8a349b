// Package rulematch provides a content-based event-matching engine: rules
// are JSON documents of dotted field paths to OR'd pattern literals
// (exact values, prefixes, suffixes, numeric ranges, CIDR blocks,
// wildcards, existence checks, and negation), and an event matches a rule
// when every one of the rule's keys has a value satisfying at least one
// of its patterns.
//
// Basic usage:
//
//	r := rulematch.New()
//	err := r.AddRule("running-instance", []byte(`{
//	    "detail": {"state": ["initializing", "running"]}
//	}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	names, err := r.Match([]byte(`{"detail": {"state": "running"}}`))
//	// names == []string{"running-instance"}
//
// A Ruler is safe for concurrent use: AddRule/DeleteRule serialize against
// each other, and Match/MatchIgnoringArrayConsistency never block behind
// them.
package rulematch

import (
	"go.uber.org/zap"

	"github.com/coregx/rulematch/jsonrule"
	"github.com/coregx/rulematch/machine"
	"github.com/coregx/rulematch/metrics"
)

// Ruler wraps a GenericMachine with the JSON rule/event compiler and
// optional usage telemetry, the one-stop entry point most callers need
// instead of wiring machine/jsonrule/metrics together themselves.
type Ruler struct {
	m     *machine.GenericMachine
	stats *metrics.Stats
}

// New creates a Ruler with default configuration and no logging.
//
// Example:
//
//	r := rulematch.New()
func New() *Ruler {
	return NewWithConfig(machine.DefaultConfig(), nil)
}

// NewWithConfig creates a Ruler with custom configuration and an optional
// logger for AddRule/DeleteRule diagnostics (nil disables logging).
//
// Example:
//
//	cfg := rulematch.DefaultConfig()
//	cfg.MaxKeysPerRule = 16
//	r := rulematch.NewWithConfig(cfg, nil)
func NewWithConfig(cfg machine.Config, log *zap.Logger) *Ruler {
	return &Ruler{
		m:     machine.New(jsonrule.NumericCodec(), log, cfg),
		stats: &metrics.Stats{},
	}
}

// DefaultConfig returns the default machine configuration. Callers
// customize this and pass it to NewWithConfig.
func DefaultConfig() machine.Config {
	return machine.DefaultConfig()
}

// AddRule compiles ruleJSON and registers it under name.
//
// Example:
//
//	err := r.AddRule("has-x", []byte(`{"x": [{"exists": true}]}`))
func (r *Ruler) AddRule(name string, ruleJSON []byte) error {
	patterns, err := jsonrule.CompileRule(ruleJSON, r.m.Config())
	if err != nil {
		r.stats.RecordAdd(err)
		return err
	}
	err = r.m.AddPatternRule(name, patterns)
	r.stats.RecordAdd(err)
	return err
}

// DeleteRule removes the sub-rule registered under name for ruleJSON. The
// same ruleJSON used in AddRule must be supplied, since a rule's identity
// is its (name, pattern-set) pair, not name alone.
func (r *Ruler) DeleteRule(name string, ruleJSON []byte) error {
	patterns, err := jsonrule.CompileRule(ruleJSON, r.m.Config())
	if err != nil {
		r.stats.RecordDelete(err)
		return err
	}
	err = r.m.DeletePatternRule(name, patterns)
	r.stats.RecordDelete(err)
	return err
}

// Match flattens eventJSON and returns every rule name it satisfies,
// enforcing array-element consistency: two fields that each satisfy a
// rule's pattern only count together if they came from the same element
// of a shared JSON array.
//
// Example:
//
//	names, err := r.Match([]byte(`{"x": "X"}`))
func (r *Ruler) Match(eventJSON []byte) ([]string, error) {
	ev, err := jsonrule.FlattenEvent(eventJSON)
	if err != nil {
		return nil, err
	}
	names := r.m.Match(ev)
	r.stats.RecordQuery(len(names))
	return names, nil
}

// MatchIgnoringArrayConsistency is Match without the array-element
// consistency check: two fields that happen to share a name/value pair
// corroborate each other even if they come from different elements of
// the same JSON array.
func (r *Ruler) MatchIgnoringArrayConsistency(eventJSON []byte) ([]string, error) {
	ev, err := jsonrule.FlattenEvent(eventJSON)
	if err != nil {
		return nil, err
	}
	names := r.m.MatchIgnoringArrayConsistency(ev)
	r.stats.RecordQuery(len(names))
	return names, nil
}

// ComplexityEvaluate reports how many NameStates are reachable from the
// root, capping the walk at max, and whether that count stayed within
// max. It is advisory only: callers can use it to reject pathologically
// large rule sets before querying them, not to predict query latency
// exactly.
func (r *Ruler) ComplexityEvaluate(max int) (count int, withinBudget bool) {
	count, withinBudget = r.m.ComplexityEvaluate(max)
	if !withinBudget {
		r.stats.RecordComplexityRejection()
	}
	return count, withinBudget
}

// Stats returns a point-in-time snapshot of this Ruler's usage counters.
func (r *Ruler) Stats() metrics.Snapshot {
	return r.stats.Snapshot()
}

// Collector returns a prometheus.Collector exporting this Ruler's
// counters, for registration with a prometheus.Registry.
func (r *Ruler) Collector() *metrics.Collector {
	return metrics.NewCollector(r.stats)
}
