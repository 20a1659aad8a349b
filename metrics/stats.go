// Package metrics realizes the complexity-evaluation telemetry the core
// declares but never implements itself: atomic counters mirroring
// coregx/meta.Engine's Stats/ResetStats snapshot pattern, plus a
// Prometheus exporter. Callers update a Stats value around their own
// calls into package machine; machine never imports this package, so the
// dependency arrow points outward only, exactly like meta never importing
// a caller's telemetry layer.
package metrics

import "sync/atomic"

// Stats accumulates counters for one GenericMachine across its lifetime.
// Safe for concurrent use by multiple goroutines, matching the
// concurrent-reader discipline the core itself follows.
type Stats struct {
	RulesAdded           atomic.Uint64
	RulesDeleted         atomic.Uint64
	RuleAddErrors        atomic.Uint64
	RuleDeleteErrors     atomic.Uint64
	QueriesTotal         atomic.Uint64
	MatchesTotal         atomic.Uint64
	ComplexityRejections atomic.Uint64
}

// RecordAdd records one AddPatternRule call's outcome.
func (s *Stats) RecordAdd(err error) {
	if err != nil {
		s.RuleAddErrors.Add(1)
		return
	}
	s.RulesAdded.Add(1)
}

// RecordDelete records one DeletePatternRule call's outcome.
func (s *Stats) RecordDelete(err error) {
	if err != nil {
		s.RuleDeleteErrors.Add(1)
		return
	}
	s.RulesDeleted.Add(1)
}

// RecordQuery records one Match call and how many rule names it returned.
func (s *Stats) RecordQuery(matchCount int) {
	s.QueriesTotal.Add(1)
	s.MatchesTotal.Add(uint64(matchCount))
}

// RecordComplexityRejection records one query a caller short-circuited
// via machine.ComplexityEvaluate before ever reaching ACFinder.
func (s *Stats) RecordComplexityRejection() {
	s.ComplexityRejections.Add(1)
}

// Snapshot is a point-in-time copy of Stats, the same
// copy-out-of-atomics shape as coregx/meta.Engine.Stats().
type Snapshot struct {
	RulesAdded           uint64
	RulesDeleted         uint64
	RuleAddErrors        uint64
	RuleDeleteErrors     uint64
	QueriesTotal         uint64
	MatchesTotal         uint64
	ComplexityRejections uint64
}

// Snapshot copies the current counter values out.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		RulesAdded:           s.RulesAdded.Load(),
		RulesDeleted:         s.RulesDeleted.Load(),
		RuleAddErrors:        s.RuleAddErrors.Load(),
		RuleDeleteErrors:     s.RuleDeleteErrors.Load(),
		QueriesTotal:         s.QueriesTotal.Load(),
		MatchesTotal:         s.MatchesTotal.Load(),
		ComplexityRejections: s.ComplexityRejections.Load(),
	}
}
