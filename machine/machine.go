// Package machine implements the GenericMachine (component C3): the
// rule-level orchestration layer that compiles a rule's per-key pattern
// lists into the NameState/ByteMachine graph, assigns and tracks
// SubRuleIds for idempotent add/delete, and serializes all writers
// behind a single mutex.
package machine

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/coregx/rulematch/byteauto"
	"github.com/coregx/rulematch/event"
	"github.com/coregx/rulematch/finder"
	"github.com/coregx/rulematch/namestate"
	"github.com/coregx/rulematch/pattern"
)

// GenericMachine owns the field-path graph's root and everything needed
// to compile rules into it: sub-rule id allocation, the reverse
// id->rule-name lookup (consolidated here rather than duplicated per
// NameState, see DESIGN.md), and field-step usage refcounts.
type GenericMachine struct {
	mu sync.Mutex // single machine-wide writer mutex

	start  *namestate.NameState
	config Config
	codec  byteauto.NumericCodec
	log    *zap.Logger

	nextSubRuleID atomic.Uint64

	// ruleNameMu guards ruleNameByID independently of mu so that query-path
	// lookups never block behind unrelated writer work; writers take both
	// mu (for the whole add/delete) and ruleNameMu (briefly, for the map
	// mutation itself).
	ruleNameMu sync.RWMutex
	// ruleNameByID is the sub_rule_id -> rule_name reverse lookup used
	// during delete to filter candidate ids down to the requested rule,
	// and during query to resolve a terminal hit to its rule name. Kept
	// once at the machine level rather than duplicated per NameState
	// (see DESIGN.md).
	ruleNameByID map[namestate.SubRuleId]string

	// fieldStepUsed counts, per dotted-path key, the AddPatternRule calls
	// that used it (an idempotent re-add counts again) minus the
	// DeletePatternRule calls that removed a sub-rule using it.
	fieldStepUsed map[string]*atomic.Int64
}

// New creates an empty GenericMachine. codec supplies the numeric/IP
// encoders ByteMachine needs (see jsonrule for a concrete one); log may
// be nil, in which case zap.NewNop() is used.
func New(codec byteauto.NumericCodec, log *zap.Logger, cfg Config) *GenericMachine {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenericMachine{
		start:         namestate.New(),
		config:        cfg,
		codec:         codec,
		log:           log,
		ruleNameByID:  map[namestate.SubRuleId]string{},
		fieldStepUsed: map[string]*atomic.Int64{},
	}
}

// Config returns the Config this machine was constructed with, so a
// caller compiling rule documents with package jsonrule can reuse the
// same MaxKeysPerRule/DuplicateKeyPolicy/AnythingButEquivalence the
// machine itself enforces.
func (m *GenericMachine) Config() Config {
	return m.config
}

// Start returns the root NameState, for ACFinder to begin traversal from.
func (m *GenericMachine) Start() *namestate.NameState { return m.start }

func sortedKeys(patterns map[string][]pattern.Pattern) []string {
	keys := make([]string, 0, len(patterns))
	for k := range patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *GenericMachine) markFieldStepUsed(key string, delta int64) {
	c, ok := m.fieldStepUsed[key]
	if !ok {
		c = &atomic.Int64{}
		m.fieldStepUsed[key] = c
	}
	if c.Add(delta) <= 0 {
		delete(m.fieldStepUsed, key)
	}
}

// FieldStepUsed reports whether key's fieldStepUsed count is positive.
func (m *GenericMachine) FieldStepUsed(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.fieldStepUsed[key]
	return ok && c.Load() > 0
}

func (m *GenericMachine) lookupRuleName(id namestate.SubRuleId) (string, bool) {
	m.ruleNameMu.RLock()
	defer m.ruleNameMu.RUnlock()
	name, ok := m.ruleNameByID[id]
	return name, ok
}

// Match is the array-consistent query entry point, the canonical
// variant. It delegates the worklist traversal to finder.Finder.
func (m *GenericMachine) Match(ev *event.Event) []string {
	return finder.New(m.start, m.lookupRuleName).Match(ev, true)
}

// MatchIgnoringArrayConsistency is the deprecated non-array-consistent
// variant that shares the same graph: it never rejects a step for
// array-membership conflicts.
func (m *GenericMachine) MatchIgnoringArrayConsistency(ev *event.Event) []string {
	return finder.New(m.start, m.lookupRuleName).Match(ev, false)
}
