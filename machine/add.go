package machine

import (
	"go.uber.org/zap"

	"github.com/coregx/rulematch/namestate"
	"github.com/coregx/rulematch/pattern"
)

// reachedEntry records one (key, pattern, target-state) edge followed
// during a single add/delete traversal, so the sub-rule id can be
// registered or removed against every state it actually reached once
// the whole key sequence has been walked (steps 4-6).
type reachedEntry struct {
	key       string
	pattern   pattern.Pattern
	fromState *namestate.NameState
	state     *namestate.NameState
}

// AddPatternRule compiles patterns (one disjunctive pattern list per
// dotted key) into the graph under ruleName: keys are visited in sorted
// order, each key's patterns funnel into one shared continuation unless
// an equal pattern already exists elsewhere, and a new SubRuleId is
// allocated only when no existing sub-rule of this exact
// (rule_name, pattern-set) is found.
func (m *GenericMachine) AddPatternRule(ruleName string, patterns map[string][]pattern.Pattern) error {
	if len(patterns) > m.config.MaxKeysPerRule {
		return &RuleError{RuleName: ruleName, Err: ErrRuleTooLarge}
	}
	keys := sortedKeys(patterns)

	m.mu.Lock()
	defer m.mu.Unlock()

	perKeyReached := make([][]reachedEntry, len(keys))
	currentStates := []*namestate.NameState{m.start}
	candidates := map[namestate.SubRuleId]struct{}{}
	haveCandidates := false

	for i, key := range keys {
		pats := patterns[key]
		isTerminal := i == len(keys)-1
		stepCandidates := map[namestate.SubRuleId]struct{}{}
		var reached []reachedEntry

		for _, state := range currentStates {
			var shared *namestate.NameState
			allocate := func() *namestate.NameState {
				if shared == nil {
					shared = namestate.New()
				}
				return shared
			}
			for _, p := range pats {
				var next *namestate.NameState
				if p.Kind == pattern.Absent {
					next = state.GetOrCreateKeyTransition(key).Next()
				} else {
					next = state.GetOrCreateByteMachine(key, m.codec).AddPattern(p, allocate)
				}
				reached = append(reached, reachedEntry{key: key, pattern: p, fromState: state, state: next})

				var ids []namestate.SubRuleId
				if isTerminal {
					ids = next.TerminalSubRuleIdsForPattern(p.HashKey())
				} else {
					ids = next.NonTerminalSubRuleIdsForPattern(p.HashKey())
				}
				for _, id := range ids {
					if name, ok := m.lookupRuleName(id); ok && name == ruleName {
						stepCandidates[id] = struct{}{}
					}
				}
			}
		}

		m.markFieldStepUsed(key, 1)

		if haveCandidates {
			for id := range candidates {
				if _, ok := stepCandidates[id]; !ok {
					delete(candidates, id)
				}
			}
		} else {
			candidates = stepCandidates
			haveCandidates = true
		}

		perKeyReached[i] = reached
		currentStates = distinctStates(reached)
	}

	if len(candidates) != 0 {
		// Idempotent: this exact (rule_name, pattern-set) already exists.
		return nil
	}

	id := namestate.SubRuleId(m.nextSubRuleID.Add(1))
	m.ruleNameMu.Lock()
	m.ruleNameByID[id] = ruleName
	m.ruleNameMu.Unlock()

	for i, reached := range perKeyReached {
		isTerminal := i == len(keys)-1
		for _, r := range reached {
			r.state.AddSubRule(r.pattern.HashKey(), id, isTerminal)
		}
	}

	m.log.Debug("pattern rule added",
		zap.String("rule_name", ruleName),
		zap.Uint64("sub_rule_id", uint64(id)),
		zap.Int("key_count", len(keys)),
	)
	return nil
}

func distinctStates(reached []reachedEntry) []*namestate.NameState {
	seen := map[*namestate.NameState]struct{}{}
	var out []*namestate.NameState
	for _, r := range reached {
		if _, ok := seen[r.state]; ok {
			continue
		}
		seen[r.state] = struct{}{}
		out = append(out, r.state)
	}
	return out
}
