package machine

import (
	"go.uber.org/zap"

	"github.com/coregx/rulematch/namestate"
	"github.com/coregx/rulematch/pattern"
)

// DeletePatternRule mirrors AddPatternRule:
// traverse by keys, narrowing the still-candidate sub-rule id set at
// each step to those present (for this pattern) in every reached
// NameState, stopping as soon as the intersection is empty. On success,
// the single remaining candidate id is unregistered from every state it
// was registered at, and any pattern left with no remaining reference
// is unlinked from its ByteMachine/NameMatcher, pruning the key's
// transition entirely if that leaves it empty.
func (m *GenericMachine) DeletePatternRule(ruleName string, patterns map[string][]pattern.Pattern) error {
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
			for _, p := range pats {
				var next *namestate.NameState
				switch {
				case p.Kind == pattern.Absent:
					nm, ok := state.KeyTransition(key)
					if !ok {
						continue
					}
					next = nm.Next()
				default:
					bm, ok := state.ByteMachine(key)
					if !ok {
						continue
					}
					n, found := bm.FindPattern(p)
					if !found {
						continue
					}
					next = n
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
		if len(candidates) == 0 {
			return &RuleError{RuleName: ruleName, Err: ErrRuleNotFound}
		}

		perKeyReached[i] = reached
		currentStates = distinctStates(reached)
	}

	var id namestate.SubRuleId
	for cid := range candidates {
		id = cid
		break
	}

	for i := len(keys) - 1; i >= 0; i-- {
		isTerminal := i == len(keys)-1
		for _, r := range perKeyReached[i] {
			if !r.state.DeleteSubRule(r.pattern.HashKey(), id, isTerminal) {
				continue
			}
			if r.state.HasReference(r.pattern.HashKey()) {
				continue
			}
			if r.pattern.Kind == pattern.Absent {
				r.fromState.RemoveKeyTransition(r.key)
				continue
			}
			if bm, ok := r.fromState.ByteMachine(r.key); ok {
				bm.DeletePattern(r.pattern)
				r.fromState.RemoveTransition(r.key)
			}
		}
	}

	m.ruleNameMu.Lock()
	delete(m.ruleNameByID, id)
	m.ruleNameMu.Unlock()

	for _, key := range keys {
		m.markFieldStepUsed(key, -1)
	}

	m.log.Debug("pattern rule deleted",
		zap.String("rule_name", ruleName),
		zap.Uint64("sub_rule_id", uint64(id)),
	)
	return nil
}
