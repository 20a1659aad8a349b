// Package namestate implements the field-path tier of the matcher: a
// graph of states connected by per-key value matchers (byteauto.Machine)
// and per-key must-not-exist matchers, annotated with the sub-rule
// identities that become terminal or remain pending at each state,
// indexed by the pattern that led there.
package namestate

import (
	"sync"

	"github.com/coregx/rulematch/byteauto"
	"github.com/coregx/rulematch/internal/concurrentset"
)

// SubRuleId identifies one (rule_name, allocation-instance) across
// add/delete; allocation order is irrelevant to correctness.
type SubRuleId uint64

// ByteMachine is the value-tier matcher instantiated over *NameState,
// without byteauto ever needing to import this package.
type ByteMachine = byteauto.Machine[*NameState]

// NameMatcher is the per-key must-not-exist matcher: reaching it
// means the key was confirmed absent from the event, advancing to Next.
type NameMatcher struct {
	next *NameState
}

// Next returns the state reached when the guarded key is absent.
func (nm *NameMatcher) Next() *NameState { return nm.next }

// patternSubRules is the sub_rule_index entry for one pattern: the set of
// sub-rule ids that are terminal, and the set that are merely
// non-terminal, at the NameState owning this entry.
type patternSubRules struct {
	terminal    *concurrentset.Set[SubRuleId]
	nonTerminal *concurrentset.Set[SubRuleId]
}

// NameState is one node of the field-path graph.
type NameState struct {
	mu sync.RWMutex

	valueTransitions map[string]*ByteMachine
	mustNotExist     map[string]*NameMatcher

	// subRuleIndex is keyed by pattern.Pattern.HashKey(), since a Pattern
	// itself is not comparable (slice fields) and cannot back a map key
	// directly — see byteauto.patternKey for the same technique.
	subRuleIndex map[uint64]*patternSubRules
}

// New creates an empty NameState.
func New() *NameState {
	return &NameState{
		valueTransitions: map[string]*ByteMachine{},
		mustNotExist:     map[string]*NameMatcher{},
		subRuleIndex:     map[uint64]*patternSubRules{},
	}
}

func (n *NameState) entry(patternKey uint64) *patternSubRules {
	if e, ok := n.subRuleIndex[patternKey]; ok {
		return e
	}
	e := &patternSubRules{terminal: concurrentset.New[SubRuleId](), nonTerminal: concurrentset.New[SubRuleId]()}
	n.subRuleIndex[patternKey] = e
	return e
}

// GetOrCreateByteMachine returns the ByteMachine registered for key,
// creating one with codec if none exists yet. Write-path only.
func (n *NameState) GetOrCreateByteMachine(key string, codec byteauto.NumericCodec) *ByteMachine {
	n.mu.Lock()
	defer n.mu.Unlock()
	if bm, ok := n.valueTransitions[key]; ok {
		return bm
	}
	bm := byteauto.New[*NameState](codec)
	n.valueTransitions[key] = bm
	return bm
}

// ByteMachine returns the matcher registered for key, if any. Read-path;
// safe for concurrent callers.
func (n *NameState) ByteMachine(key string) (*ByteMachine, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	bm, ok := n.valueTransitions[key]
	return bm, ok
}

// RemoveTransition drops key's matcher once it has no patterns left,
// keeping the field-path graph from accumulating dead key slots.
func (n *NameState) RemoveTransition(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if bm, ok := n.valueTransitions[key]; ok && bm.IsEmpty() {
		delete(n.valueTransitions, key)
	}
}

// Keys returns every key with a registered ByteMachine, for the sorted
// traversal GenericMachine and ACFinder perform.
func (n *NameState) Keys() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.valueTransitions))
	for k := range n.valueTransitions {
		out = append(out, k)
	}
	return out
}

// GetOrCreateKeyTransition returns the absence matcher for key, creating
// one (with a fresh target NameState) if none exists yet.
func (n *NameState) GetOrCreateKeyTransition(key string) *NameMatcher {
	n.mu.Lock()
	defer n.mu.Unlock()
	if nm, ok := n.mustNotExist[key]; ok {
		return nm
	}
	nm := &NameMatcher{next: New()}
	n.mustNotExist[key] = nm
	return nm
}

// KeyTransition returns the absence matcher for key, if any.
func (n *NameState) KeyTransition(key string) (*NameMatcher, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	nm, ok := n.mustNotExist[key]
	return nm, ok
}

// RemoveKeyTransition drops key's absence matcher once its target state
// has nothing left registered.
func (n *NameState) RemoveKeyTransition(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if nm, ok := n.mustNotExist[key]; ok && nm.next.IsEmpty() {
		delete(n.mustNotExist, key)
	}
}

// HasKeyTransitions reports whether any absence matcher is registered.
func (n *NameState) HasKeyTransitions() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.mustNotExist) != 0
}

// KeyTransitionKeys returns every key guarded by an absence matcher.
func (n *NameState) KeyTransitionKeys() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.mustNotExist))
	for k := range n.mustNotExist {
		out = append(out, k)
	}
	return out
}

// AddSubRule records id against patternKey, terminal if isTerminal, else
// non-terminal.
func (n *NameState) AddSubRule(patternKey uint64, id SubRuleId, isTerminal bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e := n.entry(patternKey)
	if isTerminal {
		e.terminal.Add(id)
	} else {
		e.nonTerminal.Add(id)
	}
}

// DeleteSubRule removes id from patternKey's terminal or non-terminal
// set, reporting whether a removal occurred. Once the pattern has no
// remaining reference, the empty entry is pruned so HasReference(false)
// can tell the caller to unlink the pattern from its ByteMachine/NameMatcher.
func (n *NameState) DeleteSubRule(patternKey uint64, id SubRuleId, isTerminal bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.subRuleIndex[patternKey]
	if !ok {
		return false
	}
	var removed bool
	if isTerminal {
		removed = e.terminal.Remove(id)
	} else {
		removed = e.nonTerminal.Remove(id)
	}
	if e.terminal.Len() == 0 && e.nonTerminal.Len() == 0 {
		delete(n.subRuleIndex, patternKey)
	}
	return removed
}

// HasReference reports whether patternKey still has any sub-rule id
// (terminal or non-terminal) registered against it.
func (n *NameState) HasReference(patternKey uint64) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	e, ok := n.subRuleIndex[patternKey]
	return ok && (e.terminal.Len() != 0 || e.nonTerminal.Len() != 0)
}

// TerminalSubRuleIdsForPattern returns the sub-rule ids that complete a
// rule via patternKey at this state.
func (n *NameState) TerminalSubRuleIdsForPattern(patternKey uint64) []SubRuleId {
	n.mu.RLock()
	defer n.mu.RUnlock()
	e, ok := n.subRuleIndex[patternKey]
	if !ok {
		return nil
	}
	return e.terminal.Snapshot()
}

// NonTerminalSubRuleIdsForPattern returns the sub-rule ids that merely
// pass through this state via patternKey.
func (n *NameState) NonTerminalSubRuleIdsForPattern(patternKey uint64) []SubRuleId {
	n.mu.RLock()
	defer n.mu.RUnlock()
	e, ok := n.subRuleIndex[patternKey]
	if !ok {
		return nil
	}
	return e.nonTerminal.Snapshot()
}

// TerminalPatterns returns every pattern key with a non-empty terminal
// set at this state.
func (n *NameState) TerminalPatterns() []uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []uint64
	for k, e := range n.subRuleIndex {
		if e.terminal.Len() != 0 {
			out = append(out, k)
		}
	}
	return out
}

// NonTerminalPatterns returns every pattern key with a non-empty
// non-terminal set at this state.
func (n *NameState) NonTerminalPatterns() []uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var out []uint64
	for k, e := range n.subRuleIndex {
		if e.nonTerminal.Len() != 0 {
			out = append(out, k)
		}
	}
	return out
}

// HasTransitions reports whether this state has any value or absence
// matcher registered.
func (n *NameState) HasTransitions() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.valueTransitions) != 0 || len(n.mustNotExist) != 0
}

// IsEmpty reports that nothing is registered at this state: no value
// transitions, no absence matchers, no sub-rule references. Used by
// delete to prune leaf-to-root.
func (n *NameState) IsEmpty() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.valueTransitions) != 0 || len(n.mustNotExist) != 0 {
		return false
	}
	return len(n.subRuleIndex) == 0
}
