package namestate

import (
	"testing"

	"github.com/coregx/rulematch/pattern"
)

func TestGetOrCreateByteMachineReusesExisting(t *testing.T) {
	n := New()
	bm1 := n.GetOrCreateByteMachine("detail.state", nil)
	bm2 := n.GetOrCreateByteMachine("detail.state", nil)
	if bm1 != bm2 {
		t.Fatalf("GetOrCreateByteMachine returned distinct machines for the same key")
	}

	got, ok := n.ByteMachine("detail.state")
	if !ok || got != bm1 {
		t.Fatalf("ByteMachine(%q) = %v, %v, want %v, true", "detail.state", got, ok, bm1)
	}

	if _, ok := n.ByteMachine("missing"); ok {
		t.Fatalf("ByteMachine(missing) reported a hit")
	}
}

func TestRemoveTransitionOnlyDropsEmptyMachine(t *testing.T) {
	n := New()
	bm := n.GetOrCreateByteMachine("a", nil)
	bm.AddPattern(pattern.NewExact([]byte(`"x"`)), New)

	n.RemoveTransition("a")
	if _, ok := n.ByteMachine("a"); !ok {
		t.Fatalf("RemoveTransition dropped a non-empty machine")
	}
}

func TestKeysReflectsRegisteredByteMachines(t *testing.T) {
	n := New()
	n.GetOrCreateByteMachine("a", nil)
	n.GetOrCreateByteMachine("b", nil)

	keys := n.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() = %v, want 2 entries", keys)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("Keys() = %v, want a and b", keys)
	}
}

func TestGetOrCreateKeyTransitionReusesExisting(t *testing.T) {
	n := New()
	nm1 := n.GetOrCreateKeyTransition("x")
	nm2 := n.GetOrCreateKeyTransition("x")
	if nm1 != nm2 {
		t.Fatalf("GetOrCreateKeyTransition returned distinct matchers for the same key")
	}
	if nm1.Next() == nil {
		t.Fatalf("Next() = nil, want a fresh NameState")
	}

	got, ok := n.KeyTransition("x")
	if !ok || got != nm1 {
		t.Fatalf("KeyTransition(%q) = %v, %v, want %v, true", "x", got, ok, nm1)
	}

	if !n.HasKeyTransitions() {
		t.Fatalf("HasKeyTransitions() = false, want true")
	}
	if keys := n.KeyTransitionKeys(); len(keys) != 1 || keys[0] != "x" {
		t.Fatalf("KeyTransitionKeys() = %v, want [x]", keys)
	}
}

func TestRemoveKeyTransitionOnlyDropsEmptyTarget(t *testing.T) {
	n := New()
	nm := n.GetOrCreateKeyTransition("x")
	nm.next.AddSubRule(1, SubRuleId(1), true)

	n.RemoveKeyTransition("x")
	if _, ok := n.KeyTransition("x"); !ok {
		t.Fatalf("RemoveKeyTransition dropped a matcher whose target state is non-empty")
	}

	n.RemoveKeyTransition("x")
	if _, ok := n.KeyTransition("x"); !ok {
		t.Fatalf("RemoveKeyTransition dropped a matcher whose target still has a reference")
	}
}

func TestAddDeleteSubRuleTracksTerminalAndNonTerminal(t *testing.T) {
	n := New()
	const patKey = uint64(42)

	n.AddSubRule(patKey, SubRuleId(1), true)
	n.AddSubRule(patKey, SubRuleId(2), false)

	if !n.HasReference(patKey) {
		t.Fatalf("HasReference(%d) = false, want true", patKey)
	}
	if got := n.TerminalSubRuleIdsForPattern(patKey); len(got) != 1 || got[0] != SubRuleId(1) {
		t.Fatalf("TerminalSubRuleIdsForPattern = %v, want [1]", got)
	}
	if got := n.NonTerminalSubRuleIdsForPattern(patKey); len(got) != 1 || got[0] != SubRuleId(2) {
		t.Fatalf("NonTerminalSubRuleIdsForPattern = %v, want [2]", got)
	}

	if removed := n.DeleteSubRule(patKey, SubRuleId(1), true); !removed {
		t.Fatalf("DeleteSubRule(1, terminal) reported no removal")
	}
	if !n.HasReference(patKey) {
		t.Fatalf("HasReference(%d) = false after only the terminal id was removed, want true", patKey)
	}

	if removed := n.DeleteSubRule(patKey, SubRuleId(2), false); !removed {
		t.Fatalf("DeleteSubRule(2, non-terminal) reported no removal")
	}
	if n.HasReference(patKey) {
		t.Fatalf("HasReference(%d) = true after both ids were removed, want false", patKey)
	}
}

func TestDeleteSubRuleUnknownPatternReportsFalse(t *testing.T) {
	n := New()
	if removed := n.DeleteSubRule(99, SubRuleId(1), true); removed {
		t.Fatalf("DeleteSubRule on an unregistered pattern key reported a removal")
	}
}

func TestTerminalAndNonTerminalPatterns(t *testing.T) {
	n := New()
	n.AddSubRule(1, SubRuleId(1), true)
	n.AddSubRule(2, SubRuleId(2), false)

	terminal := n.TerminalPatterns()
	if len(terminal) != 1 || terminal[0] != 1 {
		t.Fatalf("TerminalPatterns() = %v, want [1]", terminal)
	}
	nonTerminal := n.NonTerminalPatterns()
	if len(nonTerminal) != 1 || nonTerminal[0] != 2 {
		t.Fatalf("NonTerminalPatterns() = %v, want [2]", nonTerminal)
	}
}

func TestHasTransitionsAndIsEmpty(t *testing.T) {
	n := New()
	if !n.IsEmpty() {
		t.Fatalf("IsEmpty() = false on a fresh NameState, want true")
	}
	if n.HasTransitions() {
		t.Fatalf("HasTransitions() = true on a fresh NameState, want false")
	}

	n.GetOrCreateByteMachine("a", nil)
	if n.IsEmpty() {
		t.Fatalf("IsEmpty() = true after registering a value transition, want false")
	}
	if !n.HasTransitions() {
		t.Fatalf("HasTransitions() = false after registering a value transition, want true")
	}
}

func TestIsEmptyConsidersSubRuleIndex(t *testing.T) {
	n := New()
	n.AddSubRule(1, SubRuleId(1), true)
	if n.IsEmpty() {
		t.Fatalf("IsEmpty() = true with a live sub-rule reference and no transitions, want false")
	}
}
