// Package finder implements the array-consistent finder (component C4,
// ACFinder): a worklist traversal that evaluates an event against the
// NameState/ByteMachine graph while rejecting matches whose contributing
// fields originate in different elements of the same JSON array.
package finder

import (
	"github.com/coregx/rulematch/event"
	"github.com/coregx/rulematch/namestate"
	"github.com/coregx/rulematch/pattern"
)

// step is one worklist entry: the field index to resume matching
// from, the NameState reached so far, the sub-rule ids still candidate
// for the pattern that led here (nil means "no restriction yet", the
// initial step), and the array-membership accumulated along this path.
type step struct {
	fieldIndex int
	nameState  *namestate.NameState
	candidates map[namestate.SubRuleId]struct{}
	membership event.ArrayMembership
}

type visitKey struct {
	fieldIndex int
	state      *namestate.NameState
}

// RuleNameLookup resolves a SubRuleId to the rule name that produced it,
// backed by machine.GenericMachine's id allocator.
type RuleNameLookup func(namestate.SubRuleId) (string, bool)

// Finder runs ACFinder queries against a fixed graph root.
type Finder struct {
	start  *namestate.NameState
	lookup RuleNameLookup
}

// New creates a Finder rooted at start, resolving terminal sub-rule ids
// to names via lookup.
func New(start *namestate.NameState, lookup RuleNameLookup) *Finder {
	return &Finder{start: start, lookup: lookup}
}

// Match runs the worklist traversal and returns every matching rule
// name. When arrayConsistent is false, the merge-or-fail check never
// rejects a step: the deprecated non-array-consistent variant.
func (f *Finder) Match(ev *event.Event, arrayConsistent bool) []string {
	if f.start.IsEmpty() {
		return nil
	}

	ruleNames := map[string]struct{}{}
	visited := map[visitKey]struct{}{}

	worklist := []step{{fieldIndex: 0, nameState: f.start, membership: event.ArrayMembership{}}}
	f.tryAbsentTransitions(ev, f.start, 0, event.ArrayMembership{}, nil, visited, &worklist, ruleNames)

	for len(worklist) > 0 {
		n := len(worklist) - 1
		cur := worklist[n]
		worklist = worklist[:n]
		f.advance(ev, cur, arrayConsistent, visited, &worklist, ruleNames)
	}

	out := make([]string, 0, len(ruleNames))
	for name := range ruleNames {
		out = append(out, name)
	}
	return out
}

// advance processes one worklist step against every field from
// cur.fieldIndex onward, so a rule using fields 2 and 5 is reachable
// without a step per skipped index.
func (f *Finder) advance(ev *event.Event, cur step, arrayConsistent bool, visited map[visitKey]struct{}, worklist *[]step, ruleNames map[string]struct{}) {
	for idx := cur.fieldIndex; idx < len(ev.Fields); idx++ {
		field := ev.Fields[idx]

		membership := cur.membership
		if arrayConsistent {
			merged, ok := event.CheckConsistency(cur.membership, field.ArrayMembership)
			if !ok {
				continue
			}
			membership = merged
		}

		bm, ok := cur.nameState.ByteMachine(field.Name)
		if !ok {
			continue
		}
		for _, res := range bm.TransitionOn(field.Value) {
			patKey := res.Pattern.HashKey()
			next := res.Next

			terminal := next.TerminalSubRuleIdsForPattern(patKey)
			if len(terminal) != 0 {
				hit, hitEmpty := intersectOrInit(cur.candidates, terminal)
				if !hitEmpty {
					f.emit(hit, ruleNames)
				}
			}

			nonTerminal := next.NonTerminalSubRuleIdsForPattern(patKey)
			narrowed, empty := intersectOrInit(cur.candidates, nonTerminal)
			if empty {
				continue
			}

			f.tryAbsentTransitions(ev, next, idx+1, membership, narrowed, visited, worklist, ruleNames)

			vk := visitKey{fieldIndex: idx + 1, state: next}
			if _, seen := visited[vk]; seen {
				continue
			}
			visited[vk] = struct{}{}
			*worklist = append(*worklist, step{
				fieldIndex: idx + 1,
				nameState:  next,
				candidates: narrowed,
				membership: membership,
			})
		}
	}
}

// tryAbsentTransitions walks every must-not-exist matcher on state whose
// key is absent from the event, enqueueing a continuation from the
// matcher's next state and emitting immediately if that next state is
// already terminal for a candidate id.
func (f *Finder) tryAbsentTransitions(ev *event.Event, state *namestate.NameState, fieldIndex int, membership event.ArrayMembership, candidates map[namestate.SubRuleId]struct{}, visited map[visitKey]struct{}, worklist *[]step, ruleNames map[string]struct{}) {
	if !state.HasKeyTransitions() {
		return
	}
	absentKey := pattern.NewAbsent().HashKey()
	for _, key := range state.KeyTransitionKeys() {
		if eventHasKey(ev, key) {
			continue
		}
		nm, ok := state.KeyTransition(key)
		if !ok {
			continue
		}
		next := nm.Next()

		terminal := next.TerminalSubRuleIdsForPattern(absentKey)
		if len(terminal) != 0 {
			hit, hitEmpty := intersectOrInit(candidates, terminal)
			if !hitEmpty {
				f.emit(hit, ruleNames)
			}
		}

		nonTerminal := next.NonTerminalSubRuleIdsForPattern(absentKey)
		narrowed, empty := intersectOrInit(candidates, nonTerminal)
		if empty {
			continue
		}

		vk := visitKey{fieldIndex: fieldIndex, state: next}
		if _, seen := visited[vk]; seen {
			continue
		}
		visited[vk] = struct{}{}
		*worklist = append(*worklist, step{
			fieldIndex: fieldIndex,
			nameState:  next,
			candidates: narrowed,
			membership: membership,
		})
	}
}

func (f *Finder) emit(ids map[namestate.SubRuleId]struct{}, ruleNames map[string]struct{}) {
	if ruleNames == nil || f.lookup == nil {
		return
	}
	for id := range ids {
		if name, ok := f.lookup(id); ok {
			ruleNames[name] = struct{}{}
		}
	}
}

func eventHasKey(ev *event.Event, key string) bool {
	for _, f := range ev.Fields {
		if f.Name == key {
			return true
		}
	}
	return false
}

// intersectOrInit intersects cur with fresh, initializing from fresh
// when cur is nil (the "no candidate restriction yet" initial state,
// step 3). It reports whether the result is empty (the branch
// should be dropped).
func intersectOrInit(cur map[namestate.SubRuleId]struct{}, fresh []namestate.SubRuleId) (map[namestate.SubRuleId]struct{}, bool) {
	if cur == nil {
		out := make(map[namestate.SubRuleId]struct{}, len(fresh))
		for _, id := range fresh {
			out[id] = struct{}{}
		}
		return out, len(out) == 0
	}
	out := map[namestate.SubRuleId]struct{}{}
	freshSet := make(map[namestate.SubRuleId]struct{}, len(fresh))
	for _, id := range fresh {
		freshSet[id] = struct{}{}
	}
	for id := range cur {
		if _, ok := freshSet[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, len(out) == 0
}
