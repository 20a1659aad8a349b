package machine

import "github.com/coregx/rulematch/namestate"

// ComplexityEvaluate is an advisory complexity-budget helper: a
// caller-side short-circuit for queries whose state graph exceeds
// a budget. It walks the NameState graph breadth-first, counting
// distinct states reached through value and absence transitions, and
// stops as soon as the count exceeds max. The result is advisory only —
// it is never consulted by Match itself.
func (m *GenericMachine) ComplexityEvaluate(max int) (count int, withinBudget bool) {
	seen := map[*namestate.NameState]struct{}{m.start: {}}
	queue := []*namestate.NameState{m.start}
	for len(queue) > 0 && len(seen) <= max {
		cur := queue[0]
		queue = queue[1:]

		for _, key := range cur.KeyTransitionKeys() {
			nm, ok := cur.KeyTransition(key)
			if !ok {
				continue
			}
			enqueue(nm.Next(), seen, &queue)
		}
		for _, key := range cur.Keys() {
			bm, ok := cur.ByteMachine(key)
			if !ok {
				continue
			}
			for _, p := range bm.Patterns() {
				next, found := bm.FindPattern(p)
				if !found {
					continue
				}
				enqueue(next, seen, &queue)
			}
		}
	}
	return len(seen), len(seen) <= max
}

func enqueue(next *namestate.NameState, seen map[*namestate.NameState]struct{}, queue *[]*namestate.NameState) {
	if _, ok := seen[next]; ok {
		return
	}
	seen[next] = struct{}{}
	*queue = append(*queue, next)
}
