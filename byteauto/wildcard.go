package byteauto

import (
	"bytes"

	"github.com/coregx/rulematch/pattern"
)

// addWildcardDispatch classifies a Wildcard pattern's shape before
// choosing how to insert it ("Wildcard handling"):
//
//   - bare "*": matches every value, including the empty string.
//   - a single trailing "*" ("xy*"): mathematically equivalent to
//     Prefix("xy") — contributes whenever reached, no self-loop needed.
//   - a single leading "*" ("*bc"): equivalent to Suffix("bc") — walked
//     by the reverse pass.
//   - anything else (interior and/or multiple '*'): needs a genuine
//     self-looping NFA segment between each pair of literal segments.
func (m *Machine[S]) addWildcardDispatch(p pattern.Pattern, next S) S {
	raw := p.Bytes
	stars := bytes.Count(raw, []byte("*"))

	if stars == len(raw) {
		// every byte is '*': equivalent to the bare wildcard regardless
		// of how many stars were written.
		m.unconditionalMatches = append(m.unconditionalMatches, &byteMatch[S]{pattern: p, next: next, scan: scanForward})
		return next
	}
	if stars == 1 && raw[len(raw)-1] == '*' {
		return m.insertChain(raw[:len(raw)-1], p, scanForward, next)
	}
	if stars == 1 && raw[0] == '*' {
		m.hasSuffix.Add(1)
		return m.insertChain(reversedBytes(raw[1:]), p, scanReverseSuffix, next)
	}
	return m.addGeneralWildcard(raw, p, next)
}

// addGeneralWildcard handles interior and/or multi-star patterns by
// inserting literal segments separated by self-looping states: each '*'
// boundary introduces a state with an all-bytes transition back to
// itself, so any number of arbitrary bytes may be consumed before the
// next literal segment resumes ("Interior * produces a self-looping
// composite"). The match is installed on the last byte of the final
// literal segment, so that it fires even when nothing (or, for a
// trailing '*', nothing further) follows.
func (m *Machine[S]) addGeneralWildcard(raw []byte, p pattern.Pattern, next S) S {
	segs := bytes.Split(raw, []byte("*"))
	lastNonEmpty := -1
	for i, s := range segs {
		if len(s) > 0 {
			lastNonEmpty = i
		}
	}
	if lastNonEmpty == -1 {
		m.unconditionalMatches = append(m.unconditionalMatches, &byteMatch[S]{pattern: p, next: next, scan: scanForward})
		return next
	}

	cur := m.start
	for i, seg := range segs {
		if i > 0 {
			cur = m.enterLoop(cur)
		}
		for j := 0; j < len(seg); j++ {
			b := seg[j]
			if i == lastNonEmpty && j == len(seg)-1 {
				m.installTerminalByte(cur, b, p, scanForward, next)
				// cur does not advance past a terminal install; any
				// further segments (necessarily all-empty, i.e. trailing
				// stars) only need a loop, which the next iteration's
				// i>0 branch adds rooted at the post-terminal state. We
				// must still land on that state to loop from it.
				cur = m.terminalDestination(cur, b)
				continue
			}
			cur = m.advanceByte(cur, b)
		}
	}
	return next
}

// terminalDestination returns the continuation state installed by
// installTerminalByte for byte b (the Composite/Shortcut's own implied
// next state), materializing one if the terminal was a pure Shortcut
// (no continuation yet) and more pattern text follows it.
func (m *Machine[S]) terminalDestination(cur *byteState[S], b byte) *byteState[S] {
	for _, t := range cur.transitionsAt(b) {
		if t.kind == tComposite {
			return t.next
		}
	}
	// Pure shortcut: materialize a continuation for the trailing loop.
	if sc := m.extendShortcutIfPresent(cur, b); sc != nil {
		return sc
	}
	return m.newState()
}

// enterLoop returns a state reachable from cur on any byte, creating and
// wiring a self-loop if one is not already installed, and reusing an
// existing loop target if another pattern already introduced one at this
// exact position.
func (m *Machine[S]) enterLoop(cur *byteState[S]) *byteState[S] {
	if t := cur.getAllBytes(); t != nil {
		if t.kind == tSingle {
			return t.next
		}
	}
	loop := m.newState()
	loop.setAllBytes(&transition[S]{kind: tSingle, next: loop})
	cur.setAllBytes(&transition[S]{kind: tSingle, next: loop})
	return loop
}
