package byteauto

import (
	"github.com/coregx/rulematch/pattern"
)

// AddPattern registers p, returning the next-state that firing p leads to.
// newState is called at most once (for non-anything-but patterns exactly
// once per distinct pattern; for anything-but variants once for the whole
// value set, since every value shares one next state) and only when no
// equal pattern is already registered.
func (m *Machine[S]) AddPattern(p pattern.Pattern, newState func() S) S {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := patternKey(p)
	if existing, ok := m.byPattern[key]; ok {
		return existing.next
	}

	var next S
	switch p.Kind {
	case pattern.Exact, pattern.Prefix:
		next = m.insertChain(p.Bytes, p, scanForward, newState())
	case pattern.NumericEq:
		m.hasNumeric.Add(1)
		next = m.insertChain(p.Bytes, p, scanForward, newState())
	case pattern.Suffix:
		m.hasSuffix.Add(1)
		next = m.insertChain(p.Bytes, p, scanReverseSuffix, newState())
	case pattern.EqualsIgnoreCase:
		m.hasEqualsIgnoreCase.Add(1)
		next = m.insertChain(p.Bytes, p, scanIgnoreCase, newState())
	case pattern.NumericRange:
		if p.IsCIDR {
			m.hasIP.Add(1)
		} else {
			m.hasNumeric.Add(1)
		}
		next = m.addNumericRange(p, newState())
	case pattern.AnythingBut:
		if p.Numeric {
			m.hasNumeric.Add(1)
		}
		next = m.addAnythingButSet(p, scanForward, newState())
	case pattern.AnythingButPrefix:
		next = m.insertChain(p.Bytes, p, scanForward, newState())
		m.anythingButs.Add(next)
		m.anythingButPatterns.set(next, p)
	case pattern.AnythingButSuffix:
		m.hasSuffix.Add(1)
		next = m.insertChain(p.Bytes, p, scanReverseSuffix, newState())
		m.anythingButs.Add(next)
		m.anythingButPatterns.set(next, p)
	case pattern.AnythingButIgnoreCase:
		m.hasEqualsIgnoreCase.Add(1)
		next = m.addAnythingButSet(p, scanIgnoreCase, newState())
	case pattern.Exists:
		next = m.insertChain([]byte(pattern.ExistsMarker), p, scanForward, newState())
	case pattern.Wildcard:
		next = m.addWildcardDispatch(p, newState())
	case pattern.Absent:
		panic("byteauto: Absent patterns belong to namestate's must-not-exist matcher, not ByteMachine")
	default:
		panic("byteauto: AddPattern on unimplemented Kind " + p.Kind.String())
	}

	m.byPattern[key] = &byteMatch[S]{pattern: p, next: next}
	return next
}

// FindPattern reports the next-state an already-registered equal pattern
// leads to, used by DeletePatternRule to locate what to unlink.
func (m *Machine[S]) FindPattern(p pattern.Pattern) (S, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byPattern[patternKey(p)]; ok {
		return existing.next, true
	}
	var zero S
	return zero, false
}

// Patterns returns every pattern currently registered, for callers that
// need to enumerate the graph (e.g. machine.ComplexityEvaluate's
// advisory state-count walk).
func (m *Machine[S]) Patterns() []pattern.Pattern {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pattern.Pattern, 0, len(m.byPattern))
	for _, bm := range m.byPattern {
		out = append(out, bm.pattern)
	}
	return out
}

func (m *Machine[S]) addAnythingButSet(p pattern.Pattern, mode scanMode, shared S) S {
	for _, v := range p.Values {
		m.insertChain(v, p, mode, shared)
	}
	m.anythingButs.Add(shared)
	m.anythingButPatterns.set(shared, p)
	return shared
}

// insertChain walks bytes from the start state, creating states as
// needed, and installs a terminal match for p ending at next. A
// zero-length bytes value matches unconditionally (e.g. Prefix("")).
func (m *Machine[S]) insertChain(data []byte, p pattern.Pattern, mode scanMode, next S) S {
	if len(data) == 0 {
		m.unconditionalMatches = append(m.unconditionalMatches, &byteMatch[S]{pattern: p, next: next, scan: mode})
		return next
	}
	cur := m.start
	for i, b := range data {
		last := i == len(data)-1
		if last {
			m.installTerminalByte(cur, b, p, mode, next)
			return next
		}
		cur = m.advanceByte(cur, b)
	}
	return next
}

// advanceByte returns the state reached by consuming b from cur, creating
// it if necessary and reusing it (and flagging it as having an
// indeterminate prefix) if another pattern already passes through here.
// See DESIGN.md for why this implementation always reuses rather than
// branching on the indeterminate-prefix flag.
func (m *Machine[S]) advanceByte(cur *byteState[S], b byte) *byteState[S] {
	if sc := m.extendShortcutIfPresent(cur, b); sc != nil {
		// sc is the state reached by consuming b from cur; b is already
		// spent, so returning here skips re-deriving a transition for it.
		return sc
	}
	existing := cur.transitionsAt(b)
	for _, t := range existing {
		if t.kind == tSingle || t.kind == tComposite {
			t.next.indeterminatePrefix.Store(true)
			return t.next
		}
	}
	ns := m.newState()
	cur.appendTransition(b, &transition[S]{kind: tSingle, next: ns})
	return ns
}

// installTerminalByte attaches p's match to the transition consuming b
// from cur. If another pattern already needs to continue past this byte,
// the transition becomes Composite (continuation + match); otherwise it
// becomes a Shortcut (match only, no continuation materialized beyond
// it — see DESIGN.md on this module's simplified, non-path-compressing
// Shortcut).
func (m *Machine[S]) installTerminalByte(cur *byteState[S], b byte, p pattern.Pattern, mode scanMode, next S) {
	m.extendShortcutIfPresent(cur, b)
	match := &byteMatch[S]{pattern: p, next: next, scan: mode}
	existing := cur.transitionsAt(b)
	for _, t := range existing {
		if t.kind == tSingle {
			cur.appendTransition(b, &transition[S]{kind: tComposite, next: t.next, match: match})
			return
		}
		if t.kind == tComposite {
			cur.appendTransition(b, &transition[S]{kind: tComposite, next: t.next, match: match})
			return
		}
	}
	cur.appendTransition(b, &transition[S]{kind: tShortcut, match: match})
}

// extendShortcutIfPresent materializes a previously-installed Shortcut
// transition on byte b into a real state carrying the same match, so that
// a newly-added pattern can share the prefix up to and past this byte.
// Returns the materialized state, or nil if there was no shortcut there.
func (m *Machine[S]) extendShortcutIfPresent(cur *byteState[S], b byte) *byteState[S] {
	existing := cur.transitionsAt(b)
	for i, t := range existing {
		if t.kind == tShortcut {
			ns := m.newState()
			ns.indeterminatePrefix.Store(true)
			replacement := append(append([]*transition[S]{}, existing[:i]...), existing[i+1:]...)
			replacement = append(replacement, &transition[S]{kind: tComposite, next: ns, match: t.match})
			cur.replaceTransitions(b, replacement)
			return ns
		}
	}
	return nil
}

func reversedBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func lowerASCIIBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
