package byteauto

import "github.com/coregx/rulematch/pattern"

// TransitionOn is the ByteMachine traversal algorithm: given a raw
// event value, returns every (next-state, matched pattern) pair reached
// by a pattern that matches it.
func (m *Machine[S]) TransitionOn(value string) []Result[S] {
	var zero S
	resultSet := map[S]pattern.Pattern{}
	failedAB := map[S]struct{}{}
	add := func(s S, p pattern.Pattern) {
		if s != zero {
			resultSet[s] = p
		}
	}

	valueBytes := []byte(value)
	scanBytes := valueBytes
	fieldIsNumeric := false
	if m.hasNumeric.Load() > 0 {
		if enc, ok := m.codec.EncodeNumber(value); ok {
			scanBytes = []byte(enc)
			fieldIsNumeric = true
		}
	} else if m.hasIP.Load() > 0 {
		if enc, ok := m.codec.EncodeIP(value); ok {
			scanBytes = []byte(enc)
		}
	}

	for _, um := range m.unconditionalMatches {
		add(um.next, um.pattern)
	}
	if m.hasSuffix.Load() > 0 {
		m.scan(reversedBytes(valueBytes), scanReverseSuffix, fieldIsNumeric, add, failedAB)
	}
	if m.hasEqualsIgnoreCase.Load() > 0 {
		m.scan(lowerASCIIBytes(valueBytes), scanIgnoreCase, fieldIsNumeric, add, failedAB)
	}
	m.scan([]byte(pattern.ExistsMarker), scanForward, fieldIsNumeric, add, failedAB)
	m.scan(scanBytes, scanForward, fieldIsNumeric, add, failedAB)

	for _, s := range m.anythingButs.Snapshot() {
		if _, bad := failedAB[s]; !bad {
			pat, _ := m.anythingButPatterns.get(s)
			add(s, pat)
		}
	}

	out := make([]Result[S], 0, len(resultSet))
	for s, p := range resultSet {
		out = append(out, Result[S]{Next: s, Pattern: p})
	}
	return out
}

// scan walks data from the start state, calling contributeMatch for
// every match tagged with mode encountered along any NFA thread. It
// tracks a frontier of concurrently-active states rather than a single
// cursor because a wildcard's all-bytes transition and a byte
// transition can both apply from the same (state, byte) pair.
func (m *Machine[S]) scan(data []byte, mode scanMode, fieldIsNumeric bool, add func(S, pattern.Pattern), failedAB map[S]struct{}) {
	frontier := []*byteState[S]{m.start}
	dataLen := len(data)
	for i := 0; i < dataLen; i++ {
		b := data[i]
		var next []*byteState[S]
		seen := map[*byteState[S]]struct{}{}
		visit := func(t *transition[S]) {
			if t == nil {
				return
			}
			if t.match != nil && t.match.scan == mode {
				contributeMatch(t.match, i, dataLen, fieldIsNumeric, add, failedAB)
			}
			if t.next != nil {
				if _, dup := seen[t.next]; !dup {
					seen[t.next] = struct{}{}
					next = append(next, t.next)
				}
			}
		}
		for _, cur := range frontier {
			for _, t := range cur.transitionsAt(b) {
				visit(t)
			}
			visit(cur.getAllBytes())
		}
		if len(next) == 0 {
			return
		}
		frontier = next
	}
}

// contributeMatch applies the per-Kind forward-scan contribution rule of
// step 2.
func contributeMatch[S comparable](match *byteMatch[S], pos, dataLen int, fieldIsNumeric bool, add func(S, pattern.Pattern), failedAB map[S]struct{}) {
	atLastByte := pos == dataLen-1
	switch match.pattern.Kind {
	case pattern.Exact, pattern.NumericEq, pattern.Exists:
		if !atLastByte {
			return
		}
		if match.pattern.Kind == pattern.NumericEq && !fieldIsNumeric {
			return
		}
		add(match.next, match.pattern)
	case pattern.Prefix, pattern.Suffix, pattern.Wildcard:
		add(match.next, match.pattern)
	case pattern.EqualsIgnoreCase:
		if !atLastByte {
			return
		}
		add(match.next, match.pattern)
	case pattern.NumericRange:
		if match.pattern.IsCIDR == fieldIsNumeric {
			return
		}
		add(match.next, match.pattern)
	case pattern.AnythingBut:
		if !atLastByte {
			return
		}
		if match.pattern.Numeric != fieldIsNumeric {
			return
		}
		failedAB[match.next] = struct{}{}
	case pattern.AnythingButPrefix:
		failedAB[match.next] = struct{}{}
	case pattern.AnythingButSuffix:
		failedAB[match.next] = struct{}{}
	case pattern.AnythingButIgnoreCase:
		if !atLastByte {
			return
		}
		failedAB[match.next] = struct{}{}
	default:
		panic("byteauto: contributeMatch on unimplemented pattern kind " + match.pattern.Kind.String())
	}
}
