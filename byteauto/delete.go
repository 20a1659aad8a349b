package byteauto

import (
	"bytes"

	"github.com/coregx/rulematch/pattern"
)

// DeletePattern removes p's registration. It reports whether p was
// present. The graph is pruned by pattern key: every transition whose
// match was installed for a pattern equal to p is located via a
// reachability walk from the start state and either dropped (Shortcut) or
// demoted to a plain continuation (Composite -> SingleNextState), which
// correctly preserves any other pattern's continuation through that same
// state. A continuation left leading only to an empty state is dropped.
func (m *Machine[S]) DeletePattern(p pattern.Pattern) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := patternKey(p)
	target, ok := m.byPattern[key]
	if !ok {
		return false
	}
	delete(m.byPattern, key)

	for i, um := range m.unconditionalMatches {
		if patternKey(um.pattern) == key {
			m.unconditionalMatches = append(m.unconditionalMatches[:i], m.unconditionalMatches[i+1:]...)
		}
	}

	visited := map[*byteState[S]]struct{}{}
	m.pruneMatch(m.start, target, visited)
	m.anythingButs.Remove(target.next)
	m.anythingButPatterns.remove(target.next)

	switch p.Kind {
	case pattern.Suffix, pattern.AnythingButSuffix:
		m.hasSuffix.Add(-1)
	case pattern.EqualsIgnoreCase, pattern.AnythingButIgnoreCase:
		m.hasEqualsIgnoreCase.Add(-1)
	case pattern.NumericEq:
		m.hasNumeric.Add(-1)
	case pattern.NumericRange:
		if p.IsCIDR {
			m.hasIP.Add(-1)
		} else {
			m.hasNumeric.Add(-1)
		}
	case pattern.AnythingBut:
		if p.Numeric {
			m.hasNumeric.Add(-1)
		}
	case pattern.Wildcard:
		if bytes.Count(p.Bytes, []byte("*")) == 1 && len(p.Bytes) > 1 && p.Bytes[0] == '*' {
			m.hasSuffix.Add(-1)
		}
	}
	return true
}

func (m *Machine[S]) pruneMatch(s *byteState[S], target *byteMatch[S], visited map[*byteState[S]]struct{}) {
	if s == nil {
		return
	}
	if _, done := visited[s]; done {
		return
	}
	visited[s] = struct{}{}

	key := patternKey(target.pattern)
	tm := s.transitions.Load()
	for b, list := range *tm {
		for _, t := range list {
			m.pruneMatch(t.next, target, visited)
		}
		var replacement []*transition[S]
		changed := false
		for _, t := range list {
			if t.match != nil && patternKey(t.match.pattern) == key {
				changed = true
				if t.next != nil && !t.next.isEmpty() {
					replacement = append(replacement, &transition[S]{kind: tSingle, next: t.next})
				}
				continue
			}
			if t.kind == tSingle && t.next != nil && t.next.isEmpty() {
				changed = true
				continue
			}
			replacement = append(replacement, t)
		}
		if changed {
			s.replaceTransitions(b, replacement)
		}
	}
	if at := s.getAllBytes(); at != nil {
		if at.match != nil && patternKey(at.match.pattern) == key {
			if at.next != nil {
				s.setAllBytes(&transition[S]{kind: tSingle, next: at.next})
			} else {
				s.setAllBytes(nil)
			}
		}
		m.pruneMatch(at.next, target, visited)
	}
}
