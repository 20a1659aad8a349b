package byteauto

import "github.com/coregx/rulematch/pattern"

func hexValue(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}

// addNumericRange compiles a NumericRange pattern ("Numeric range
// compilation"): walk the shared prefix of Bottom/Top, then at the first
// differing byte (the fork), install immediate matches for every digit
// strictly between the two boundary digits — any later digit is
// irrelevant once a value's digit at the fork position falls strictly
// inside the range — and descend down each boundary's own digit to
// install "strictly favorable digit at this position" matches plus,
// at the final position, an exact match when that boundary is closed.
func (m *Machine[S]) addNumericRange(p pattern.Pattern, next S) S {
	bottom, top := p.Bottom, p.Top
	n := len(bottom)
	fork := 0
	for fork < n && bottom[fork] == top[fork] {
		fork++
	}
	cur := m.start
	for i := 0; i < fork && i < n-1; i++ {
		cur = m.advanceByte(cur, bottom[i])
	}
	if fork == n {
		if !p.OpenBottom && !p.OpenTop {
			m.installTerminalByte(cur, bottom[n-1], p, scanForward, next)
		}
		return next
	}

	bv, tv := hexValue(bottom[fork]), hexValue(top[fork])
	for v := bv + 1; v < tv; v++ {
		m.installTerminalByte(cur, pattern.HexDigits[v], p, scanForward, next)
	}

	if fork == n-1 {
		if !p.OpenBottom {
			m.installTerminalByte(cur, bottom[fork], p, scanForward, next)
		}
		if !p.OpenTop {
			m.installTerminalByte(cur, top[fork], p, scanForward, next)
		}
		return next
	}
	bottomState := m.advanceByte(cur, bottom[fork])
	m.addRangeBoundaryTail(bottomState, bottom, fork+1, next, p, !p.OpenBottom, true)
	topState := m.advanceByte(cur, top[fork])
	m.addRangeBoundaryTail(topState, top, fork+1, next, p, !p.OpenTop, false)
	return next
}

// addRangeBoundaryTail walks bound[pos:] from cur (already positioned
// just past bound[pos-1]), installing "strictly favorable digit"
// immediate matches at each position — digits greater than bound[pos]
// for the bottom boundary, less than bound[pos] for the top boundary —
// before continuing the exact-digit chain, and an exact match at the
// final position only when the boundary is closed there.
func (m *Machine[S]) addRangeBoundaryTail(cur *byteState[S], bound []byte, pos int, next S, p pattern.Pattern, installExactAtEnd bool, greater bool) {
	n := len(bound)
	for pos < n {
		bv := hexValue(bound[pos])
		if greater {
			for v := bv + 1; v < len(pattern.HexDigits); v++ {
				m.installTerminalByte(cur, pattern.HexDigits[v], p, scanForward, next)
			}
		} else {
			for v := 0; v < bv; v++ {
				m.installTerminalByte(cur, pattern.HexDigits[v], p, scanForward, next)
			}
		}
		if pos == n-1 {
			if installExactAtEnd {
				m.installTerminalByte(cur, bound[pos], p, scanForward, next)
			}
			return
		}
		cur = m.advanceByte(cur, bound[pos])
		pos++
	}
}
