package byteauto

import (
	"sync"

	"github.com/coregx/rulematch/pattern"
)

// patternMap pairs each anythingButs member with a representative
// pattern: every value of one AnythingBut set shares one next-state,
// so any one of its values' pattern is representative.
// Kept separate from the stateSet membership set so the set's own
// grounding (concurrentset, see DESIGN.md) is undisturbed by this
// narrower bookkeeping need.
type patternMap[S comparable] struct {
	mu sync.RWMutex
	m  map[S]pattern.Pattern
}

func newPatternMap[S comparable]() *patternMap[S] { return &patternMap[S]{m: map[S]pattern.Pattern{}} }

func (p *patternMap[S]) set(s S, pat pattern.Pattern) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[s] = pat
}

func (p *patternMap[S]) remove(s S) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, s)
}

func (p *patternMap[S]) get(s S) (pattern.Pattern, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.m[s]
	return v, ok
}
