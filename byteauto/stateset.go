package byteauto

import "github.com/coregx/rulematch/internal/concurrentset"

// stateSet wraps concurrentset.Set for the machine's anything-but
// next-state bookkeeping (invariant 2 and 's final "anything-buts
// minus failed" union).
type stateSet[S comparable] struct {
	set *concurrentset.Set[S]
}

func newStateSet[S comparable]() *stateSet[S] {
	return &stateSet[S]{set: concurrentset.New[S]()}
}

func (a *stateSet[S]) Add(s S) bool      { return a.set.Add(s) }
func (a *stateSet[S]) Remove(s S) bool   { return a.set.Remove(s) }
func (a *stateSet[S]) Snapshot() []S     { return a.set.Snapshot() }
func (a *stateSet[S]) Len() int          { return a.set.Len() }
