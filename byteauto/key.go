package byteauto

import "github.com/coregx/rulematch/pattern"

// patternKey builds the canonical bookkeeping key used by byPattern to
// detect an already-registered equal pattern (invariant 1 ). It is
// purely an internal lookup index, not a dispatch mechanism: matching
// still switches on pattern.Kind.
func patternKey(p pattern.Pattern) uint64 { return p.HashKey() }
