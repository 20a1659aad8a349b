// Package byteauto implements the per-(NameState,key) byte-level value
// matcher: a single byte-level NFA/DFA hybrid over UTF-8 bytes
// supporting exact, prefix, suffix, numeric equality, numeric ranges
// (including CIDR), anything-but, exists/absent and wildcard predicates.
//
// Machine is generic over the "next state" type S so that it has no
// dependency on the name tier (package namestate) that embeds it: the
// name tier instantiates Machine[*namestate.NameState] and nothing in
// this package ever needs to know that concrete type. S is expected to
// be a pointer type so its zero value behaves as "no state".
package byteauto

import (
	"sync"
	"sync/atomic"

	"github.com/coregx/rulematch/pattern"
)

// scanMode tags a ByteMatch with which traversal pass may harvest it.
// Suffix and AnythingButSuffix chains are inserted reversed and walked by
// a dedicated reverse pass; EqualsIgnoreCase and AnythingButIgnoreCase
// chains are walked by a dedicated ASCII-lower-cased pass. Everything
// else (including Exists, whose chain is the literal EXISTS_MARKER byte
// string) is walked by the ordinary forward pass. A pass only contributes
// matches tagged with its own mode, which is what lets suffix and
// ignore-case chains share the same state graph as forward chains
// without cross-contaminating results.
type scanMode uint8

const (
	scanForward scanMode = iota
	scanReverseSuffix
	scanIgnoreCase
)

// transitionKind discriminates the ByteTransition variants.
type transitionKind uint8

const (
	tEmpty transitionKind = iota
	tSingle
	tComposite
	tShortcut
)

// transition is the ByteTransition sum type. A SingleNextState transition
// has kind tSingle and only next set; Composite has kind tComposite with
// both next and match set; Shortcut has kind tShortcut with only match
// set (no next state — see DESIGN.md for why this module does not
// implement multi-byte shortcut path compression, only the terminal-edge
// shape of the optimization).
type transition[S comparable] struct {
	kind  transitionKind
	next  *byteState[S]
	match *byteMatch[S]
}

// expand reports the transition's constituent parts for uniform
// iteration: a transition may be expanded into its singleton
// constituents (a next state, a match, or both).
func (t *transition[S]) expand() (next *byteState[S], hasNext bool, match *byteMatch[S]) {
	if t == nil || t.kind == tEmpty {
		return nil, false, nil
	}
	return t.next, t.next != nil, t.match
}

// byteMatch is the ByteMatch: a pattern paired with the next
// NameState reached when it fires. Identity is by instance — two
// *byteMatch values built from equal patterns are still distinct
// entities, which is exactly what a bare Go pointer gives for free.
type byteMatch[S comparable] struct {
	pattern pattern.Pattern
	next    S
	scan    scanMode
}

// byteState is a node of the value tier. transitions and allBytes
// are published via atomic.Pointer so that a writer can build a
// replacement map off-graph and install it with a single atomic store —
// the "publish only after the sub-chain is fully linked" discipline —
// while readers iterate lock-free.
type byteState[S comparable] struct {
	id          uint64
	transitions atomic.Pointer[map[byte][]*transition[S]]
	allBytes    atomic.Pointer[transition[S]]
	// indeterminatePrefix is set when a later pattern's chain reuses this
	// state, or when it is materialized from a Shortcut. It is
	// informational in this implementation (see DESIGN.md) rather than
	// gating reuse decisions.
	indeterminatePrefix atomic.Bool
}

func newByteState[S comparable](id uint64) *byteState[S] {
	s := &byteState[S]{id: id}
	empty := map[byte][]*transition[S]{}
	s.transitions.Store(&empty)
	return s
}

func (s *byteState[S]) transitionsAt(b byte) []*transition[S] {
	m := s.transitions.Load()
	if m == nil {
		return nil
	}
	return (*m)[b]
}

// appendTransition adds t to the transitions for byte b, copy-on-write: the existing map is never mutated in place, so a reader
// that loaded the old map keeps seeing a complete, consistent snapshot.
func (s *byteState[S]) appendTransition(b byte, t *transition[S]) {
	old := s.transitions.Load()
	next := make(map[byte][]*transition[S], len(*old)+1)
	for k, v := range *old {
		next[k] = v
	}
	next[b] = append(append([]*transition[S]{}, next[b]...), t)
	s.transitions.Store(&next)
}

// replaceTransitions installs a wholesale replacement list for byte b
// (used by delete, which removes one transition from the set).
func (s *byteState[S]) replaceTransitions(b byte, list []*transition[S]) {
	old := s.transitions.Load()
	next := make(map[byte][]*transition[S], len(*old))
	for k, v := range *old {
		next[k] = v
	}
	if len(list) == 0 {
		delete(next, b)
	} else {
		next[b] = list
	}
	s.transitions.Store(&next)
}

func (s *byteState[S]) getAllBytes() *transition[S] {
	return s.allBytes.Load()
}

func (s *byteState[S]) setAllBytes(t *transition[S]) {
	s.allBytes.Store(t)
}

func (s *byteState[S]) isEmpty() bool {
	m := s.transitions.Load()
	return (m == nil || len(*m) == 0) && s.allBytes.Load() == nil
}

// Result pairs a reached next-state with the pattern whose firing
// produced it, so that callers (namestate's sub-rule index lookup, via
// ACFinder) can tell which registration to consult without re-deriving
// it from the state alone.
type Result[S any] struct {
	Next    S
	Pattern pattern.Pattern
}

// Machine is the ByteMachine: the per-(NameState,key) matcher.
type Machine[S comparable] struct {
	mu sync.Mutex // serializes structural mutation (defense in depth; the
	// single-writer discipline at the GenericMachine level already
	// serializes callers).

	start *byteState[S]
	nextStateID uint64

	// unconditionalMatches fires for every value, including the empty
	// string: the bare "*" wildcard and any zero-length Prefix pattern.
	unconditionalMatches []*byteMatch[S]

	hasNumeric          atomic.Int64
	hasIP               atomic.Int64
	hasSuffix           atomic.Int64
	hasEqualsIgnoreCase atomic.Int64

	anythingButs        *stateSet[S]
	anythingButPatterns *patternMap[S]

	// byPattern indexes already-registered patterns by their canonical
	// key so that repeated adds of an equal pattern reuse the existing
	// next-state and so FindPattern/DeletePattern can locate a pattern's
	// ByteMatch structurally rather than by re-walking the graph.
	byPattern map[uint64]*byteMatch[S]

	codec NumericCodec
}

// NumericCodec is the external-collaborator contract: converting a
// raw event value into the fixed-width comparable encodings that
// NumericEq and numeric NumericRange patterns compare against, and IPv4
// or IPv6 literals into hex-encoded IP bytes for CIDR ranges. ByteMachine
// calls it during value preprocessing but never implements the
// encoding itself — see package jsonrule for a concrete implementation.
type NumericCodec interface {
	EncodeNumber(value string) (encoded string, ok bool)
	EncodeIP(value string) (encoded string, ok bool)
}

type noopCodec struct{}

func (noopCodec) EncodeNumber(string) (string, bool) { return "", false }
func (noopCodec) EncodeIP(string) (string, bool)     { return "", false }

// New creates an empty ByteMachine. codec may be nil, in which case
// numeric/IP rewriting never succeeds and values are always compared as
// plain strings: a parse failure here is not an error, it degrades to
// string comparison.
func New[S comparable](codec NumericCodec) *Machine[S] {
	if codec == nil {
		codec = noopCodec{}
	}
	m := &Machine[S]{
		anythingButs:        newStateSet[S](),
		anythingButPatterns: newPatternMap[S](),
		byPattern:           map[uint64]*byteMatch[S]{},
		codec:               codec,
	}
	m.start = newByteState[S](0)
	return m
}

func (m *Machine[S]) newState() *byteState[S] {
	m.nextStateID++
	return newByteState[S](m.nextStateID)
}

// IsEmpty reports whether the machine has no registered patterns at all.
func (m *Machine[S]) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPattern) == 0 &&
		len(m.unconditionalMatches) == 0 &&
		m.hasNumeric.Load() == 0 && m.hasIP.Load() == 0 &&
		m.hasSuffix.Load() == 0 && m.hasEqualsIgnoreCase.Load() == 0 &&
		m.start.isEmpty()
}
