// Package pattern defines the value-predicate data model matched by the
// byteauto state machine: the full tagged-variant Pattern taxonomy, its
// immutability and equality contract, and the canonical byte markers the
// rest of the core shares (the EXISTS marker, the hex digit alphabet used
// by numeric-range compilation).
//
// Patterns are sum types, not an interface hierarchy: a Pattern carries a
// Kind discriminant and only the fields relevant to that Kind are
// meaningful. Exhaustive switches over Kind elsewhere in the module treat
// an unhandled Kind as a programmer error: there is no recoverable
// fallback for a variant nothing here knows how to build or compare.
package pattern

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Kind discriminates the Pattern variants named in the data model.
type Kind uint8

const (
	Exact Kind = iota
	Prefix
	Suffix
	EqualsIgnoreCase
	Wildcard
	NumericEq
	NumericRange
	AnythingBut
	AnythingButPrefix
	AnythingButSuffix
	AnythingButIgnoreCase
	Exists
	Absent
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "Exact"
	case Prefix:
		return "Prefix"
	case Suffix:
		return "Suffix"
	case EqualsIgnoreCase:
		return "EqualsIgnoreCase"
	case Wildcard:
		return "Wildcard"
	case NumericEq:
		return "NumericEq"
	case NumericRange:
		return "NumericRange"
	case AnythingBut:
		return "AnythingBut"
	case AnythingButPrefix:
		return "AnythingButPrefix"
	case AnythingButSuffix:
		return "AnythingButSuffix"
	case AnythingButIgnoreCase:
		return "AnythingButIgnoreCase"
	case Exists:
		return "Exists"
	case Absent:
		return "Absent"
	default:
		return "Unknown"
	}
}

// Canonical bytes shared across the module. ExistsMarker is inserted as
// the synthetic "value" walked for Exists/Absent patterns; it is a single
// byte so it can never collide with a quoted JSON string value (which
// always starts with '"').
const (
	ExistsMarker = "N"
	MaxDigit     = 'F'
)

// HexDigits is the alphabet used by the numeric/IP comparable-number
// encoding: '0'-'9' followed by 'A'-'F'.
var HexDigits = []byte("0123456789ABCDEF")

// Pattern is an immutable, tagged-variant value predicate. Two Patterns
// are Equal when their Kind and payload are equal; identity beyond that
// (e.g. which ByteMatch was built from it) is irrelevant to the value
// itself.
type Pattern struct {
	Kind Kind

	// Bytes holds the single-byte-string payload for Exact, Prefix,
	// Suffix (stored reversed), EqualsIgnoreCase (stored lower-cased),
	// Wildcard (raw, with embedded '*'), AnythingButPrefix,
	// AnythingButSuffix (stored reversed) and NumericEq (the encoded
	// comparable-number string).
	Bytes []byte

	// Values holds the canonicalized (sorted, de-duplicated) value set
	// for AnythingBut and AnythingButIgnoreCase.
	Values [][]byte

	// Numeric is set on AnythingBut to request numeric-equality
	// comparison instead of byte-structural comparison.
	Numeric bool

	// Bottom/Top/OpenBottom/OpenTop/IsCIDR describe a NumericRange.
	// Bottom and Top are fixed-width encodings so that byte-lexicographic
	// comparison equals numeric comparison (see jsonrule for the
	// encoder); IsCIDR marks a range built from a CIDR block, which
	// matches hex-encoded IP text rather than the numeric encoding.
	Bottom     []byte
	Top        []byte
	OpenBottom bool
	OpenTop    bool
	IsCIDR     bool
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func lowerASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

func canonicalValues(values [][]byte) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = cloneBytes(v)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	deduped := out[:0]
	for i, v := range out {
		if i == 0 || !bytes.Equal(v, deduped[len(deduped)-1]) {
			deduped = append(deduped, v)
		}
	}
	return deduped
}

// NewExact builds an Exact pattern. b is expected to already carry any
// surrounding quote bytes the caller wants matched literally.
func NewExact(b []byte) Pattern { return Pattern{Kind: Exact, Bytes: cloneBytes(b)} }

// NewPrefix builds a Prefix pattern.
func NewPrefix(b []byte) Pattern { return Pattern{Kind: Prefix, Bytes: cloneBytes(b)} }

// NewSuffix builds a Suffix pattern. The payload is stored reversed so
// that ByteMachine's reverse scan walks it byte-for-byte.
func NewSuffix(raw []byte) Pattern { return Pattern{Kind: Suffix, Bytes: reversed(raw)} }

// NewEqualsIgnoreCase builds an EqualsIgnoreCase pattern; the payload is
// canonicalized to ASCII lower-case at construction time.
func NewEqualsIgnoreCase(raw []byte) Pattern {
	return Pattern{Kind: EqualsIgnoreCase, Bytes: lowerASCII(raw)}
}

// NewWildcard builds a Wildcard pattern from a raw literal containing one
// or more '*' bytes.
func NewWildcard(raw []byte) Pattern { return Pattern{Kind: Wildcard, Bytes: cloneBytes(raw)} }

// NewNumericEq builds a NumericEq pattern from an already fixed-width
// hex-encoded comparable number.
func NewNumericEq(encoded []byte) Pattern { return Pattern{Kind: NumericEq, Bytes: cloneBytes(encoded)} }

// NewNumericRange builds a NumericRange pattern over two fixed-width
// encoded endpoints.
func NewNumericRange(bottom, top []byte, openBottom, openTop, isCIDR bool) Pattern {
	return Pattern{
		Kind:       NumericRange,
		Bottom:     cloneBytes(bottom),
		Top:        cloneBytes(top),
		OpenBottom: openBottom,
		OpenTop:    openTop,
		IsCIDR:     isCIDR,
	}
}

// NewAnythingBut builds an AnythingBut pattern. All values are assumed to
// already be of the same type; that invariant is enforced by the external
// rule compiler, not here.
func NewAnythingBut(values [][]byte, numeric bool) Pattern {
	return Pattern{Kind: AnythingBut, Values: canonicalValues(values), Numeric: numeric}
}

// NewAnythingButPrefix builds an AnythingButPrefix pattern.
func NewAnythingButPrefix(b []byte) Pattern {
	return Pattern{Kind: AnythingButPrefix, Bytes: cloneBytes(b)}
}

// NewAnythingButSuffix builds an AnythingButSuffix pattern (stored
// reversed, like Suffix).
func NewAnythingButSuffix(raw []byte) Pattern {
	return Pattern{Kind: AnythingButSuffix, Bytes: reversed(raw)}
}

// NewAnythingButIgnoreCase builds an AnythingButIgnoreCase pattern; each
// value is lower-cased before canonicalization.
func NewAnythingButIgnoreCase(values [][]byte) Pattern {
	lowered := make([][]byte, len(values))
	for i, v := range values {
		lowered[i] = lowerASCII(v)
	}
	return Pattern{Kind: AnythingButIgnoreCase, Values: canonicalValues(lowered)}
}

// NewExists builds the Exists pattern.
func NewExists() Pattern { return Pattern{Kind: Exists} }

// NewAbsent builds the Absent pattern.
func NewAbsent() Pattern { return Pattern{Kind: Absent} }

// Equal reports whether two patterns have the same variant and payload.
func (p Pattern) Equal(o Pattern) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case Exact, Prefix, Suffix, EqualsIgnoreCase, Wildcard, NumericEq, AnythingButPrefix, AnythingButSuffix:
		return bytes.Equal(p.Bytes, o.Bytes)
	case NumericRange:
		return bytes.Equal(p.Bottom, o.Bottom) && bytes.Equal(p.Top, o.Top) &&
			p.OpenBottom == o.OpenBottom && p.OpenTop == o.OpenTop && p.IsCIDR == o.IsCIDR
	case AnythingBut, AnythingButIgnoreCase:
		if p.Numeric != o.Numeric || len(p.Values) != len(o.Values) {
			return false
		}
		for i := range p.Values {
			if !bytes.Equal(p.Values[i], o.Values[i]) {
				return false
			}
		}
		return true
	case Exists, Absent:
		return true
	default:
		panic("pattern: Equal on unimplemented Kind " + p.Kind.String())
	}
}

// Key returns a canonical string encoding of the pattern's variant and
// payload, suitable as a map key wherever Pattern's own equality (Equal)
// needs to back an index rather than a pairwise comparison — Pattern
// itself is not comparable because of its slice fields.
func (p Pattern) Key() string {
	return fmt.Sprintf("%d|%x|%x|%x|%t|%t|%t|%t|%v",
		p.Kind, p.Bytes, p.Bottom, p.Top, p.OpenBottom, p.OpenTop, p.IsCIDR, p.Numeric, p.Values)
}

// HashKey is a fast 64-bit digest of Key(), suitable wherever Pattern
// equality needs to back a map index without repeatedly hashing and
// comparing the full canonical string — notably AnythingBut's Values
// payload, which can carry many entries.
func (p Pattern) HashKey() uint64 { return xxhash.Sum64String(p.Key()) }

// IsShortcutEligible reports whether this pattern's terminus may be
// represented by a ByteMachine shortcut transition: exact-match
// terminal chains only.
func (p Pattern) IsShortcutEligible() bool {
	return p.Kind == Exact || p.Kind == EqualsIgnoreCase
}

// IsAnythingButVariant reports whether the pattern belongs to the
// "anything-but" family, which shares one next-name-state per machine
// (the invariant that every value of one AnythingBut set shares a single next state).
func (p Pattern) IsAnythingButVariant() bool {
	switch p.Kind {
	case AnythingBut, AnythingButPrefix, AnythingButSuffix, AnythingButIgnoreCase:
		return true
	default:
		return false
	}
}
