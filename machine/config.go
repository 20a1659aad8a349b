package machine

// DuplicateKeyPolicy controls how a rule compiler (jsonrule.CompileRule)
// treats the same dotted key appearing twice in one rule document.
type DuplicateKeyPolicy uint8

const (
	// OverrideDuplicateKey keeps the last occurrence of a repeated key
	// (the default).
	OverrideDuplicateKey DuplicateKeyPolicy = iota
	// RejectDuplicateKey fails the compile with ErrDuplicateKey.
	RejectDuplicateKey
)

// AnythingButEquivalence controls whether two AnythingBut patterns with
// the same excluded-value set are considered the same registration by
// ByteMatch identity or by reached-NameState identity. ByteMatch
// identity (the default) deduplicates by the pattern's own canonical
// encoding, the same rule every other Kind follows.
type AnythingButEquivalence uint8

const (
	// ByteMatchIdentity deduplicates AnythingBut additions using the
	// pattern's own Key() encoding, like every other Kind.
	ByteMatchIdentity AnythingButEquivalence = iota
	// NameStateIdentity additionally treats two AnythingBut registrations
	// as equivalent when they would reach the same NameState, even if
	// their value sets were built from separately-allocated patterns.
	// Not implemented differently today (byteauto already dedups by
	// Key()); this option is recorded for forward compatibility with a
	// looser equivalence should one ever be needed, per the Open
	// Question resolved in DESIGN.md.
	NameStateIdentity
)

// Config configures a GenericMachine: the knobs that bound how large a
// rule set may grow and how it handles a few ambiguous inputs.
type Config struct {
	// MaxKeysPerRule rejects AddPatternRule calls whose key count
	// exceeds this.
	MaxKeysPerRule int

	// DuplicateKeyPolicy governs a rule compilation with a repeated key.
	DuplicateKeyPolicy DuplicateKeyPolicy

	// AnythingButEquivalence governs AnythingBut dedup granularity.
	AnythingButEquivalence AnythingButEquivalence
}

// DefaultConfig returns the documented default configuration.
func DefaultConfig() Config {
	return Config{
		MaxKeysPerRule:         256,
		DuplicateKeyPolicy:     OverrideDuplicateKey,
		AnythingButEquivalence: ByteMatchIdentity,
	}
}
