package jsonrule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/rulematch/machine"
)

func newTestMachine(t *testing.T) *machine.GenericMachine {
	t.Helper()
	return machine.New(NumericCodec(), nil, machine.DefaultConfig())
}

func addRule(t *testing.T, m *machine.GenericMachine, name, ruleJSON string) {
	t.Helper()
	patterns, err := CompileRule([]byte(ruleJSON), machine.DefaultConfig())
	require.NoError(t, err, "CompileRule(%s)", name)
	require.NoError(t, m.AddPatternRule(name, patterns), "AddPatternRule(%s)", name)
}

func matches(t *testing.T, m *machine.GenericMachine, eventJSON string) []string {
	t.Helper()
	ev, err := FlattenEvent([]byte(eventJSON))
	require.NoError(t, err)
	return m.Match(ev)
}

func TestNumericAndPrefixCompound(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "running-instance", `{
		"detail": {"state": ["initializing", "running"]},
		"resources": ["arn:aws:ec2:us-east-1:012345679012:instance/i-000000aaaaaa00000"]
	}`)

	got := matches(t, m, `{
		"detail": {"state": "running"},
		"resources": ["arn:aws:ec2:us-east-1:012345679012:instance/i-000000aaaaaa00000"]
	}`)
	require.Equal(t, []string{"running-instance"}, got)
}

func TestCIDRMatch(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "from-subnet", `{"detail": {"source-ip": [{"cidr": "10.0.0.0/24"}]}}`)

	require.Len(t, matches(t, m, `{"detail": {"source-ip": "10.0.0.33"}}`), 1)
	require.Empty(t, matches(t, m, `{"detail": {"source-ip": "10.0.1.33"}}`))
}

func TestArrayConsistencyNegativeCase(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "anna-jones", `{"employees": {"firstName": ["Anna"], "lastName": ["Jones"]}}`)

	got := matches(t, m, `{"employees": [[
		{"firstName": "Anna", "lastName": "Smith"},
		{"firstName": "Peter", "lastName": "Jones"}
	]]}`)
	require.Empty(t, got, "fields from different array elements must not corroborate")
}

func TestExistsAndAbsent(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "has-x", `{"x": [{"exists": true}]}`)
	addRule(t, m, "no-x", `{"x": [{"exists": false}]}`)

	require.Equal(t, []string{"no-x"}, matches(t, m, `{"a": 1}`))
	require.Equal(t, []string{"has-x"}, matches(t, m, `{"x": "X"}`))
}

func TestAnythingButWithPrefix(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "not-initializing", `{"detail": {"state": [{"anything-but": {"prefix": "init"}}]}}`)

	require.Len(t, matches(t, m, `{"detail": {"state": "running"}}`), 1)
	require.Empty(t, matches(t, m, `{"detail": {"state": "initializing"}}`))
}

func TestWildcard(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "wild", `{
		"a": [{"wildcard": "*bc"}],
		"b": [{"wildcard": "d*f"}],
		"c": [{"wildcard": "xy*"}]
	}`)

	require.Len(t, matches(t, m, `{"a": "abcbc", "b": "deeeef", "c": "xy"}`), 1)
	require.Empty(t, matches(t, m, `{"a": "abcbc", "b": "xy", "c": "deeeef"}`))
}

func TestNumericRangeBounds(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "mid-range", `{"value": [{"numeric": [">", 0, "<=", 5]}]}`)

	for _, tc := range []struct {
		value string
		want  int
	}{
		{"0", 0},
		{"1", 1},
		{"5", 1},
		{"5.5", 0},
		{"-1", 0},
	} {
		got := matches(t, m, `{"value": `+tc.value+`}`)
		require.Lenf(t, got, tc.want, "value=%s", tc.value)
	}
}

func TestNumericEquality(t *testing.T) {
	m := newTestMachine(t)
	addRule(t, m, "exactly-five", `{"value": [{"numeric": ["=", 5]}]}`)

	require.Len(t, matches(t, m, `{"value": 5}`), 1)
	require.Len(t, matches(t, m, `{"value": 5.0}`), 1)
	require.Empty(t, matches(t, m, `{"value": 6}`))
}

func TestDuplicateKeyPolicyReject(t *testing.T) {
	cfg := machine.DefaultConfig()
	cfg.DuplicateKeyPolicy = machine.RejectDuplicateKey
	_, err := CompileRule([]byte(`{"a": ["x"], "a": ["y"]}`), cfg)
	require.ErrorIs(t, err, machine.ErrDuplicateKey)
}

func TestDuplicateKeyPolicyOverride(t *testing.T) {
	patterns, err := CompileRule([]byte(`{"a": ["x"], "a": ["y"]}`), machine.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, patterns["a"], 1, "want the last occurrence only")
}

func TestAnythingButMixedTypesRejected(t *testing.T) {
	_, err := CompileRule([]byte(`{"a": [{"anything-but": ["x", 1]}]}`), machine.DefaultConfig())
	require.Error(t, err)
}

func TestFlattenArrayMembershipTracksSharedElement(t *testing.T) {
	ev, err := FlattenEvent([]byte(`{"employees": [{"firstName": "Anna", "lastName": "Jones"}]}`))
	require.NoError(t, err)

	idx := ev.FieldsNamed("employees.firstName")
	idx2 := ev.FieldsNamed("employees.lastName")
	require.Len(t, idx, 1)
	require.Len(t, idx2, 1)

	first := ev.Fields[idx[0]]
	last := ev.Fields[idx2[0]]
	require.Len(t, first.ArrayMembership, 1)
	require.Len(t, last.ArrayMembership, 1)
	for id, pos := range first.ArrayMembership {
		require.Equal(t, pos, last.ArrayMembership[id], "sibling fields of the same array element must agree on membership")
	}
}
