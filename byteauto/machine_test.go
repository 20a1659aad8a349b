package byteauto

import (
	"sort"
	"testing"

	"github.com/coregx/rulematch/pattern"
)

type testState struct{ name string }

func newTestState(name string) *testState { return &testState{name: name} }

func transitionNames(t *testing.T, got []Result[*testState]) []string {
	t.Helper()
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Next.name
	}
	sort.Strings(names)
	return names
}

func TestExactMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("running")
	m.AddPattern(pattern.NewExact([]byte(`"running"`)), func() *testState { return want })

	got := m.TransitionOn(`"running"`)
	if names := transitionNames(t, got); len(names) != 1 || names[0] != "running" {
		t.Fatalf("TransitionOn exact match = %v, want [running]", names)
	}
	if got := m.TransitionOn(`"stopped"`); len(got) != 0 {
		t.Fatalf("TransitionOn non-match = %v, want empty", got)
	}
}

func TestExactMatchSharesPrefixWithLongerExact(t *testing.T) {
	// "running" is a strict byte prefix of "running2": registering the
	// longer pattern must extend the shorter pattern's terminal
	// Shortcut transition rather than branch off a dead-end state.
	m := New[*testState](nil)
	short := newTestState("running")
	long := newTestState("running2")
	m.AddPattern(pattern.NewExact([]byte("running")), func() *testState { return short })
	m.AddPattern(pattern.NewExact([]byte("running2")), func() *testState { return long })

	if names := transitionNames(t, m.TransitionOn("running")); len(names) != 1 || names[0] != "running" {
		t.Fatalf("TransitionOn(%q) = %v, want [running]", "running", names)
	}
	if names := transitionNames(t, m.TransitionOn("running2")); len(names) != 1 || names[0] != "running2" {
		t.Fatalf("TransitionOn(%q) = %v, want [running2]", "running2", names)
	}
}

func TestEqualsIgnoreCaseSharesPrefixWithLongerEqualsIgnoreCase(t *testing.T) {
	// "RUN" lower-cases to "run", a strict byte prefix of "RUNNER"'s
	// "runner": same shared-Shortcut extension hazard as the Exact case,
	// on the ignore-case chain instead.
	m := New[*testState](nil)
	short := newTestState("run")
	long := newTestState("runner")
	m.AddPattern(pattern.NewEqualsIgnoreCase([]byte("RUN")), func() *testState { return short })
	m.AddPattern(pattern.NewEqualsIgnoreCase([]byte("RUNNER")), func() *testState { return long })

	if names := transitionNames(t, m.TransitionOn("run")); len(names) != 1 || names[0] != "run" {
		t.Fatalf("TransitionOn(%q) = %v, want [run]", "run", names)
	}
	if names := transitionNames(t, m.TransitionOn("runner")); len(names) != 1 || names[0] != "runner" {
		t.Fatalf("TransitionOn(%q) = %v, want [runner]", "runner", names)
	}
}

func TestPrefixMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("p")
	m.AddPattern(pattern.NewPrefix([]byte(`"us-`)), func() *testState { return want })

	if got := m.TransitionOn(`"us-east-1"`); len(got) != 1 {
		t.Fatalf("TransitionOn prefix match = %v, want 1 result", got)
	}
	if got := m.TransitionOn(`"eu-west-1"`); len(got) != 0 {
		t.Fatalf("TransitionOn prefix non-match = %v, want empty", got)
	}
}

func TestSuffixMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("s")
	m.AddPattern(pattern.NewSuffix([]byte(`.com"`)), func() *testState { return want })

	if got := m.TransitionOn(`"example.com"`); len(got) != 1 {
		t.Fatalf("TransitionOn suffix match = %v, want 1 result", got)
	}
	if got := m.TransitionOn(`"example.org"`); len(got) != 0 {
		t.Fatalf("TransitionOn suffix non-match = %v, want empty", got)
	}
}

func TestEqualsIgnoreCaseMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("ic")
	m.AddPattern(pattern.NewEqualsIgnoreCase([]byte(`"Running"`)), func() *testState { return want })

	if got := m.TransitionOn(`"RUNNING"`); len(got) != 1 {
		t.Fatalf("TransitionOn ignorecase match = %v, want 1 result", got)
	}
	if got := m.TransitionOn(`"Running2"`); len(got) != 0 {
		t.Fatalf("TransitionOn ignorecase non-match = %v, want empty", got)
	}
}

func TestWildcardVariants(t *testing.T) {
	cases := []struct {
		name    string
		literal string
		value   string
		want    bool
	}{
		{"bare", "*", "anything", true},
		{"trailing", "us-*", "us-east-1", true},
		{"trailing-miss", "us-*", "eu-west-1", false},
		{"leading", "*-1", "us-east-1", true},
		{"interior", "us-*-1", "us-east-1", true},
		{"interior-miss", "us-*-1", "us-east-2", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New[*testState](nil)
			want := newTestState("w")
			m.AddPattern(pattern.NewWildcard([]byte(tc.literal)), func() *testState { return want })
			got := m.TransitionOn(tc.value)
			matched := len(got) == 1
			if matched != tc.want {
				t.Fatalf("TransitionOn(%q) against wildcard %q = %v, want %v", tc.value, tc.literal, matched, tc.want)
			}
		})
	}
}

func TestExistsMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("e")
	m.AddPattern(pattern.NewExists(), func() *testState { return want })

	if got := m.TransitionOn(`"anything"`); len(got) != 1 {
		t.Fatalf("TransitionOn exists = %v, want 1 result", got)
	}
}

func TestAnythingButMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("ab")
	m.AddPattern(pattern.NewAnythingBut([][]byte{[]byte(`"stopped"`), []byte(`"stopping"`)}, false), func() *testState { return want })

	if got := m.TransitionOn(`"running"`); len(got) != 1 {
		t.Fatalf("TransitionOn anything-but allowed value = %v, want 1 result", got)
	}
	if got := m.TransitionOn(`"stopped"`); len(got) != 0 {
		t.Fatalf("TransitionOn anything-but excluded value = %v, want empty", got)
	}
}

func TestDeletePatternRemovesMatch(t *testing.T) {
	m := New[*testState](nil)
	want := newTestState("d")
	p := pattern.NewExact([]byte(`"running"`))
	m.AddPattern(p, func() *testState { return want })
	if got := m.TransitionOn(`"running"`); len(got) != 1 {
		t.Fatalf("expected match before delete")
	}
	if !m.DeletePattern(p) {
		t.Fatalf("DeletePattern reported pattern not found")
	}
	if got := m.TransitionOn(`"running"`); len(got) != 0 {
		t.Fatalf("TransitionOn after delete = %v, want empty", got)
	}
	if !m.IsEmpty() {
		t.Fatalf("IsEmpty after deleting last pattern = false")
	}
}

func TestAddPatternDedupReusesNextState(t *testing.T) {
	m := New[*testState](nil)
	calls := 0
	alloc := func() *testState { calls++; return newTestState("x") }
	p := pattern.NewExact([]byte(`"a"`))
	s1 := m.AddPattern(p, alloc)
	s2 := m.AddPattern(p, alloc)
	if s1 != s2 {
		t.Fatalf("AddPattern on equal patterns returned distinct next-states")
	}
	if calls != 1 {
		t.Fatalf("AddPattern allocated %d times for a duplicate add, want 1", calls)
	}
}
