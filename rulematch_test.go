package rulematch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRulerAddAndMatch(t *testing.T) {
	r := New()
	require.NoError(t, r.AddRule("has-x", []byte(`{"x": [{"exists": true}]}`)))

	names, err := r.Match([]byte(`{"x": "X"}`))
	require.NoError(t, err)
	require.Equal(t, []string{"has-x"}, names)

	names, err = r.Match([]byte(`{"y": "Y"}`))
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestRulerDeleteRule(t *testing.T) {
	r := New()
	rule := []byte(`{"a": ["x"]}`)
	require.NoError(t, r.AddRule("a-is-x", rule))

	names, err := r.Match([]byte(`{"a": "x"}`))
	require.NoError(t, err)
	require.Equal(t, []string{"a-is-x"}, names)

	require.NoError(t, r.DeleteRule("a-is-x", rule))

	names, err = r.Match([]byte(`{"a": "x"}`))
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestRulerStatsTrackAddsAndQueries(t *testing.T) {
	r := New()
	require.NoError(t, r.AddRule("a-is-x", []byte(`{"a": ["x"]}`)))
	_, err := r.Match([]byte(`{"a": "x"}`))
	require.NoError(t, err)

	snap := r.Stats()
	require.EqualValues(t, 1, snap.RulesAdded)
	require.EqualValues(t, 1, snap.QueriesTotal)
	require.EqualValues(t, 1, snap.MatchesTotal)
}

func TestRulerComplexityEvaluateRecordsRejection(t *testing.T) {
	r := New()
	require.NoError(t, r.AddRule("a-is-x", []byte(`{"a": ["x"]}`)))

	count, within := r.ComplexityEvaluate(0)
	require.False(t, within)
	require.Positive(t, count)
	require.EqualValues(t, 1, r.Stats().ComplexityRejections)
}
