package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

func set(items ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func TestShingles(t *testing.T) {
	tokens := []string{"if", "(", "_VAR", ")", "{", "}"}
	got := Shingles(tokens, 4)
	assert.Equal(t, set(
		"if ( _VAR )",
		"( _VAR ) {",
		"_VAR ) { }",
	), got)
}

func TestShinglesDegenerate(t *testing.T) {
	tokens := []string{"return", "_VAR"}
	assert.Equal(t, set("return _VAR"), Shingles(tokens, 4))
	assert.Empty(t, Shingles(nil, 4))
}

func TestJaccardConventions(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard(set(), set()))
	assert.Equal(t, 0.0, Jaccard(set("a b c d"), set()))
	assert.Equal(t, 0.0, Jaccard(set(), set("a b c d")))
	assert.Equal(t, 1.0, Jaccard(set("a", "b"), set("a", "b")))
	assert.Equal(t, 0.0, Jaccard(set("a"), set("b")))
}

func TestJaccardExactBoundary(t *testing.T) {
	a := set("1", "2", "3", "4", "5", "6", "7")
	b := set("1", "2", "3", "4", "5", "6", "7", "8", "9", "10")
	assert.InDelta(t, 0.7, Jaccard(a, b), 1e-9)
}

func TestJaccardBounded(t *testing.T) {
	a := set("x y z w", "p q r s")
	b := set("x y z w", "m n o p")
	got := Jaccard(a, b)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
	assert.InDelta(t, 1.0/3.0, got, 1e-9)
}

// pairSources builds two sources sharing a token prefix of length n,
// each with one distinct trailing token. Their shingle similarity is
// (n-3)/(n-1) for a window of 4.
func pairSources(n int) (string, string) {
	base := []string{"if", "(", "x", ")", "{", "return", "'s'", ";", "}", "else"}
	prefix := strings.Join(base[:n], " ")
	return prefix + " {", prefix + " ^"
}

func pairUnits(kind unit.Kind, n int) []unit.Unit {
	a, b := pairSources(n)
	return []unit.Unit{
		{ID: "u1", FilePath: "src/a.ts", Name: "formatPrice", Kind: kind, Source: a},
		{ID: "u2", FilePath: "src/b.ts", Name: "formatTotal", Kind: kind, Source: b},
	}
}

func TestClustersFunctionThreshold(t *testing.T) {
	e := New()

	// Similarity (10-3)/(10-1) = 0.778: above the utility bar.
	clusters := e.Clusters(pairUnits(unit.KindFunction, 10))
	require.Len(t, clusters, 1)
	assert.ElementsMatch(t, []string{"u1", "u2"}, clusters[0].Members)

	// Similarity (7-3)/(7-1) = 0.667: below the utility bar.
	assert.Empty(t, e.Clusters(pairUnits(unit.KindFunction, 7)))
}

func TestClustersComponentThresholdIsHigher(t *testing.T) {
	e := New()

	// 0.778 clusters plain functions but not two components.
	assert.Empty(t, e.Clusters(pairUnits(unit.KindComponent, 10)))

	// Identical sources cluster regardless of kind.
	units := pairUnits(unit.KindComponent, 10)
	units[1].Source = units[0].Source
	require.Len(t, e.Clusters(units), 1)
}

func TestClustersMixedKindUsesUtilityThreshold(t *testing.T) {
	units := pairUnits(unit.KindComponent, 10)
	units[1].Kind = unit.KindFunction
	require.Len(t, New().Clusters(units), 1)
}

func TestClustersExcludeTinyUnits(t *testing.T) {
	units := []unit.Unit{
		{ID: "u1", FilePath: "a.ts", Name: "noop", Kind: unit.KindFunction, Source: "x"},
		{ID: "u2", FilePath: "b.ts", Name: "noop2", Kind: unit.KindFunction, Source: "x"},
	}
	assert.Empty(t, New().Clusters(units))
}

func TestClusterIDStableAcrossMemberOrder(t *testing.T) {
	units := pairUnits(unit.KindFunction, 10)
	forward := New().Clusters(units)

	reversed := []unit.Unit{units[1], units[0]}
	backward := New().Clusters(reversed)

	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.Equal(t, forward[0].ID, backward[0].ID)
	assert.Len(t, forward[0].ID, 8)
}

func TestSuggestionFromCommonPrefix(t *testing.T) {
	clusters := New().Clusters(pairUnits(unit.KindFunction, 10))
	require.Len(t, clusters, 1)
	assert.Equal(t, "extract shared utility: sharedFormat()", clusters[0].Suggestion)
}

func TestSuggestionFallback(t *testing.T) {
	units := pairUnits(unit.KindFunction, 10)
	units[0].Name = "a"
	units[1].Name = "b"
	clusters := New().Clusters(units)
	require.Len(t, clusters, 1)
	assert.Equal(t, "extract shared utility: sharedLogic()", clusters[0].Suggestion)
}

func TestTransitiveClustering(t *testing.T) {
	a, b := pairSources(10)
	c, _ := pairSources(10)
	units := []unit.Unit{
		{ID: "u1", FilePath: "a.ts", Name: "parseRowA", Kind: unit.KindFunction, Source: a},
		{ID: "u2", FilePath: "b.ts", Name: "parseRowB", Kind: unit.KindFunction, Source: b},
		{ID: "u3", FilePath: "c.ts", Name: "parseRowC", Kind: unit.KindFunction, Source: c},
	}
	clusters := New().Clusters(units)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 3)
}

func TestCompare(t *testing.T) {
	e := New()
	assert.Equal(t, 1.0, e.Compare("return a + b;", "return x + y;"))
	a, b := pairSources(10)
	assert.InDelta(t, 7.0/9.0, e.Compare(a, b), 1e-9)
}
