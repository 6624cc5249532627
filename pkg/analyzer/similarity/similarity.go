package similarity

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

const (
	// DefaultShingleSize is the token window width for comparison.
	DefaultShingleSize = 4

	// DefaultUtilityThreshold applies to pairs where at least one side
	// is not a component.
	DefaultUtilityThreshold = 0.70

	// DefaultComponentThreshold applies when both sides are components;
	// JSX scaffolding is repetitive, so the bar is higher.
	DefaultComponentThreshold = 0.85

	// minTokens excludes trivially small units from clustering.
	minTokens = 4
)

// Cluster is a group of near-duplicate units. Members holds the unit
// IDs of the grouped units.
type Cluster struct {
	ID         string   `json:"id"`
	Members    []string `json:"members"`
	Suggestion string   `json:"suggestion"`
}

// Engine computes pairwise similarity and groups units into clusters.
type Engine struct {
	shingleSize        int
	utilityThreshold   float64
	componentThreshold float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithShingleSize overrides the token window width.
func WithShingleSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.shingleSize = n
		}
	}
}

// WithThresholds overrides the utility and component thresholds.
func WithThresholds(utility, component float64) Option {
	return func(e *Engine) {
		e.utilityThreshold = utility
		e.componentThreshold = component
	}
}

// New creates a similarity engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		shingleSize:        DefaultShingleSize,
		utilityThreshold:   DefaultUtilityThreshold,
		componentThreshold: DefaultComponentThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Shingles returns the set of space-joined k-grams over a token
// stream. Streams shorter than the window collapse to one shingle
// covering the whole stream, so short-but-identical bodies still
// compare equal.
func Shingles(tokens []string, size int) map[string]struct{} {
	set := make(map[string]struct{})
	if len(tokens) == 0 {
		return set
	}
	if len(tokens) < size {
		set[strings.Join(tokens, " ")] = struct{}{}
		return set
	}
	for i := 0; i+size <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+size], " ")] = struct{}{}
	}
	return set
}

// Jaccard computes set overlap over shingle sets. Two empty sets are
// identical by convention; one empty set shares nothing.
func Jaccard(a, b map[string]struct{}) float64 {
	return bitmapJaccard(toBitmap(a), toBitmap(b))
}

// toBitmap hashes each shingle into a 64-bit key. Bitmap intersection
// is far cheaper than string-set intersection across thousands of
// pairwise comparisons.
func toBitmap(shingles map[string]struct{}) *roaring64.Bitmap {
	bm := roaring64.New()
	for s := range shingles {
		bm.Add(xxhash.Sum64String(s))
	}
	return bm
}

func bitmapJaccard(a, b *roaring64.Bitmap) float64 {
	if a.IsEmpty() && b.IsEmpty() {
		return 1.0
	}
	if a.IsEmpty() || b.IsEmpty() {
		return 0.0
	}
	intersection := roaring64.And(a, b).GetCardinality()
	if intersection == 0 {
		return 0.0
	}
	union := roaring64.Or(a, b).GetCardinality()
	return float64(intersection) / float64(union)
}

// Compare returns the similarity of two source bodies.
func (e *Engine) Compare(sourceA, sourceB string) float64 {
	return Jaccard(
		Shingles(Tokenize(sourceA), e.shingleSize),
		Shingles(Tokenize(sourceB), e.shingleSize),
	)
}

// Clusters groups near-duplicate units with union-find. Units whose
// token stream is shorter than the shingle window are excluded. The
// result is sorted by cluster ID for deterministic output.
func (e *Engine) Clusters(units []unit.Unit) []Cluster {
	type entry struct {
		idx    int
		bitmap *roaring64.Bitmap
	}

	entries := make([]entry, 0, len(units))
	for i := range units {
		tokens := Tokenize(units[i].Source)
		if len(tokens) < minTokens {
			continue
		}
		entries = append(entries, entry{
			idx:    i,
			bitmap: toBitmap(Shingles(tokens, e.shingleSize)),
		})
	}
	if len(entries) < 2 {
		return nil
	}

	uf := newUnionFind(len(entries))
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := &units[entries[i].idx], &units[entries[j].idx]
			sim := bitmapJaccard(entries[i].bitmap, entries[j].bitmap)
			if sim >= e.threshold(a, b) {
				uf.union(i, j)
			}
		}
	}

	groups := make(map[int][]*unit.Unit)
	for i := range entries {
		root := uf.find(i)
		groups[root] = append(groups[root], &units[entries[i].idx])
	}

	var clusters []Cluster
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		clusters = append(clusters, buildCluster(members))
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].ID < clusters[j].ID
	})
	return clusters
}

// threshold picks the similarity bar for a pair.
func (e *Engine) threshold(a, b *unit.Unit) float64 {
	if a.Kind == unit.KindComponent && b.Kind == unit.KindComponent {
		return e.componentThreshold
	}
	return e.utilityThreshold
}

// buildCluster derives the stable ID and refactoring suggestion for a
// member set.
func buildCluster(members []*unit.Unit) Cluster {
	ids := make([]string, len(members))
	labels := make([]string, len(members))
	names := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
		labels[i] = m.Label()
		names[i] = m.Name
	}

	// The cluster ID hashes labels, not unit IDs, so it survives
	// span drift when surrounding code moves the members.
	sort.Strings(labels)
	sum := blake3.Sum256([]byte(strings.Join(labels, "|")))

	return Cluster{
		ID:         hex.EncodeToString(sum[:])[:8],
		Members:    ids,
		Suggestion: suggestion(names),
	}
}

// suggestion proposes a shared-helper name from the members' common
// name prefix when it is long enough to be meaningful.
func suggestion(names []string) string {
	prefix := commonPrefix(names)
	if len(prefix) > 3 {
		return "extract shared utility: shared" +
			strings.ToUpper(prefix[:1]) + prefix[1:] + "()"
	}
	return "extract shared utility: sharedLogic()"
}

func commonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, name := range names[1:] {
		for !strings.HasPrefix(name, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// unionFind is a disjoint-set over entry indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

// find returns the root of x, compressing the path as it goes.
func (u *unionFind) find(x int) int {
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
