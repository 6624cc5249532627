// Package score turns structural metrics and review evidence into
// composite risk scores.
package score

import (
	"math"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

// Metric weights. Each structural signal is capped before weighting so
// one pathological function cannot saturate the score on a single axis.
const (
	weightNesting    = 15.0
	weightBranch     = 10.0
	weightBoolean    = 8.0
	weightCallback   = 12.0
	weightAmbiguity  = 10.0
	weightContext    = 5.0
	weightException  = 8.0
	weightSideEffect = 7.0

	capNesting    = 6.0
	capBranch     = 10.0
	capBoolean    = 8.0
	capCallback   = 5.0
	capContext    = 5.0
	capSideEffect = 3.0

	// React-specific adjustments, applied to components and hooks only.
	effectWithoutCleanupPenalty = 15.0
	cleanupCredit               = 5.0
	renderSideEffectPenalty     = 20.0

	// An uncaught-exception surface is assumed once a function grows
	// past trivial size; half weight when no try/catch appears at all.
	uncoveredExceptionMinLOC = 20

	// Shadow logic boundary: high structural load with little review
	// history. Both comparisons are strict.
	shadowCognitiveFloor = 70.0
	shadowEvidenceCeil   = 30.0

	fragilityCognitiveWeight = 0.6
	fragilityEvidenceWeight  = 0.4
)

// UnitScores holds the composite scores for one unit.
type UnitScores struct {
	UnitID              string  `json:"unit_id"`
	CognitiveLoad       float64 `json:"cognitive_load"`
	ReviewEvidence      float64 `json:"review_evidence"`
	Shadow              bool    `json:"shadow"`
	Fragility           float64 `json:"fragility"`
	RedundancyClusterID string  `json:"redundancy_cluster_id,omitempty"`
}

// CognitiveLoad computes the 0-100 structural load score for a unit.
func CognitiveLoad(u *unit.Unit) float64 {
	load := 0.0
	load += weightNesting * capped(u.NestingDepth, capNesting)
	load += weightBranch * capped(u.BranchCount, capBranch)
	load += weightBoolean * capped(u.BooleanComplexity, capBoolean)
	load += weightCallback * capped(u.CallbackDepth, capCallback)
	load += weightAmbiguity * clamp01(u.IdentifierAmbiguity)
	load += weightContext * capped(u.ContextSwitches, capContext)
	load += weightSideEffect * capped(u.RenderSideEffects, capSideEffect)

	switch {
	case u.TryCatchCount > 0:
		load += weightException
	case u.LOC > uncoveredExceptionMinLOC:
		load += weightException / 2
	}

	if u.Kind == unit.KindComponent || u.Kind == unit.KindHook {
		load += reactAdjustment(u)
	}

	return round1(clamp(load, 0, 100))
}

// reactAdjustment penalizes effect hooks without cleanup and render
// side effects, and credits units that do clean up.
func reactAdjustment(u *unit.Unit) float64 {
	adj := 0.0
	if callsEffectHook(u) && !u.HasCleanup {
		adj += effectWithoutCleanupPenalty
	}
	if u.HasCleanup {
		adj -= cleanupCredit
	}
	if u.RenderSideEffects > 0 && u.Kind == unit.KindComponent {
		adj += renderSideEffectPenalty
	}
	return adj
}

func callsEffectHook(u *unit.Unit) bool {
	for _, call := range u.HookCalls {
		if call == "useEffect" || call == "useLayoutEffect" {
			return true
		}
	}
	return false
}

// Fragility blends structural load with missing review history.
func Fragility(cognitiveLoad, reviewEvidence float64) float64 {
	f := cognitiveLoad*fragilityCognitiveWeight + (100-reviewEvidence)*fragilityEvidenceWeight
	return round1(clamp(f, 0, 100))
}

// Shadow reports whether a unit is shadow logic: structurally loaded
// but nearly invisible to review. The boundary is exclusive on both
// axes, so (70, 29) and (71, 30) are not shadow while (71, 29) is.
func Shadow(cognitiveLoad, reviewEvidence float64) bool {
	return reviewEvidence < shadowEvidenceCeil && cognitiveLoad > shadowCognitiveFloor
}

// Compute derives the full score record for one unit. reviewEvidence
// is the 0-100 mined score; pass 0 when no history is available.
func Compute(u *unit.Unit, reviewEvidence float64) UnitScores {
	cog := CognitiveLoad(u)
	return UnitScores{
		UnitID:         u.ID,
		CognitiveLoad:  cog,
		ReviewEvidence: round1(clamp(reviewEvidence, 0, 100)),
		Shadow:         Shadow(cog, reviewEvidence),
		Fragility:      Fragility(cog, reviewEvidence),
	}
}

// capped limits a raw count to its cap before weighting.
func capped(v int, cap float64) float64 {
	return math.Min(float64(v), cap)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
