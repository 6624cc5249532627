package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

func baseUnit() *unit.Unit {
	return &unit.Unit{
		ID:       "abc123",
		FilePath: "src/orders.ts",
		Name:     "applyDiscount",
		Kind:     unit.KindFunction,
		LOC:      10,
	}
}

func TestCognitiveLoadZeroForTrivialUnit(t *testing.T) {
	assert.Equal(t, 0.0, CognitiveLoad(baseUnit()))
}

func TestCognitiveLoadBounded(t *testing.T) {
	u := baseUnit()
	u.Kind = unit.KindComponent
	u.NestingDepth = 50
	u.BranchCount = 100
	u.BooleanComplexity = 40
	u.CallbackDepth = 20
	u.IdentifierAmbiguity = 1.0
	u.RenderSideEffects = 9
	u.TryCatchCount = 3
	u.HookCalls = []string{"useEffect"}

	got := CognitiveLoad(u)
	assert.LessOrEqual(t, got, 100.0)
	assert.Equal(t, 100.0, got)
}

func TestCognitiveLoadMonotonicPerMetric(t *testing.T) {
	bump := []struct {
		name  string
		apply func(*unit.Unit)
	}{
		{"nesting", func(u *unit.Unit) { u.NestingDepth++ }},
		{"branches", func(u *unit.Unit) { u.BranchCount++ }},
		{"boolean", func(u *unit.Unit) { u.BooleanComplexity++ }},
		{"callbacks", func(u *unit.Unit) { u.CallbackDepth++ }},
		{"ambiguity", func(u *unit.Unit) { u.IdentifierAmbiguity += 0.2 }},
		{"try_catch", func(u *unit.Unit) { u.TryCatchCount++ }},
		{"side_effects", func(u *unit.Unit) { u.RenderSideEffects++ }},
	}

	for _, tt := range bump {
		t.Run(tt.name, func(t *testing.T) {
			u := baseUnit()
			before := CognitiveLoad(u)
			tt.apply(u)
			after := CognitiveLoad(u)
			assert.GreaterOrEqual(t, after, before)
			assert.Greater(t, after, 0.0)
		})
	}
}

func TestExceptionTermHalfWeightOnLargeUncoveredUnit(t *testing.T) {
	small := baseUnit()
	small.LOC = 10
	assert.Equal(t, 0.0, CognitiveLoad(small))

	large := baseUnit()
	large.LOC = 21
	assert.Equal(t, 4.0, CognitiveLoad(large))

	covered := baseUnit()
	covered.LOC = 21
	covered.TryCatchCount = 1
	assert.Equal(t, 8.0, CognitiveLoad(covered))
}

func TestReactAdjustmentOnlyForComponentsAndHooks(t *testing.T) {
	fn := baseUnit()
	fn.HookCalls = []string{"useEffect"}
	plain := CognitiveLoad(fn)

	hook := baseUnit()
	hook.Kind = unit.KindHook
	hook.HookCalls = []string{"useEffect"}
	assert.Equal(t, plain+15.0, CognitiveLoad(hook))

	cleaned := baseUnit()
	cleaned.Kind = unit.KindHook
	cleaned.HookCalls = []string{"useEffect"}
	cleaned.HasCleanup = true
	assert.Equal(t, 0.0, CognitiveLoad(cleaned)) // -5 clamps at zero

	renders := baseUnit()
	renders.Kind = unit.KindComponent
	renders.RenderSideEffects = 1
	// One side effect at weight 7, plus the 20 render penalty.
	assert.Equal(t, 27.0, CognitiveLoad(renders))

	asFunction := baseUnit()
	asFunction.RenderSideEffects = 1
	assert.Equal(t, 7.0, CognitiveLoad(asFunction))
}

func TestShadowBoundary(t *testing.T) {
	assert.True(t, Shadow(71, 29))
	assert.False(t, Shadow(70, 29))
	assert.False(t, Shadow(71, 30))
	assert.False(t, Shadow(70, 30))
}

func TestFragilityBlend(t *testing.T) {
	assert.Equal(t, 40.0, Fragility(0, 0))
	assert.Equal(t, 60.0, Fragility(100, 100))
	assert.Equal(t, 100.0, Fragility(100, 0))
	assert.Equal(t, 0.0, Fragility(0, 100))
	assert.Equal(t, 78.0, Fragility(90, 40))
}

func TestCompute(t *testing.T) {
	u := baseUnit()
	u.NestingDepth = 2
	u.BranchCount = 3
	u.BooleanComplexity = 1
	u.CallbackDepth = 1
	u.IdentifierAmbiguity = 0.5
	u.TryCatchCount = 1

	s := Compute(u, 10)
	assert.Equal(t, u.ID, s.UnitID)
	// 2*15 + 3*10 + 1*8 + 1*12 + 0.5*10 + 8 exception weight.
	assert.Equal(t, 93.0, s.CognitiveLoad)
	assert.Equal(t, 10.0, s.ReviewEvidence)
	assert.True(t, s.Shadow)
	assert.Equal(t, Fragility(s.CognitiveLoad, s.ReviewEvidence), s.Fragility)
	assert.Empty(t, s.RedundancyClusterID)
}

func TestCognitiveLoadModerateBranchingSaturates(t *testing.T) {
	u := baseUnit()
	u.NestingDepth = 5
	u.BranchCount = 8
	u.LOC = 40

	// 5*15 + 8*10 + 4 clamps to the ceiling; a unit like this must
	// clear the shadow floor when review history is thin.
	got := CognitiveLoad(u)
	assert.Equal(t, 100.0, got)
	assert.Greater(t, got, shadowCognitiveFloor)
	assert.True(t, Shadow(got, 0))
}
