package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

func matchIDs(matches []Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.RuleID
	}
	return ids
}

func TestRenderSideEffectRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	comp := &unit.Unit{Kind: unit.KindComponent, RenderSideEffects: 2}
	assert.Contains(t, matchIDs(reg.Match(comp, rules)), "REACT-001")

	fn := &unit.Unit{Kind: unit.KindFunction, RenderSideEffects: 2}
	assert.NotContains(t, matchIDs(reg.Match(fn, rules)), "REACT-001")
}

func TestEffectDepsRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	u := &unit.Unit{
		HookCalls: []string{"useEffect"},
		Source:    "useEffect(() => { track(userId); }, [])",
	}
	assert.Contains(t, matchIDs(reg.Match(u, rules)), "REACT-002")

	withDeps := &unit.Unit{
		HookCalls: []string{"useEffect"},
		Source:    "useEffect(() => { track(userId); }, [userId])",
	}
	assert.NotContains(t, matchIDs(reg.Match(withDeps, rules)), "REACT-002")
}

func TestSetStateInLoopRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	u := &unit.Unit{Source: "items.forEach(item => setCount(item))"}
	assert.Contains(t, matchIDs(reg.Match(u, rules)), "REACT-003")
}

func TestDerivedStateRule(t *testing.T) {
	reg := NewRegistry()
	u := &unit.Unit{Source: "const [name, setName] = useState(props.name);"}
	assert.Contains(t, matchIDs(reg.Match(u, DefaultRules())), "REACT-004")
}

func TestPropDrillingRule(t *testing.T) {
	reg := NewRegistry()
	u := &unit.Unit{Source: "<A {...rest}><B {...rest}><C {...rest} /></B></A>"}
	assert.Contains(t, matchIDs(reg.Match(u, DefaultRules())), "REACT-005")
}

func TestAnyAbuseRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	u := &unit.Unit{Source: "function f(a: any, b: any, c: any, d: any) {}"}
	assert.Contains(t, matchIDs(reg.Match(u, rules)), "TS-001")

	few := &unit.Unit{Source: "function f(a: any, b: any) {}"}
	assert.NotContains(t, matchIDs(reg.Match(few, rules)), "TS-001")
}

func TestUnguardedAPICallRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	u := &unit.Unit{Source: "const res = await fetch(url);"}
	assert.Contains(t, matchIDs(reg.Match(u, rules)), "TS-002")

	guarded := &unit.Unit{Source: "try { await fetch(url); } catch (e) { report(e); }", TryCatchCount: 1}
	assert.NotContains(t, matchIDs(reg.Match(guarded, rules)), "TS-002")
}

func TestSwallowedErrorRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	empty := &unit.Unit{Source: "try { go(); } catch (e) {}"}
	assert.Contains(t, matchIDs(reg.Match(empty, rules)), "TS-003")

	logOnly := &unit.Unit{Source: "try { go(); } catch (e) { console.log(e); }"}
	assert.Contains(t, matchIDs(reg.Match(logOnly, rules)), "TS-003")
}

func TestUnsafeDeepAccessRule(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	u := &unit.Unit{Source: "return order.customer.address.city;"}
	assert.Contains(t, matchIDs(reg.Match(u, rules)), "TS-004")

	chained := &unit.Unit{Source: "return order?.customer?.address?.city;"}
	assert.NotContains(t, matchIDs(reg.Match(chained, rules)), "TS-004")
}

func TestComplexityRules(t *testing.T) {
	reg := NewRegistry()
	rules := DefaultRules()

	boolHeavy := &unit.Unit{BooleanComplexity: 6}
	assert.Contains(t, matchIDs(reg.Match(boolHeavy, rules)), "CX-001")

	deep := &unit.Unit{NestingDepth: 5}
	assert.Contains(t, matchIDs(reg.Match(deep, rules)), "CX-002")

	calm := &unit.Unit{BooleanComplexity: 5, NestingDepth: 4}
	ids := matchIDs(reg.Match(calm, rules))
	assert.NotContains(t, ids, "CX-001")
	assert.NotContains(t, ids, "CX-002")
}

func TestInlineHandlersRule(t *testing.T) {
	reg := NewRegistry()
	src := `<div onClick={() => a()} onFocus={() => b()} onBlur={() => c()} />`

	comp := &unit.Unit{Kind: unit.KindComponent, Source: src}
	assert.Contains(t, matchIDs(reg.Match(comp, DefaultRules())), "CX-003")

	fn := &unit.Unit{Kind: unit.KindFunction, Source: src}
	assert.NotContains(t, matchIDs(reg.Match(fn, DefaultRules())), "CX-003")
}

func TestMagicStringsRule(t *testing.T) {
	reg := NewRegistry()
	u := &unit.Unit{Source: `a("pending"); b("pending"); c("pending");`}
	matches := reg.Match(u, DefaultRules())
	require.Contains(t, matchIDs(matches), "CX-005")
	for _, m := range matches {
		if m.RuleID == "CX-005" {
			assert.Contains(t, m.Detail, "pending")
		}
	}
}

func TestCommentsOverNamingRule(t *testing.T) {
	reg := NewRegistry()
	u := &unit.Unit{
		LOC:                 6,
		IdentifierAmbiguity: 0.8,
		Source:              "// compute\n// the\n// thing\nconst tmp = data;",
	}
	assert.Contains(t, matchIDs(reg.Match(u, DefaultRules())), "CX-006")
}

func TestSimilarityOwnedRuleNeverFiresHere(t *testing.T) {
	reg := NewRegistry()
	u := &unit.Unit{Source: "anything at all", BooleanComplexity: 0}
	assert.NotContains(t, matchIDs(reg.Match(u, DefaultRules())), "CX-004")
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruleset.yaml")
	doc := `rules:
  - id: CX-001
    name: boolean overload
    when: six or more boolean operators
    severity: high
    action: name the sub-conditions
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "CX-001", loaded[0].ID)
	assert.Equal(t, "high", loaded[0].Severity)

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
