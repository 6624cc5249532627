// Package rules applies heuristic risk rules to extracted units.
// Rules are matched by ID to builtin checkers; the rule list itself
// (names, severities, suggested actions) can be overridden from YAML.
package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

// RulesetVersion participates in cache keys; bump it when checker
// behavior changes so stale cached matches are not served.
const RulesetVersion = "1.0"

// Rule describes one configurable rule.
type Rule struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	When     string `yaml:"when" json:"when"`
	Severity string `yaml:"severity" json:"severity"`
	Action   string `yaml:"action" json:"action"`
}

// Match is one rule firing against one unit.
type Match struct {
	RuleID   string `json:"rule_id"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Action   string `json:"action"`
	Detail   string `json:"detail,omitempty"`
}

// CheckFunc inspects a unit and returns a human-readable detail when
// the rule fires.
type CheckFunc func(*unit.Unit) (string, bool)

// ruleset is the YAML document shape.
type ruleset struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a rule list from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset: %w", err)
	}
	var rs ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset: %w", err)
	}
	return rs.Rules, nil
}

// DefaultRules returns the builtin React/TypeScript ruleset.
// CX-004 (redundant logic) has no checker here; the similarity engine
// owns duplicate detection.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "REACT-001", Name: "render side effect", When: "component body reaches network or storage", Severity: "high", Action: "move the call into an effect or data layer"},
		{ID: "REACT-002", Name: "stale effect closure", When: "useEffect has empty deps but an arrow callback", Severity: "medium", Action: "declare the values the effect reads in its deps"},
		{ID: "REACT-003", Name: "setState in loop", When: "state setter called inside a loop", Severity: "high", Action: "batch updates outside the loop"},
		{ID: "REACT-004", Name: "derived state", When: "useState initialized from props", Severity: "medium", Action: "derive during render or use a key"},
		{ID: "REACT-005", Name: "prop drilling", When: "props spread through three or more layers", Severity: "low", Action: "introduce context or composition"},
		{ID: "TS-001", Name: "any abuse", When: "more than three any annotations", Severity: "medium", Action: "type the boundaries, infer the rest"},
		{ID: "TS-002", Name: "unguarded API call", When: "network call without try/catch", Severity: "high", Action: "handle the failure path explicitly"},
		{ID: "TS-003", Name: "swallowed error", When: "empty or log-only catch block", Severity: "high", Action: "surface or rethrow the error"},
		{ID: "TS-004", Name: "unsafe deep access", When: "deep property chains without optional chaining", Severity: "medium", Action: "use ?. or narrow the type"},
		{ID: "CX-001", Name: "boolean overload", When: "six or more boolean operators", Severity: "medium", Action: "name the sub-conditions"},
		{ID: "CX-002", Name: "deep nesting", When: "nesting depth of five or more", Severity: "medium", Action: "extract guard clauses or helpers"},
		{ID: "CX-003", Name: "inline handler churn", When: "three or more inline JSX handlers", Severity: "low", Action: "hoist handlers with useCallback"},
		{ID: "CX-004", Name: "redundant logic", When: "near-duplicate of another unit", Severity: "medium", Action: "extract a shared utility"},
		{ID: "CX-005", Name: "magic string", When: "same literal repeated three or more times", Severity: "low", Action: "lift the literal into a constant"},
		{ID: "CX-006", Name: "comments over naming", When: "high comment ratio with ambiguous names", Severity: "low", Action: "rename instead of annotating"},
	}
}

// Registry maps rule IDs to their builtin checkers.
type Registry struct {
	checkers map[string]CheckFunc
}

// NewRegistry creates a registry with all builtin checkers installed.
func NewRegistry() *Registry {
	return &Registry{checkers: map[string]CheckFunc{
		"REACT-001": checkRenderSideEffect,
		"REACT-002": checkEffectDeps,
		"REACT-003": checkSetStateInLoop,
		"REACT-004": checkDerivedState,
		"REACT-005": checkPropDrilling,
		"TS-001":    checkAnyAbuse,
		"TS-002":    checkUnguardedAPICall,
		"TS-003":    checkSwallowedError,
		"TS-004":    checkUnsafeDeepAccess,
		"CX-001":    checkBooleanOverload,
		"CX-002":    checkDeepNesting,
		"CX-003":    checkInlineHandlers,
		"CX-005":    checkMagicStrings,
		"CX-006":    checkCommentsOverNaming,
	}}
}

// Match applies every rule with a registered checker to the unit.
func (r *Registry) Match(u *unit.Unit, rules []Rule) []Match {
	var matches []Match
	for _, rule := range rules {
		checker, ok := r.checkers[rule.ID]
		if !ok {
			continue
		}
		detail, fired := checker(u)
		if !fired {
			continue
		}
		matches = append(matches, Match{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Severity: rule.Severity,
			Action:   rule.Action,
			Detail:   detail,
		})
	}
	return matches
}
