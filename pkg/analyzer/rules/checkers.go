package rules

import (
	"fmt"
	"regexp"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

var (
	effectArrowPattern   = regexp.MustCompile(`useEffect\(\s*\(\)\s*=>`)
	emptyDepsPattern     = regexp.MustCompile(`,\s*\[\s*\]\s*\)`)
	loopSetStatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)for\s*\(.*\)\s*\{[^}]*set[A-Z]`),
		regexp.MustCompile(`\.forEach\([^)]*set[A-Z]`),
		regexp.MustCompile(`\.map\([^)]*set[A-Z]`),
	}
	derivedStatePattern  = regexp.MustCompile(`useState\(\s*props\.`)
	propSpreadPattern    = regexp.MustCompile(`\{\.\.\.(\w+)\}`)
	anyAnnotationPattern = regexp.MustCompile(`:\s*any\b`)
	apiCallPattern       = regexp.MustCompile(`(fetch|axios|\.get|\.post|\.put|\.delete)\s*\(`)
	emptyCatchPattern    = regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`)
	logOnlyCatchPattern  = regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*console\.log`)
	deepAccessPattern    = regexp.MustCompile(`\w+\.\w+\.\w+\.\w+`)
	optionalChainPattern = regexp.MustCompile(`\?\.`)
	inlineHandlerPattern = regexp.MustCompile(`on\w+=\{\s*\(\s*\w*\s*\)\s*=>`)
	stringLiteralPattern = regexp.MustCompile(`['"]([^'"]{2,})['"]`)
	commentPattern       = regexp.MustCompile(`//[^\n]*|(?s:/\*.*?\*/)`)
)

func checkRenderSideEffect(u *unit.Unit) (string, bool) {
	if u.Kind == unit.KindComponent && u.RenderSideEffects > 0 {
		return fmt.Sprintf("%d side effect call(s) in render body", u.RenderSideEffects), true
	}
	return "", false
}

func checkEffectDeps(u *unit.Unit) (string, bool) {
	if !callsHook(u, "useEffect") {
		return "", false
	}
	if effectArrowPattern.MatchString(u.Source) && emptyDepsPattern.MatchString(u.Source) {
		return "useEffect with empty deps likely reads outer variables", true
	}
	return "", false
}

func checkSetStateInLoop(u *unit.Unit) (string, bool) {
	for _, p := range loopSetStatePatterns {
		if p.MatchString(u.Source) {
			return "state setter called inside a loop", true
		}
	}
	return "", false
}

func checkDerivedState(u *unit.Unit) (string, bool) {
	if derivedStatePattern.MatchString(u.Source) {
		return "props used as useState initial value", true
	}
	return "", false
}

func checkPropDrilling(u *unit.Unit) (string, bool) {
	if n := len(propSpreadPattern.FindAllString(u.Source, -1)); n >= 3 {
		return fmt.Sprintf("props spread %d times", n), true
	}
	return "", false
}

func checkAnyAbuse(u *unit.Unit) (string, bool) {
	if n := len(anyAnnotationPattern.FindAllString(u.Source, -1)); n > 3 {
		return fmt.Sprintf("'any' annotation used %d times", n), true
	}
	return "", false
}

func checkUnguardedAPICall(u *unit.Unit) (string, bool) {
	if apiCallPattern.MatchString(u.Source) && u.TryCatchCount == 0 {
		return "API call without try/catch", true
	}
	return "", false
}

func checkSwallowedError(u *unit.Unit) (string, bool) {
	if emptyCatchPattern.MatchString(u.Source) {
		return "empty catch block", true
	}
	if logOnlyCatchPattern.MatchString(u.Source) {
		return "catch block only logs to console", true
	}
	return "", false
}

func checkUnsafeDeepAccess(u *unit.Unit) (string, bool) {
	if deepAccessPattern.MatchString(u.Source) && !optionalChainPattern.MatchString(u.Source) {
		return "deep property access without optional chaining", true
	}
	return "", false
}

func checkBooleanOverload(u *unit.Unit) (string, bool) {
	if u.BooleanComplexity >= 6 {
		return fmt.Sprintf("%d boolean operators", u.BooleanComplexity), true
	}
	return "", false
}

func checkDeepNesting(u *unit.Unit) (string, bool) {
	if u.NestingDepth >= 5 {
		return fmt.Sprintf("nesting depth %d", u.NestingDepth), true
	}
	return "", false
}

func checkInlineHandlers(u *unit.Unit) (string, bool) {
	if u.Kind != unit.KindComponent {
		return "", false
	}
	if n := len(inlineHandlerPattern.FindAllString(u.Source, -1)); n >= 3 {
		return fmt.Sprintf("%d inline handlers, consider useCallback", n), true
	}
	return "", false
}

func checkMagicStrings(u *unit.Unit) (string, bool) {
	counts := make(map[string]int)
	for _, m := range stringLiteralPattern.FindAllStringSubmatch(u.Source, -1) {
		counts[m[1]]++
	}
	top, topCount := "", 0
	for s, c := range counts {
		if c >= 3 && (c > topCount || (c == topCount && s < top)) {
			top, topCount = s, c
		}
	}
	if topCount > 0 {
		return fmt.Sprintf("literal %q repeated %d times", top, topCount), true
	}
	return "", false
}

func checkCommentsOverNaming(u *unit.Unit) (string, bool) {
	comments := len(commentPattern.FindAllString(u.Source, -1))
	codeLines := u.LOC - comments
	if codeLines < 1 {
		codeLines = 1
	}
	ratio := float64(comments) / float64(codeLines)
	if ratio > 0.4 && u.IdentifierAmbiguity > 0.5 {
		return fmt.Sprintf("comment ratio %.0f%% with ambiguity %.0f%%", ratio*100, u.IdentifierAmbiguity*100), true
	}
	return "", false
}

func callsHook(u *unit.Unit, name string) bool {
	for _, call := range u.HookCalls {
		if call == name {
			return true
		}
	}
	return false
}
