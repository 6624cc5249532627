// Package unit extracts analyzable declarations from TypeScript and
// JavaScript sources and computes their structural metrics.
package unit

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Kind classifies an extracted unit.
type Kind string

const (
	// KindComponent marks a function whose body produces JSX.
	KindComponent Kind = "component"
	// KindHook marks a function named like a React hook (use + capital).
	KindHook Kind = "hook"
	// KindFunction marks any other extracted function.
	KindFunction Kind = "function"
)

// Span is an inclusive 1-based line range.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Lines returns the number of source lines the span covers.
func (s Span) Lines() int {
	if s.End < s.Start {
		return 0
	}
	return int(s.End-s.Start) + 1
}

// Unit is one extracted declaration with its structural metrics.
// ContextSwitches is reserved for editor-integration data and is
// always zero in batch scans.
type Unit struct {
	ID                  string   `json:"id"`
	FilePath            string   `json:"file_path"`
	Name                string   `json:"name"`
	Kind                Kind     `json:"kind"`
	Span                Span     `json:"span"`
	LOC                 int      `json:"loc"`
	NestingDepth        int      `json:"nesting_depth"`
	BranchCount         int      `json:"branch_count"`
	EarlyReturnCount    int      `json:"early_return_count"`
	TryCatchCount       int      `json:"try_catch_count"`
	HookCalls           []string `json:"hook_calls"`
	HasCleanup          bool     `json:"has_cleanup"`
	RenderSideEffects   int      `json:"render_side_effects"`
	BooleanComplexity   int      `json:"boolean_complexity"`
	CallbackDepth       int      `json:"callback_depth"`
	IdentifierAmbiguity float64  `json:"identifier_ambiguity"`
	ContextSwitches     int      `json:"context_switches"`
	Source              string   `json:"-"`
}

// Label returns the "path#name" form used in cluster membership lists.
func (u *Unit) Label() string {
	return u.FilePath + "#" + u.Name
}

// makeID derives a stable unit identifier from path, name, and span.
// Two scans of unchanged source produce identical IDs.
func makeID(filePath, name string, span Span) string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%d", filePath, name, span.Start, span.End)))
	return hex.EncodeToString(sum[:])[:16]
}
