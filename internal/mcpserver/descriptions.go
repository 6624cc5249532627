package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeScanRepository() string {
	return `Runs a full source-risk scan of a TypeScript/JavaScript repository and returns the complete report.

USE WHEN:
- Getting an overall risk picture of a codebase before planning work
- Producing a report to attach to a review or planning document
- Tracking how risk metrics move between commits

INTERPRETING RESULTS:
- shadow_logic_density > 0.15: a large share of the codebase is complex and unreviewed
- cognitive_load > 70: unit is hard to follow; > 85 is a strong refactoring candidate
- fragility blends cognitive load with missing review history; high values break under change
- refactoring_runway_months estimates how long cleanup takes at the current pace (99 means nothing to do)
- Hotspots are ranked shadow-first, then by cognitive load

METRICS RETURNED:
- summary: unit counts, shadow density, avg/p50/p95 cognitive load, redundancy score, runway
- hotspots: ranked units with scores, explanations, and suggested actions
- clusters: groups of near-duplicate logic with a consolidation suggestion`
}

func describeAuditHotspots() string {
	return `Lists the riskiest functions, components, and hooks in a repository, ranked for review priority.

USE WHEN:
- Deciding which files to read first in an unfamiliar codebase
- Picking refactoring targets with the highest payoff
- Checking whether a known-problematic unit still ranks high

INTERPRETING RESULTS:
- Shadow units (complex, with no review evidence in git history) rank above everything else
- why: plain-language reasons a unit ranks (deep nesting, many branches, effect without cleanup, ...)
- actions: concrete next steps, derived from matched rules and cluster membership
- shadow_only=true filters to units that are both complex (load > 70) and unreviewed (evidence < 30)

METRICS RETURNED:
- hotspots: path, symbol, kind, line span, scores, why, actions
- summary: repo-level aggregates for context`
}

func describeFindDuplicateLogic() string {
	return `Finds clusters of near-duplicate functions and components that should likely be consolidated.

USE WHEN:
- Hunting copy-paste drift after a feature has been cloned across screens
- Scoping an extraction refactor (how many call sites share this logic?)
- Explaining why a bug fix needs to land in several places

INTERPRETING RESULTS:
- Members of a cluster exceed 70% token similarity (85% for components, which share JSX scaffolding)
- Similarity is structural: renamed variables and changed literals still match
- suggestion names a plausible shared helper based on the members' common name prefix
- redundancy_score is the fraction of scanned units that sit in some cluster

METRICS RETURNED:
- clusters: stable cluster id, member unit ids, consolidation suggestion
- redundancy_score: repo-level duplication fraction`
}
