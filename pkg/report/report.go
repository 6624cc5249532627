// Package report assembles scan results into the audit report and
// renders the PR comment summary.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/evidence"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/rules"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/score"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/similarity"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

// Repo identifies the scanned repository state.
type Repo struct {
	Name   string `json:"name"`
	Commit string `json:"commit"`
	Branch string `json:"branch"`
}

// HotspotScores is the score block embedded in each hotspot.
type HotspotScores struct {
	CognitiveLoad       float64 `json:"cognitive_load"`
	ReviewEvidence      float64 `json:"review_evidence"`
	Fragility           float64 `json:"fragility"`
	RedundancyClusterID string  `json:"redundancy_cluster_id,omitempty"`
}

// Hotspot is one ranked risky unit with explanations.
type Hotspot struct {
	Path    string        `json:"path"`
	Symbol  string        `json:"symbol"`
	Kind    unit.Kind     `json:"kind"`
	Span    unit.Span     `json:"span"`
	Scores  HotspotScores `json:"scores"`
	Why     []string      `json:"why"`
	Actions []string      `json:"actions"`
}

// Summary aggregates repo-level signals.
type Summary struct {
	TotalUnits              int     `json:"total_units"`
	ScannedUnits            int     `json:"scanned_units"`
	ShadowLogicDensity      float64 `json:"shadow_logic_density"`
	AvgCognitiveLoad        float64 `json:"avg_cognitive_load"`
	P50CognitiveLoad        float64 `json:"p50_cognitive_load"`
	P95CognitiveLoad        float64 `json:"p95_cognitive_load"`
	RedundancyScore         float64 `json:"redundancy_score"`
	RefactoringRunwayMonths int     `json:"refactoring_runway_months"`
}

// Report is the complete scan output document.
type Report struct {
	ScanID    string               `json:"scan_id"`
	ScanType  string               `json:"scan_type"`
	Repo      Repo                 `json:"repo"`
	Timestamp time.Time            `json:"timestamp"`
	Summary   Summary              `json:"summary"`
	Hotspots  []Hotspot            `json:"hotspots"`
	Clusters  []similarity.Cluster `json:"clusters"`
}

// Input carries everything a report needs.
type Input struct {
	Repo        Repo
	ScanType    string
	Units       []unit.Unit
	Evidence    map[string]*evidence.Evidence
	Scores      map[string]score.UnitScores
	Clusters    []similarity.Cluster
	RuleMatches map[string][]rules.Match
	// HotspotLimit caps the ranked list; <= 0 means the default of 10.
	HotspotLimit int
}

const defaultHotspotLimit = 10

// Build assembles the report document.
func Build(in Input) *Report {
	limit := in.HotspotLimit
	if limit <= 0 {
		limit = defaultHotspotLimit
	}

	clusterByUnit := make(map[string]string)
	for _, c := range in.Clusters {
		for _, id := range c.Members {
			clusterByUnit[id] = c.ID
		}
	}

	ranked := make([]*unit.Unit, len(in.Units))
	for i := range in.Units {
		ranked[i] = &in.Units[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := in.Scores[ranked[i].ID], in.Scores[ranked[j].ID]
		if si.Shadow != sj.Shadow {
			return si.Shadow
		}
		return si.CognitiveLoad > sj.CognitiveLoad
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hotspots := make([]Hotspot, 0, len(ranked))
	for _, u := range ranked {
		s := in.Scores[u.ID]
		ev := in.Evidence[u.ID]
		if ev == nil {
			ev = evidence.Zero(u.ID)
		}
		clusterID := clusterByUnit[u.ID]

		hotspots = append(hotspots, Hotspot{
			Path:   u.FilePath,
			Symbol: u.Name,
			Kind:   u.Kind,
			Span:   u.Span,
			Scores: HotspotScores{
				CognitiveLoad:       s.CognitiveLoad,
				ReviewEvidence:      s.ReviewEvidence,
				Fragility:           s.Fragility,
				RedundancyClusterID: clusterID,
			},
			Why:     explain(u, ev),
			Actions: recommend(u, in.RuleMatches[u.ID], clusterID),
		})
	}

	return &Report{
		ScanID:    uuid.NewString()[:8],
		ScanType:  in.ScanType,
		Repo:      in.Repo,
		Timestamp: time.Now(),
		Summary:   summarize(in),
		Hotspots:  hotspots,
		Clusters:  in.Clusters,
	}
}

// summarize computes the aggregate block, using gonum for the load
// distribution.
func summarize(in Input) Summary {
	total := len(in.Units)
	if total == 0 {
		return Summary{RefactoringRunwayMonths: 99}
	}

	shadowCount := 0
	loads := make([]float64, 0, total)
	for _, u := range in.Units {
		s := in.Scores[u.ID]
		if s.Shadow {
			shadowCount++
		}
		loads = append(loads, s.CognitiveLoad)
	}
	sort.Float64s(loads)

	inClusters := 0
	for _, c := range in.Clusters {
		inClusters += len(c.Members)
	}

	return Summary{
		TotalUnits:              total,
		ScannedUnits:            total,
		ShadowLogicDensity:      round3(float64(shadowCount) / float64(total)),
		AvgCognitiveLoad:        round1(stat.Mean(loads, nil)),
		P50CognitiveLoad:        round1(stat.Quantile(0.5, stat.Empirical, loads, nil)),
		P95CognitiveLoad:        round1(stat.Quantile(0.95, stat.Empirical, loads, nil)),
		RedundancyScore:         round3(float64(inClusters) / float64(total)),
		RefactoringRunwayMonths: runway(shadowCount, total),
	}
}

// runway estimates months to burn down shadow logic, assuming a team
// converts about five percent of its units each month.
func runway(shadowCount, total int) int {
	if total == 0 || shadowCount == 0 {
		return 99
	}
	throughput := total / 20
	if throughput < 1 {
		throughput = 1
	}
	months := shadowCount / throughput
	if months < 1 {
		months = 1
	}
	return months
}

// explain produces the human-readable reasons a unit ranks.
func explain(u *unit.Unit, ev *evidence.Evidence) []string {
	var reasons []string
	if u.NestingDepth >= 4 {
		reasons = append(reasons, fmt.Sprintf("deep nesting (%d)", u.NestingDepth))
	}
	if u.BranchCount >= 8 {
		reasons = append(reasons, fmt.Sprintf("branch count high (%d)", u.BranchCount))
	}
	if u.BooleanComplexity >= 4 {
		reasons = append(reasons, fmt.Sprintf("boolean complexity (%d)", u.BooleanComplexity))
	}
	if u.TryCatchCount == 0 && u.LOC > 20 {
		reasons = append(reasons, "no error handling in long function")
	}
	if u.RenderSideEffects > 0 {
		reasons = append(reasons, fmt.Sprintf("render side-effects (%d)", u.RenderSideEffects))
	}
	if ev.AuthorCount <= 1 {
		msg := fmt.Sprintf("low human touch (%d author", ev.AuthorCount)
		if !ev.TouchedAfterCreation {
			msg += ", never revised"
		}
		msg += ")"
		reasons = append(reasons, msg)
	}
	if u.IdentifierAmbiguity > 0.3 {
		reasons = append(reasons, fmt.Sprintf("ambiguous identifiers (%.0f%%)", u.IdentifierAmbiguity*100))
	}
	return reasons
}

// recommend produces up to five actions, rule-driven first.
func recommend(u *unit.Unit, matches []rules.Match, clusterID string) []string {
	var actions []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		actions = append(actions, m.Action)
	}
	if u.NestingDepth >= 5 && !anyContains(actions, "split") {
		actions = append(actions, "split the function (apply early returns)")
	}
	if u.TryCatchCount == 0 && u.LOC > 20 && !anyContains(actions, "error", "try") {
		actions = append(actions, "add error handling")
	}
	if clusterID != "" {
		actions = append(actions, "extract a shared utility (see duplicate cluster)")
	}
	if len(actions) == 0 {
		actions = append(actions, "assign a code owner and request review")
	}
	if len(actions) > 5 {
		actions = actions[:5]
	}
	return actions
}

func anyContains(actions []string, subs ...string) bool {
	for _, a := range actions {
		lower := strings.ToLower(a)
		for _, sub := range subs {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
