package report

import (
	"strings"
	"text/template"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/similarity"
)

const prCommentTemplate = `## GhostCode Audit Report

**Scan**: {{ .ScanType }} | {{ .Summary.ScannedUnits }} units analyzed | {{ len .Hotspots }} hotspots

### Top Hotspots

| # | File | Function | Cognitive Load | Review Evidence | Action |
|---|------|----------|---------------|-----------------|--------|
{{- range $i, $h := topHotspots .Hotspots }}
| {{ add $i 1 }} | {{ $h.Path }} | {{ $h.Symbol }} | {{ $h.Scores.CognitiveLoad }}/100 | {{ $h.Scores.ReviewEvidence }}/100 | {{ firstAction $h.Actions }} |
{{- end }}

### Shadow Logic Density: {{ densityPercent .Summary.ShadowLogicDensity }}%{{ if densityWarning .Summary.ShadowLogicDensity }} (warning){{ else }} (ok){{ end }}

{{ shadowCount .Hotspots }} of {{ .Summary.ScannedUnits }} units have low review evidence + high complexity.
{{- if .Clusters }}

### Redundancy Alert
{{ range $c := topClusters .Clusters }}` +
	"`{{ joinMembers $c.Members }}` → **{{ $c.Suggestion }}**" + `
{{ end }}
{{- end }}

---
*GhostCode Auditor*
`

var prFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"topHotspots": func(hs []Hotspot) []Hotspot {
		if len(hs) > 5 {
			return hs[:5]
		}
		return hs
	},
	"topClusters": func(cs []similarity.Cluster) []similarity.Cluster {
		if len(cs) > 3 {
			return cs[:3]
		}
		return cs
	},
	"firstAction": func(actions []string) string {
		if len(actions) == 0 {
			return "-"
		}
		return actions[0]
	},
	"joinMembers": func(members []string) string {
		return strings.Join(members, "`, `")
	},
	"densityPercent": func(d float64) float64 {
		return float64(int(d*1000+0.5)) / 10
	},
	"densityWarning": func(d float64) bool {
		return d > 0.15
	},
	"shadowCount": func(hs []Hotspot) int {
		n := 0
		for _, h := range hs {
			if h.Scores.ReviewEvidence < 30 && h.Scores.CognitiveLoad > 70 {
				n++
			}
		}
		return n
	},
}

var prTemplate = template.Must(template.New("pr-comment").Funcs(prFuncs).Parse(prCommentTemplate))

// RenderPRComment renders the markdown comment posted on pull requests.
func RenderPRComment(r *Report) (string, error) {
	var sb strings.Builder
	if err := prTemplate.Execute(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}
