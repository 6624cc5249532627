package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/dooosp/ghostcode-auditor/internal/output"
	"github.com/dooosp/ghostcode-auditor/internal/service/scan"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/similarity"
	"github.com/dooosp/ghostcode-auditor/pkg/report"
)

// ScanInput is the base input for all audit tools.
type ScanInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Repository path to scan. Defaults to the current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ScanRepositoryInput configures a full repository scan.
type ScanRepositoryInput struct {
	ScanInput
	Top int `json:"top,omitempty" jsonschema:"Number of hotspots to include in the report. Default 10."`
}

// AuditHotspotsInput configures hotspot auditing.
type AuditHotspotsInput struct {
	ScanInput
	Top        int  `json:"top,omitempty" jsonschema:"Number of hotspots to return. Default 10."`
	ShadowOnly bool `json:"shadow_only,omitempty" jsonschema:"Return only units flagged as shadow logic (complex and unreviewed)."`
}

// FindDuplicateLogicInput configures redundancy detection.
type FindDuplicateLogicInput struct {
	ScanInput
	Top int `json:"top,omitempty" jsonschema:"Number of clusters to return. Default 20."`
}

func getPath(input ScanInput) string {
	if input.Path == "" {
		return "."
	}
	return input.Path
}

func getFormat(input ScanInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	if format == output.FormatMarkdown {
		return "```\n" + string(out) + "\n```", nil
	}
	return string(out), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func handleScanRepository(ctx context.Context, req *mcp.CallToolRequest, input ScanRepositoryInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.ScanInput)

	svc := scan.New()
	result, err := svc.Scan(ctx, getPath(input.ScanInput), scan.Options{
		HotspotLimit: input.Top,
	})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(result.Report, format)
}

func handleAuditHotspots(ctx context.Context, req *mcp.CallToolRequest, input AuditHotspotsInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.ScanInput)

	svc := scan.New()
	result, err := svc.Scan(ctx, getPath(input.ScanInput), scan.Options{
		HotspotLimit: input.Top,
	})
	if err != nil {
		return toolError(err.Error())
	}

	hotspots := result.Report.Hotspots
	if input.ShadowOnly {
		hotspots = shadowHotspots(result, hotspots)
	}

	out := struct {
		Hotspots []report.Hotspot `json:"hotspots" toon:"hotspots"`
		Summary  report.Summary   `json:"summary" toon:"summary"`
	}{hotspots, result.Report.Summary}
	return toolResult(out, format)
}

func handleFindDuplicateLogic(ctx context.Context, req *mcp.CallToolRequest, input FindDuplicateLogicInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.ScanInput)

	top := input.Top
	if top <= 0 {
		top = 20
	}

	svc := scan.New()
	result, err := svc.Scan(ctx, getPath(input.ScanInput), scan.Options{})
	if err != nil {
		return toolError(err.Error())
	}

	clusters := result.Clusters
	if len(clusters) > top {
		clusters = clusters[:top]
	}

	out := struct {
		Clusters        []similarity.Cluster `json:"clusters" toon:"clusters"`
		RedundancyScore float64              `json:"redundancy_score" toon:"redundancy_score"`
	}{clusters, result.Report.Summary.RedundancyScore}
	return toolResult(out, format)
}

// shadowHotspots keeps hotspots whose unit is flagged as shadow logic.
func shadowHotspots(result *scan.Result, hotspots []report.Hotspot) []report.Hotspot {
	shadowByLabel := make(map[string]bool, len(result.Units))
	for i := range result.Units {
		u := &result.Units[i]
		shadowByLabel[u.FilePath+"#"+u.Name] = result.Scores[u.ID].Shadow
	}

	var kept []report.Hotspot
	for _, h := range hotspots {
		if shadowByLabel[h.Path+"#"+h.Symbol] {
			kept = append(kept, h)
		}
	}
	return kept
}
