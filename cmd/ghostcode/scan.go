package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/dooosp/ghostcode-auditor/internal/output"
	"github.com/dooosp/ghostcode-auditor/internal/progress"
	"github.com/dooosp/ghostcode-auditor/internal/scanner"
	"github.com/dooosp/ghostcode-auditor/internal/service/scan"
	"github.com/dooosp/ghostcode-auditor/pkg/report"
)

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan a repository for shadow logic",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of hotspots to report (default from config)",
			},
			&cli.StringFlag{
				Name:  "changed-from",
				Usage: "Scan only files changed since the given git ref",
			},
			&cli.StringFlag{
				Name:  "repo-name",
				Usage: "Repo name for the report (default: directory name)",
			},
			&cli.BoolFlag{
				Name:  "pr-comment",
				Usage: "Render the report as a markdown PR comment",
			},
		},
		Action: runScan,
	}
}

func runScan(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := getPath(c)

	opts := scan.Options{
		RepoName:     c.String("repo-name"),
		HotspotLimit: c.Int("top"),
	}

	if ref := c.String("changed-from"); ref != "" {
		changed, err := scan.ChangedFiles(c.Context, path, ref)
		if err != nil {
			return fmt.Errorf("listing changed files: %w", err)
		}
		if len(changed) == 0 {
			color.Yellow("No files changed since %s", ref)
			return nil
		}
		opts.Files = changed
		opts.ScanType = "diff:" + ref
	} else {
		files, err := scanner.New(cfg).ScanRepo(path)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			color.Yellow("No source files found")
			return nil
		}
		opts.Files = files
	}

	tracker := progress.NewTracker("Scanning units...", len(opts.Files))
	opts.OnExtract = tracker.Tick

	svc := scan.New(scan.WithConfig(cfg))
	result, err := svc.Scan(c.Context, path, opts)
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if c.Bool("pr-comment") {
		comment, err := report.RenderPRComment(result.Report)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(formatter.Writer(), comment)
		return err
	}

	if formatter.Format() != output.FormatText {
		return formatter.Output(result.Report)
	}

	return formatter.Output(scanTable(result))
}

// scanTable renders the report as the default terminal view.
func scanTable(result *scan.Result) *output.Table {
	rep := result.Report

	shadowByLabel := make(map[string]bool, len(result.Units))
	for i := range result.Units {
		u := &result.Units[i]
		shadowByLabel[u.Label()] = result.Scores[u.ID].Shadow
	}

	var rows [][]string
	for i, h := range rep.Hotspots {
		flags := ""
		if shadowByLabel[h.Path+"#"+h.Symbol] {
			flags = "shadow"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncate(fmt.Sprintf("%s#%s", h.Path, h.Symbol), 60),
			string(h.Kind),
			fmt.Sprintf("%.1f", h.Scores.CognitiveLoad),
			fmt.Sprintf("%.1f", h.Scores.ReviewEvidence),
			fmt.Sprintf("%.1f", h.Scores.Fragility),
			flags,
		})
	}

	footer := []string{
		fmt.Sprintf("Units: %d", rep.Summary.TotalUnits),
		fmt.Sprintf("Shadow Density: %.1f%%", rep.Summary.ShadowLogicDensity*100),
		fmt.Sprintf("Avg Load: %.1f", rep.Summary.AvgCognitiveLoad),
		fmt.Sprintf("Redundancy: %.1f%%", rep.Summary.RedundancyScore*100),
		fmt.Sprintf("Runway: %d months", rep.Summary.RefactoringRunwayMonths),
		fmt.Sprintf("Cache: %d hits, %d misses", result.CacheHits, result.CacheMisses),
	}

	return output.NewTable(
		fmt.Sprintf("Shadow Logic Hotspots (%s)", rep.Repo.Name),
		[]string{"Rank", "Unit", "Kind", "Load", "Evidence", "Fragility", "Flags"},
		rows,
		footer,
		rep,
	)
}
