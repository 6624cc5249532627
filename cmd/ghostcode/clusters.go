package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/dooosp/ghostcode-auditor/internal/output"
	"github.com/dooosp/ghostcode-auditor/internal/progress"
	"github.com/dooosp/ghostcode-auditor/internal/scanner"
	"github.com/dooosp/ghostcode-auditor/internal/service/scan"
)

func clustersCmd() *cli.Command {
	return &cli.Command{
		Name:      "clusters",
		Aliases:   []string{"dup", "duplicates"},
		Usage:     "Detect near-duplicate logic clusters",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity threshold for functions and hooks (0.0-1.0)",
			},
		},
		Action: runClusters,
	}
}

func runClusters(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if t := c.Float64("threshold"); t > 0 {
		cfg.Thresholds.SimilarityUtility = t
	}
	// Clustering needs no git history.
	cfg.Analysis.Evidence = false

	path := getPath(c)
	files, err := scanner.New(cfg).ScanRepo(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	tracker := progress.NewTracker("Detecting duplicates...", len(files))
	svc := scan.New(scan.WithConfig(cfg))
	result, err := svc.Scan(c.Context, path, scan.Options{
		Files:     files,
		OnExtract: tracker.Tick,
	})
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

	if formatter.Format() != output.FormatText {
		return formatter.Output(result.Clusters)
	}

	if len(result.Clusters) == 0 {
		_, err := fmt.Fprintln(formatter.Writer(), "No duplicate logic found")
		return err
	}

	labelByID := make(map[string]string, len(result.Units))
	for _, u := range result.Units {
		labelByID[u.ID] = u.Label()
	}

	var rows [][]string
	for _, cl := range result.Clusters {
		members := make([]string, len(cl.Members))
		for i, id := range cl.Members {
			members[i] = labelByID[id]
		}
		rows = append(rows, []string{
			cl.ID,
			fmt.Sprintf("%d", len(cl.Members)),
			truncate(strings.Join(members, ", "), 70),
			cl.Suggestion,
		})
	}

	table := output.NewTable(
		"Duplicate Logic Clusters",
		[]string{"Cluster", "Units", "Members", "Suggestion"},
		rows,
		[]string{
			fmt.Sprintf("Clusters: %d", len(result.Clusters)),
			fmt.Sprintf("Redundancy: %.1f%%", result.Report.Summary.RedundancyScore*100),
		},
		result.Clusters,
	)
	return formatter.Output(table)
}
