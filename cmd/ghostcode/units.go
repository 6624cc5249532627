package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/dooosp/ghostcode-auditor/internal/fileproc"
	"github.com/dooosp/ghostcode-auditor/internal/output"
	"github.com/dooosp/ghostcode-auditor/internal/progress"
	"github.com/dooosp/ghostcode-auditor/internal/scanner"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
	"github.com/dooosp/ghostcode-auditor/pkg/parser"
)

func unitsCmd() *cli.Command {
	return &cli.Command{
		Name:      "units",
		Usage:     "List extracted units and their structural metrics",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Filter by kind: function, component, hook",
			},
		},
		Action: runUnits,
	}
}

func runUnits(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := getPath(c)

	files, err := scanner.New(cfg).ScanRepo(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	registry := parser.NewRegistry()
	tracker := progress.NewTracker("Extracting units...", len(files))
	perFile := fileproc.MapFiles(registry, files,
		func(p *parser.Parser, relPath string) ([]unit.Unit, error) {
			return unit.NewWithParser(p).ExtractFile(path, relPath), nil
		}, tracker.Tick)
	tracker.FinishSuccess()

	var units []unit.Unit
	kindFilter := unit.Kind(c.String("kind"))
	for _, batch := range perFile {
		for _, u := range batch {
			if kindFilter != "" && u.Kind != kindFilter {
				continue
			}
			units = append(units, u)
		}
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if formatter.Format() != output.FormatText {
		return formatter.Output(units)
	}

	var rows [][]string
	for _, u := range units {
		rows = append(rows, []string{
			truncate(u.Label(), 60),
			string(u.Kind),
			fmt.Sprintf("%d-%d", u.Span.Start, u.Span.End),
			fmt.Sprintf("%d", u.LOC),
			fmt.Sprintf("%d", u.NestingDepth),
			fmt.Sprintf("%d", u.BranchCount),
			fmt.Sprintf("%d", u.CallbackDepth),
			fmt.Sprintf("%.2f", u.IdentifierAmbiguity),
		})
	}

	table := output.NewTable(
		"Extracted Units",
		[]string{"Unit", "Kind", "Lines", "LOC", "Nesting", "Branches", "Callbacks", "Ambiguity"},
		rows,
		[]string{fmt.Sprintf("Total: %d", len(units))},
		units,
	)
	return formatter.Output(table)
}
