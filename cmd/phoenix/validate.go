package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/config"
	"phoenix/internal/graph"
	"phoenix/internal/scenario"
	"phoenix/internal/validate"
)

func validateCmd() *cobra.Command {
	var strict bool
	var withGraph bool
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check scenario files for structural and graph problems",
		Long:  "Check the given scenario files, or every configured scenario when none are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args, strict, withGraph)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	cmd.Flags().BoolVar(&withGraph, "graph", false, "Compare configured scenarios with the neo4j mirror")
	return cmd
}

type validateTarget struct {
	code string
	path string
	url  string
}

func runValidate(files []string, strict, withGraph bool) error {
	ctx := context.Background()

	var cfg *config.ProjectConfig
	var targets []validateTarget
	if len(files) == 0 {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		for _, sc := range cfg.Scenarios {
			targets = append(targets, validateTarget{code: sc.Code, path: cfg.ResolvePath(sc.Path), url: sc.URL})
		}
	} else {
		for _, file := range files {
			targets = append(targets, validateTarget{path: file})
		}
	}

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	var client *graph.Client
	if withGraph {
		if cfg == nil {
			return fmt.Errorf("--graph checks configured scenarios; drop the file arguments")
		}
		client, err = openGraph(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close(ctx)
	}

	failed := 0
	for i, target := range targets {
		if i > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		report, scenes, err := validateTargetReport(ctx, rules, target)
		if err != nil {
			return err
		}
		if client != nil && scenes != nil {
			if err := validate.CompareMirror(ctx, report, target.code, scenes, client); err != nil {
				return err
			}
		}
		if !printReport(os.Stdout, target, report, strict) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("validation failed for %d of %d scenarios", failed, len(targets))
	}
	return nil
}

func validateTargetReport(ctx context.Context, rules *config.Rules, target validateTarget) (*validate.Report, []scenario.Scene, error) {
	if target.url != "" {
		set, err := scenario.HTTPSource{URL: target.url}.Load(ctx)
		if err != nil {
			return nil, nil, err
		}
		return validate.Scenes(set.Scenes()), set.Scenes(), nil
	}

	report, err := validate.File(target.path, rules)
	if err != nil {
		return nil, nil, err
	}
	if len(report.Errors()) > 0 {
		return report, nil, nil
	}
	data, err := os.ReadFile(target.path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", target.path, err)
	}
	scenes, err := scenario.Decode(data)
	if err != nil {
		return report, nil, nil
	}
	return report, scenes, nil
}

// printReport writes the report and returns whether the target passed.
func printReport(out io.Writer, target validateTarget, report *validate.Report, strict bool) bool {
	name := target.path
	if target.url != "" {
		name = target.url
	}
	if target.code != "" {
		name = fmt.Sprintf("%s (%s)", target.code, name)
	}
	fmt.Fprintf(out, "%s\n", name)

	stats := report.Stats
	fmt.Fprintf(out, "  Scenes: %d, options: %d, average options: %.1f\n", stats.TotalScenes, stats.TotalOptions, stats.AverageOptions)

	errorIssues := report.Errors()
	warnIssues := report.Warnings()
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "  No issues found.")
		return true
	}
	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "  Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		fmt.Fprintf(out, "  Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}
	return report.Valid(strict)
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Scene
		if location == "" {
			location = "data"
		}
		if issue.Option != "" {
			location = fmt.Sprintf("%s option %s", location, issue.Option)
		}
		fmt.Fprintf(out, "    - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
