package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/ingest"
)

func ingestCmd() *cobra.Command {
	var full bool
	var mirror bool
	var dirs []string
	var exclude []string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load scenario files into the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(ingest.Options{Full: full, Dirs: dirs, Exclude: exclude}, mirror)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "Also sync every ingested scenario into neo4j")
	cmd.Flags().StringArrayVar(&dirs, "dir", nil, "Extra directory to scan for *.json scenarios (repeatable)")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Path prefix to skip while scanning (repeatable)")
	return cmd
}

func runIngest(options ingest.Options, mirror bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if mirror {
		client, err := openGraph(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close(ctx)
		if err := client.EnsureIndexes(ctx); err != nil {
			return err
		}
		options.Mirror = client
	}
	options.Logger = log

	result, err := ingest.Run(ctx, cfg, rules, db, options)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Scenarios upserted: %d\n", result.ScenariosUpserted)
	fmt.Fprintf(os.Stdout, "  Scenarios removed:  %d\n", result.ScenariosRemoved)
	if mirror {
		fmt.Fprintf(os.Stdout, "  Scenarios mirrored: %d\n", result.ScenariosMirrored)
	}
	fmt.Fprintf(os.Stdout, "  Files skipped:      %d\n", result.FilesSkipped)
	fmt.Fprintf(os.Stdout, "  Warnings:           %d\n", result.Warnings)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
