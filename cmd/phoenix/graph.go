package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/graph"
)

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Mirror scenarios into neo4j and inspect the scene graph",
	}
	cmd.AddCommand(graphSyncCmd())
	cmd.AddCommand(graphDeadEndsCmd())
	cmd.AddCommand(graphNextCmd())
	return cmd
}

func graphSyncCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror every catalogued scenario into neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphSync(full)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Resync scenarios whose hash did not change")
	return cmd
}

func runGraphSync(full bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	client, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	if err := client.EnsureIndexes(ctx); err != nil {
		return err
	}
	mirrored, err := client.ScenarioHashes(ctx)
	if err != nil {
		return err
	}

	summaries, err := db.ListScenarios(ctx)
	if err != nil {
		return err
	}

	synced, skipped := 0, 0
	codes := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		codes = append(codes, summary.Code)
		sc, err := db.GetScenario(ctx, summary.Code)
		if err != nil {
			return err
		}
		hash, err := graph.HashScenes(sc.Scenes)
		if err != nil {
			return err
		}
		if !full && mirrored[sc.Code] == hash {
			skipped++
			continue
		}
		if err := client.SyncScenario(ctx, sc.Code, sc.Scenes); err != nil {
			return err
		}
		synced++
	}

	removed, err := client.RemoveStaleScenarios(ctx, codes)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Graph sync complete.")
	fmt.Fprintf(os.Stdout, "  Scenarios synced:  %d\n", synced)
	fmt.Fprintf(os.Stdout, "  Scenarios skipped: %d\n", skipped)
	fmt.Fprintf(os.Stdout, "  Scenarios removed: %d\n", removed)
	return nil
}

func graphDeadEndsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dead-ends <code>",
		Short: "List mirrored scenes without a way forward, and scenes never reached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(func(ctx context.Context, client *graph.Client) error {
				deadEnds, err := client.DeadEnds(ctx, args[0])
				if err != nil {
					return err
				}
				unreachable, err := client.Unreachable(ctx, args[0])
				if err != nil {
					return err
				}
				printSceneList("Dead ends", deadEnds)
				printSceneList("Unreachable", unreachable)
				return nil
			})
		},
	}
}

func graphNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <code> <scene-id>",
		Short: "List the scenes a mirrored scene leads to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGraph(func(ctx context.Context, client *graph.Client) error {
				edges, err := client.Successors(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if len(edges) == 0 {
					fmt.Fprintln(os.Stdout, "No outgoing edges.")
					return nil
				}
				for _, edge := range edges {
					mark := " "
					if edge.Correct {
						mark = "*"
					}
					fmt.Fprintf(os.Stdout, "%s %s -> %s\n", mark, edge.AnswerID, edge.To)
				}
				return nil
			})
		},
	}
}

func withGraph(fn func(ctx context.Context, client *graph.Client) error) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(ctx)
	return fn(ctx, client)
}

func printSceneList(title string, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintf(os.Stdout, "%s: none\n", title)
		return
	}
	fmt.Fprintf(os.Stdout, "%s (%d):\n", title, len(ids))
	for _, id := range ids {
		fmt.Fprintf(os.Stdout, "  - %s\n", id)
	}
}
