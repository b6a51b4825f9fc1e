package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"phoenix/internal/graph"
)

func queryCypherCmd() *cobra.Command {
	var q rawQuery
	var write bool
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Run a Cypher query against the scene graph mirror",
		Long: `Run a Cypher query against the neo4j scene mirror and print the rows as JSON.

Queries run in a read transaction unless --write is given. --scenario binds
$code so queries like MATCH (s:Scene {scenario_code: $code}) RETURN s work
without a --param.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := q.params()
			if err != nil {
				return err
			}
			opts := graph.CypherOptions{Write: write, Code: q.scenario}
			return withGraph(func(ctx context.Context, client *graph.Client) error {
				rows, err := client.RunCypher(ctx, strings.Join(args, " "), params, opts)
				if err != nil {
					return err
				}
				return writeRows(cmd.OutOrStdout(), rows)
			})
		},
	}
	q.register(cmd, "Scenario code bound as $code")
	cmd.Flags().BoolVar(&write, "write", false, "Run in a write transaction")
	return cmd
}
