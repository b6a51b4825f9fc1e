package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the catalogue and the scene graph from the CLI",
	}
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryCypherCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(queryListCmd())
	return cmd
}

// rawQuery holds the flags shared by the sql and cypher subcommands.
type rawQuery struct {
	pairs    []string
	scenario string
}

func (q *rawQuery) register(cmd *cobra.Command, scenarioUsage string) {
	cmd.Flags().StringArrayVar(&q.pairs, "param", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&q.scenario, "scenario", "", scenarioUsage)
}

func (q *rawQuery) params() (map[string]any, error) {
	return parseParams(q.pairs)
}

func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("param %q given twice", key)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

func writeRows(w io.Writer, rows []map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
