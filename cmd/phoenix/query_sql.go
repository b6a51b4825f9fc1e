package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func querySQLCmd() *cobra.Command {
	var q rawQuery
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Run a read query against the scenario catalogue",
		Long: `Run a query against the configured catalogue and print the rows as JSON.

Placeholders are positional ($1 for postgres, ? for sqlite) and bind from
--param 1=... --param 2=... in order. --scenario appends the scenario code
as the next positional parameter.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := q.params()
			if err != nil {
				return err
			}
			bindScenario(params, q.scenario)

			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			rows, err := db.RunSQL(ctx, strings.Join(args, " "), params)
			if err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), rows)
		},
	}
	q.register(cmd, "Scenario code bound as the next positional parameter")
	return cmd
}

// bindScenario stores code under the first unused positional key.
func bindScenario(params map[string]any, code string) {
	if code == "" {
		return
	}
	for i := 1; ; i++ {
		key := strconv.Itoa(i)
		if _, taken := params[key]; !taken {
			params[key] = code
			return
		}
	}
}
