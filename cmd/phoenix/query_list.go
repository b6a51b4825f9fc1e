package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogued scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			items, err := db.ListScenarios(ctx)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(os.Stdout, "No scenarios ingested.")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(os.Stdout, "%s\t%s\t%d scenes\t%d options\t%s\n",
					item.Code, item.Name, item.SceneCount, item.OptionCount, item.SourceFile)
			}
			return nil
		},
	}
}
