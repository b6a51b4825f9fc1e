package main

import (
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "phoenix",
		Short:        "Branching disaster-response training scenarios",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Project config file")
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(initCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(convertCmd())
	root.AddCommand(convertAllCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(playCmd())
	root.AddCommand(progressCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(httpCmd())
	root.AddCommand(graphCmd())
	root.AddCommand(sceneCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
