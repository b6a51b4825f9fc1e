package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/scenario"
)

func sceneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Scene id helpers for scenario authors",
	}
	cmd.AddCommand(sceneNextIDCmd())
	cmd.AddCommand(sceneRecommendCmd())
	return cmd
}

func sceneNextIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-id <file.json>",
		Short: "Print the next free scene id of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := fileSceneIDs(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, scenario.NextAvailableSceneID(ids))
			return nil
		},
	}
}

func sceneRecommendCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend <file.json> <scene-id>",
		Short: "Suggest targets for a new choice out of a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !scenario.IsValidSceneID(args[1]) {
				return fmt.Errorf("invalid scene id %q: want #<scenario>-<scene>", args[1])
			}
			ids, err := fileSceneIDs(args[0])
			if err != nil {
				return err
			}
			for _, id := range scenario.RecommendNextSceneIDs(args[1], ids, limit) {
				fmt.Fprintln(os.Stdout, id)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of suggestions")
	return cmd
}

func fileSceneIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	scenes, err := scenario.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	ids := make([]string, 0, len(scenes))
	for _, scene := range scenes {
		ids = append(ids, scene.ID)
	}
	return ids, nil
}
