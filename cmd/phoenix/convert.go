package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/config"
	"phoenix/internal/convert"
	"phoenix/internal/logger"
)

type convertFlags struct {
	teamID    int
	createdBy int
	backupDir string
	noBackup  bool
}

func (f *convertFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.teamID, "team-id", 0, "Team id written into every row (default from config, else 1)")
	cmd.Flags().IntVar(&f.createdBy, "created-by", 0, "Author id written into every row (default from config, else 1)")
	cmd.Flags().StringVar(&f.backupDir, "backup-dir", "", "Copy inputs here before converting (default from config)")
	cmd.Flags().BoolVar(&f.noBackup, "no-backup", false, "Skip input backups")
}

// converter builds a converter from the flags, falling back to the project
// config when one exists. Conversion works without a project.
func (f *convertFlags) converter() (*convert.Converter, *config.ProjectConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, err
		}
		cfg = nil
	}

	opts := convert.Options{TeamID: f.teamID, CreatedBy: f.createdBy}
	backupDir := f.backupDir
	level, encoding := "info", "console"
	if cfg != nil {
		if opts.TeamID == 0 {
			opts.TeamID = cfg.Convert.TeamID
		}
		if opts.CreatedBy == 0 {
			opts.CreatedBy = cfg.Convert.CreatedBy
		}
		if backupDir == "" {
			backupDir = cfg.ResolvePath(cfg.Convert.BackupDir)
		}
		level, encoding = cfg.Log.Level, cfg.Log.Encoding
	}

	log, err := logger.New(logger.Config{Level: level, Encoding: encoding})
	if err != nil {
		return nil, nil, err
	}
	rules, err := loadRules(cfg)
	if err != nil {
		return nil, nil, err
	}

	options := []convert.ConverterOption{convert.WithLogger(log), convert.WithRules(rules)}
	if backupDir != "" && !f.noBackup {
		options = append(options, convert.WithBackup(backupDir))
	}
	return convert.New(opts, options...), cfg, nil
}

func convertCmd() *cobra.Command {
	var flags convertFlags
	var output string
	cmd := &cobra.Command{
		Use:   "convert <file.json>",
		Short: "Convert one scenario file into MySQL insert statements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			converter, _, err := flags.converter()
			if err != nil {
				return err
			}
			result := converter.File(args[0], output)
			if !result.Success() {
				return result.Err
			}
			fmt.Fprintf(os.Stdout, "Converted %s -> %s\n", result.InputFile, result.OutputFile)
			fmt.Fprintf(os.Stdout, "  Events:  %d\n", result.EventCount)
			fmt.Fprintf(os.Stdout, "  Options: %d\n", result.OptionCount)
			if result.BackupFile != "" {
				fmt.Fprintf(os.Stdout, "  Backup:  %s\n", result.BackupFile)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <name>_converted.sql next to the input)")
	return cmd
}

func convertAllCmd() *cobra.Command {
	var flags convertFlags
	var outputDir string
	cmd := &cobra.Command{
		Use:   "convert-all <dir>",
		Short: "Convert every scenario file in a directory and write the integrated script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			converter, cfg, err := flags.converter()
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = "output"
				if cfg != nil {
					outputDir = cfg.ResolvePath(cfg.Convert.OutputDir)
				}
			}

			results, summary, err := converter.All(args[0], outputDir)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, "Conversion complete.")
			fmt.Fprintf(os.Stdout, "  Files:           %d\n", summary.TotalFiles)
			fmt.Fprintf(os.Stdout, "  Succeeded:       %d\n", summary.SuccessCount)
			fmt.Fprintf(os.Stdout, "  Failed:          %d\n", summary.FailureCount)
			fmt.Fprintf(os.Stdout, "  Events:          %d\n", summary.TotalEvents)
			fmt.Fprintf(os.Stdout, "  Options:         %d\n", summary.TotalOptions)
			fmt.Fprintf(os.Stdout, "  Average options: %.1f\n", summary.AverageOptions)
			if summary.Integrated != "" {
				fmt.Fprintf(os.Stdout, "  Integrated:      %s\n", summary.Integrated)
			}

			if summary.FailureCount > 0 {
				fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", summary.FailureCount)
				for _, result := range results {
					if !result.Success() {
						fmt.Fprintf(os.Stdout, "  - %v\n", result.Err)
					}
				}
				return fmt.Errorf("conversion completed with errors")
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory (default from config, else output)")
	return cmd
}
