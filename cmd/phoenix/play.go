package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"phoenix/internal/player"
	"phoenix/internal/scenario"
	"phoenix/internal/session"
	"phoenix/internal/store"
	"phoenix/internal/tui"
)

func playCmd() *cobra.Command {
	var key string
	var file string
	var animate bool
	cmd := &cobra.Command{
		Use:   "play [code]",
		Short: "Play a scenario in the terminal",
		Long: "Play a configured scenario, or a scenario file with --file, in an interactive terminal view.\n" +
			"At the prompt enter a choice number or answer id, n (next), b (back), r (retry) or q (quit).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := ""
			if len(args) == 1 {
				code = args[0]
			}
			if code == "" && file == "" {
				return fmt.Errorf("a scenario code or --file is required")
			}
			return runPlay(cmd, code, file, key, animate)
		},
	}
	cmd.Flags().StringVar(&key, "session", "", "Session key progress is saved under (default from config)")
	cmd.Flags().StringVar(&file, "file", "", "Play a scenario file directly")
	cmd.Flags().BoolVar(&animate, "animate", true, "Animate the experience bar")
	return cmd
}

func runPlay(cmd *cobra.Command, code, file, key string, animate bool) error {
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

	var db store.Store
	if cfg.Storage.DSN != "" {
		db, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close(ctx)
	}

	kv, closeKV, err := openSessions(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer closeKV()

	var source scenario.Source
	name := ""
	if file != "" {
		source = scenario.FileSource{Path: file}
	} else {
		source = sourceFor(cfg, db, code)
		name = setNames(cfg)(code)
	}
	set, err := source.Load(ctx)
	if err != nil {
		return err
	}

	if key == "" {
		key = cfg.Session.Key
	}
	handle := session.New(kv, session.WithKey(key), session.WithLogger(log))
	opts := append(playerOptions(cfg), player.WithLogger(log))
	if name != "" {
		opts = append(opts, player.WithSetName(name))
	}
	engine, err := player.New(ctx, set, handle, opts...)
	if err != nil {
		return err
	}

	model, err := tea.NewProgram(
		tui.New(ctx, engine, animate),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	).Run()
	if err != nil {
		return fmt.Errorf("running player: %w", err)
	}
	final := model.(*tui.Player)
	if err := final.Err(); err != nil {
		return err
	}
	report(cmd.OutOrStdout(), final)
	return nil
}

// report prints where the run was left once the program exits.
func report(out io.Writer, final *tui.Player) {
	view := final.Engine().Snapshot()
	fmt.Fprintln(out)
	if view.Message != "" {
		fmt.Fprintln(out, view.Message)
	}
	if path := final.ExitPath(); path != "" {
		fmt.Fprintf(out, "Leaving the scenario for %s.\n", path)
	}
	fmt.Fprintf(out, "Stopped at [%s] %s (%d/%d)\n", view.Scene.ID, view.Scene.Title, view.Index+1, view.Total)
	fmt.Fprintf(out, "Lv.%d %d/%d EXP, %d correct\n",
		view.Progress.Level, view.Progress.EXP, view.Needed, view.Progress.TotalCorrect)
}
