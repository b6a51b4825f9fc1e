package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phoenix/internal/config"
	"phoenix/internal/progress"
	"phoenix/internal/session"
	"phoenix/internal/store"
)

func progressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect or reset saved experience and level",
	}
	cmd.AddCommand(progressShowCmd())
	cmd.AddCommand(progressResetCmd())
	return cmd
}

func progressShowCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved progress of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(key, func(ctx context.Context, handle *session.Handle) error {
				p := progress.New()
				if snap, ok := handle.Load(ctx); ok {
					p = snap.Progress()
				}
				fmt.Fprintf(os.Stdout, "Session:       %s\n", handle.Key())
				fmt.Fprintf(os.Stdout, "Level:         %d\n", p.Level)
				fmt.Fprintf(os.Stdout, "EXP:           %d/%d (%d%%)\n", p.EXP, progress.EXPForNextLevel(p.Level), progress.Percent(float64(p.EXP), p.Level))
				fmt.Fprintf(os.Stdout, "Total correct: %d\n", p.TotalCorrect)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&key, "session", "", "Session key (default from config)")
	return cmd
}

func progressResetCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved progress of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(key, func(ctx context.Context, handle *session.Handle) error {
				if err := handle.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Progress of %s reset.\n", handle.Key())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&key, "session", "", "Session key (default from config)")
	return cmd
}

func withSession(key string, fn func(ctx context.Context, handle *session.Handle) error) error {
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
	if cfg.Session.Backend == config.BackendStore {
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

	if key == "" {
		key = cfg.Session.Key
	}
	return fn(ctx, session.New(kv, session.WithKey(key), session.WithLogger(log)))
}
