package main

import (
	"context"

	"github.com/spf13/cobra"

	"phoenix/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
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

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	kv, closeKV, err := openSessions(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer closeKV()

	server := mcp.NewServer(rules, db, newManager(cfg, db, kv, log), version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
