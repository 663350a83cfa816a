package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/matviewddl/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve extracted DDL over HTTP",
		Long: `Serve extracted DDL over HTTP.

Routes:
  GET /v1/schemas/{schema}/ddl   format=sql|json|csv, view=<pattern>, header=true
  GET /healthz
  GET /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stderr := cmd.ErrOrStderr()
			cfg := loadConfig(root, stderr)
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger, err := newLogger(root.logLevel, stderr)
			if err != nil {
				return err
			}

			tgt, err := resolveTarget(cfg, root, os.Getenv)
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := connect(ctx, tgt)
			if err != nil {
				return err
			}
			defer conn.Close()

			auditLog := openAudit(cfg, stderr)
			defer auditLog.Close()

			logger.Info("serving", "addr", cfg.Server.Addr, "connection", tgt.Name, "adapter", tgt.Adapter)
			srv := server.New(conn, cfg.Server, logger, server.WithAudit(auditLog, tgt.DSN))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
