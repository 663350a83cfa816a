package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/matviewddl/internal/app"
	"github.com/sadopc/matviewddl/internal/extract"
)

func newPreviewCmd(root *rootOptions) *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "preview <schema>",
		Short: "Browse the extracted DDL of a schema in a terminal pager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaName := args[0]
			stderr := cmd.ErrOrStderr()
			cfg := loadConfig(root, stderr)

			if err := extract.ValidateSchemaName(schemaName); err != nil {
				return err
			}
			tgt, err := resolveTarget(cfg, root, os.Getenv)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			conn, err := connect(ctx, tgt)
			if err != nil {
				return err
			}
			defer conn.Close()

			auditLog := openAudit(cfg, stderr)
			defer auditLog.Close()

			// The pager owns the terminal; log lines would corrupt it.
			logger := slog.New(slog.DiscardHandler)

			model := app.New(cfg, app.Source{
				Schema:   schemaName,
				Database: conn.DatabaseName(),
				Adapter:  conn.AdapterName(),
				Load: func(ctx context.Context) (*extract.Result, error) {
					return runLogged(ctx, conn, tgt, schemaName, extract.Options{ViewFilter: view}, auditLog, logger)
				},
			})

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("preview: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "Only views whose name fuzzy-matches this pattern")
	return cmd
}
