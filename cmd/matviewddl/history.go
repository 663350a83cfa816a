package main

import (
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/matviewddl/internal/config"
	"github.com/sadopc/matviewddl/internal/history"
	"github.com/sadopc/matviewddl/internal/theme"
	"github.com/sadopc/matviewddl/internal/ui/historybrowser"
)

var errHistoryDisabled = errors.New("history is disabled in the config")

func newHistoryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored extraction snapshots",
	}
	cmd.AddCommand(newHistoryListCmd(root), newHistoryBrowseCmd(root), newHistoryClearCmd(root))
	return cmd
}

func newHistoryListCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := openHistoryStrict(loadConfig(root, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer hist.Close()

			snaps, err := hist.Recent(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No snapshots recorded.")
				return nil
			}
			fmt.Fprintln(out, snapshotTable(snaps))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of snapshots to show")
	return cmd
}

func newHistoryBrowseCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick a snapshot interactively and print its DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(root, cmd.ErrOrStderr())
			hist, err := openHistoryStrict(cfg)
			if err != nil {
				return err
			}
			defer hist.Close()

			p := tea.NewProgram(historybrowser.New(hist, theme.Get(cfg.Theme)), tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			if snap := final.(historybrowser.Model).Selected(); snap != nil {
				fmt.Fprintln(cmd.OutOrStdout(), snap.DDL)
			}
			return nil
		},
	}
}

func newHistoryClearCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := openHistoryStrict(loadConfig(root, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer hist.Close()

			if err := hist.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

// openHistoryStrict opens the snapshot store, failing instead of warning.
func openHistoryStrict(cfg *config.Config) (*history.History, error) {
	if !cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	return history.New(cfg.History.Path)
}

func snapshotTable(snaps []history.Snapshot) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "EXTRACTED", "CONNECTION", "SCHEMA", "VIEWS", "INDEXES", "CHECKSUM").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, s := range snaps {
		t.Row(
			strconv.FormatInt(s.ID, 10),
			s.ExtractedAt.Local().Format("2006-01-02 15:04:05"),
			s.Connection,
			s.Schema,
			strconv.Itoa(s.Views),
			strconv.Itoa(s.Indexes),
			shortChecksum(s.Checksum),
		)
	}
	return t.String()
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
