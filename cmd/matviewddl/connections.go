package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/matviewddl/internal/config"
)

func newConnectionsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Show saved connections",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved connections from the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(root, cmd.ErrOrStderr())
			out := cmd.OutOrStdout()
			if len(cfg.Connections) == 0 {
				fmt.Fprintln(out, "No saved connections.")
				return nil
			}
			fmt.Fprintln(out, connectionTable(cfg))
			return nil
		},
	})
	return cmd
}

func connectionTable(cfg *config.Config) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "NAME", "ADAPTER", "TARGET").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i := range cfg.Connections {
		sc := &cfg.Connections[i]
		mark := ""
		if sc.Name == cfg.DefaultConnection {
			mark = "*"
		}
		t.Row(mark, sc.Name, sc.AdapterName(), sc.DisplayString())
	}
	return t.String()
}
