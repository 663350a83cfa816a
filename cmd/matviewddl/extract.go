package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/audit"
	"github.com/sadopc/matviewddl/internal/ddl"
	"github.com/sadopc/matviewddl/internal/extract"
	"github.com/sadopc/matviewddl/internal/highlight"
	"github.com/sadopc/matviewddl/internal/history"
	"github.com/sadopc/matviewddl/internal/output"
	"github.com/sadopc/matviewddl/internal/theme"
)

// errDrift is returned by extract --check when the catalog no longer
// matches the latest snapshot.
var errDrift = errors.New("schema drift detected")

type extractOptions struct {
	schema    string
	output    string
	format    string
	header    bool
	color     string
	view      string
	check     bool
	noHistory bool
	timeout   time.Duration
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [schema]",
		Short: "Print the DDL of every materialized view in a schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.schema = args[0]
			}
			return runExtract(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.schema, "schema", "s", "", "Schema to extract (or pass it as an argument)")
	f.StringVarP(&opts.output, "output", "o", "", "Write to this file instead of stdout")
	f.StringVarP(&opts.format, "format", "f", "sql", "Output format (sql, json, csv)")
	f.BoolVar(&opts.header, "header", false, "Prefix SQL output with a comment header")
	f.StringVar(&opts.color, "color", "", "Highlight SQL on a terminal (auto, always, never)")
	f.StringVar(&opts.view, "view", "", "Only views whose name fuzzy-matches this pattern")
	f.BoolVar(&opts.check, "check", false, "Exit with status 2 if the DDL differs from the last snapshot")
	f.BoolVar(&opts.noHistory, "no-history", false, "Do not record a snapshot")
	f.DurationVar(&opts.timeout, "timeout", 0, "Abort the extraction after this long (0 = no limit)")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions) error {
	stderr := cmd.ErrOrStderr()
	cfg := loadConfig(root, stderr)
	logger, err := newLogger(root.logLevel, stderr)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.color == "" {
		opts.color = cfg.Output.Color
	}
	header := opts.header || cfg.Output.Header

	if err := extract.ValidateSchemaName(opts.schema); err != nil {
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
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	// A drift check without a snapshot store is a failure, not a pass.
	var hist *history.History
	switch {
	case opts.check:
		if hist, err = openHistoryStrict(cfg); err != nil {
			return fmt.Errorf("drift check: %w", err)
		}
	case !opts.noHistory:
		hist = openHistory(cfg, stderr)
	}
	if hist != nil {
		defer hist.Close()
	}

	conn, err := connect(ctx, tgt)
	if err != nil {
		return err
	}
	defer conn.Close()

	auditLog := openAudit(cfg, stderr)
	defer auditLog.Close()

	res, err := runLogged(ctx, conn, tgt, opts.schema, extract.Options{ViewFilter: opts.view}, auditLog, logger)
	if err != nil {
		return err
	}

	drift, err := recordSnapshot(hist, tgt.Name, res, !opts.noHistory, logger)
	if err != nil {
		if opts.check {
			return fmt.Errorf("drift check: %w", err)
		}
		fmt.Fprintf(stderr, "Warning: could not record snapshot: %v\n", err)
	}

	wopts := output.Options{
		Format:      format,
		Header:      header,
		Database:    conn.DatabaseName(),
		Checksum:    ddl.Checksum(res.DDL()),
		GeneratedAt: time.Now(),
	}
	if opts.output != "" {
		if err := output.WriteFile(opts.output, res, wopts); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
		logger.Info("wrote ddl", "path", opts.output, "views", res.Views, "indexes", res.Indexes)
	} else {
		out := cmd.OutOrStdout()
		if format == output.FormatSQL && colorEnabled(opts.color, out) {
			h := highlight.New()
			th := theme.Get(cfg.Theme)
			wopts.Highlight = func(s string) string { return h.Highlight(s, th) }
		}
		if err := output.Write(out, res, wopts); err != nil {
			return err
		}
	}

	if opts.check && drift {
		return fmt.Errorf("%w: schema %q on %s", errDrift, opts.schema, tgt.Name)
	}
	return nil
}

// runLogged runs one extraction and records it in the audit log.
func runLogged(ctx context.Context, conn adapter.Connection, tgt target, schemaName string, xopts extract.Options, auditLog *audit.Logger, logger *slog.Logger) (*extract.Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	logger.Debug("extracting", "run_id", runID, "schema", schemaName, "connection", tgt.Name, "adapter", tgt.Adapter)

	res, err := extract.RunWithOptions(ctx, conn, schemaName, xopts)
	elapsed := time.Since(start)

	entry := audit.Entry{
		Timestamp:    start,
		RunID:        runID,
		Source:       "cli",
		Schema:       schemaName,
		Adapter:      conn.AdapterName(),
		DatabaseName: conn.DatabaseName(),
		DSN:          tgt.DSN,
		DurationMS:   elapsed.Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
		auditLog.Log(entry)
		return nil, err
	}
	entry.Views = res.Views
	entry.Indexes = res.Indexes
	entry.Checksum = ddl.Checksum(res.DDL())
	auditLog.Log(entry)

	logger.Info("extracted", "run_id", runID, "schema", schemaName, "views", res.Views, "indexes", res.Indexes, "duration", elapsed)
	return res, nil
}

// recordSnapshot compares res with the latest snapshot for the same
// connection and schema and reports whether it changed. When store is set
// a snapshot is added for a first or changed result. A nil History reports
// no drift.
func recordSnapshot(hist *history.History, connName string, res *extract.Result, store bool, logger *slog.Logger) (bool, error) {
	if hist == nil {
		return false, nil
	}
	script := res.DDL()
	sum := ddl.Checksum(script)

	prev, err := hist.Latest(connName, res.Schema)
	if err != nil {
		return false, err
	}
	drift := prev != nil && prev.Checksum != sum
	switch {
	case prev == nil:
		logger.Info("no previous snapshot", "schema", res.Schema, "connection", connName)
	case drift:
		logger.Warn("ddl changed since last snapshot", "schema", res.Schema, "previous", prev.ExtractedAt, "checksum", sum)
	}

	if store && (prev == nil || drift) {
		err = hist.Add(history.Snapshot{
			Connection: connName,
			Schema:     res.Schema,
			Checksum:   sum,
			DDL:        script,
			Views:      res.Views,
			Indexes:    res.Indexes,
		})
	}
	return drift, err
}

// colorEnabled resolves a color mode against the output writer.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
