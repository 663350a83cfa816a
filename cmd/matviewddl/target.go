package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/audit"
	"github.com/sadopc/matviewddl/internal/config"
	"github.com/sadopc/matviewddl/internal/history"
)

var errNoConnection = errors.New("no connection: pass --dsn, --connection or --host, or set $" + dsnEnv)

// target is a resolved catalog connection.
type target struct {
	Adapter string
	DSN     string
	// Name identifies the connection in history and listings. It never
	// contains credentials.
	Name string
}

// resolveTarget picks the connection to use. Precedence: --dsn, then the
// individual host flags, then --connection, then $MATVIEWDDL_DSN, then the
// config's default connection.
func resolveTarget(cfg *config.Config, opts *rootOptions, getenv func(string) string) (target, error) {
	var t target

	switch {
	case opts.dsn != "":
		t.DSN = opts.dsn
		t.Name = audit.SanitizeDSN(opts.dsn)

	case opts.host != "" || opts.database != "":
		sc := config.SavedConnection{
			Host:     opts.host,
			Port:     opts.port,
			User:     opts.user,
			Password: opts.password,
			Database: opts.database,
			SSLMode:  opts.sslmode,
		}
		t.DSN = sc.BuildDSN()
		t.Name = sc.DisplayString()

	case opts.connection != "":
		sc, err := cfg.Connection(opts.connection)
		if err != nil {
			return target{}, err
		}
		t = fromSaved(sc)

	case getenv(dsnEnv) != "":
		t.DSN = getenv(dsnEnv)
		t.Name = audit.SanitizeDSN(t.DSN)

	case cfg.DefaultConnection != "":
		sc, err := cfg.Connection("")
		if err != nil {
			return target{}, err
		}
		t = fromSaved(sc)

	default:
		return target{}, errNoConnection
	}

	if opts.adapter != "" {
		t.Adapter = strings.ToLower(opts.adapter)
	}
	if t.Adapter == "" {
		t.Adapter = "postgres"
	}
	if _, ok := adapter.Registry[t.Adapter]; !ok {
		return target{}, fmt.Errorf("unknown adapter: %s (available: %s)", t.Adapter, strings.Join(adapter.Names(), ", "))
	}
	return t, nil
}

func fromSaved(sc *config.SavedConnection) target {
	return target{
		Adapter: sc.AdapterName(),
		DSN:     sc.BuildDSN(),
		Name:    sc.Name,
	}
}

// connect opens t with its registered adapter.
func connect(ctx context.Context, t target) (adapter.Connection, error) {
	a, ok := adapter.Registry[t.Adapter]
	if !ok {
		return nil, fmt.Errorf("unknown adapter: %s", t.Adapter)
	}
	conn, err := a.Connect(ctx, t.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", t.Name, err)
	}
	return conn, nil
}

// openAudit opens the audit log when enabled. Failures are reported and
// auditing is skipped.
func openAudit(cfg *config.Config, stderr io.Writer) *audit.Logger {
	if !cfg.Audit.Enabled {
		return nil
	}
	path := cfg.Audit.Path
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			fmt.Fprintf(stderr, "Warning: could not open audit log: %v\n", err)
			return nil
		}
		path = filepath.Join(dir, "audit.jsonl")
	}
	l, err := audit.New(path, cfg.Audit.MaxSizeMB)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not open audit log: %v\n", err)
		return nil
	}
	return l
}

// openHistory opens the snapshot store when enabled. Failures are reported
// and history is skipped.
func openHistory(cfg *config.Config, stderr io.Writer) *history.History {
	if !cfg.History.Enabled {
		return nil
	}
	h, err := history.New(cfg.History.Path)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: could not open history: %v\n", err)
		return nil
	}
	return h
}
