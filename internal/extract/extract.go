// Package extract reconstructs the DDL of every materialized view in a
// schema, and of the indexes defined on them, from the live catalog.
//
// An extraction is strictly sequential on one scoped session: list the
// views, then for each view in name order emit its CREATE MATERIALIZED VIEW
// followed by a CREATE INDEX per index. Any failure aborts the whole
// extraction; no partial script is returned.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/catalog"
	"github.com/sadopc/matviewddl/internal/ddl"
	"github.com/sadopc/matviewddl/internal/schema"
)

// Options tune an extraction.
type Options struct {
	// ViewFilter, when non-empty, keeps only views whose name fuzzy-matches
	// it. Output order is unaffected.
	ViewFilter string
}

// Object kinds reported in Result.Objects.
const (
	KindMaterializedView = "materialized_view"
	KindIndex            = "index"
)

// Object describes one emitted statement.
type Object struct {
	Kind      string
	Name      string
	View      string
	Statement string
}

// Result is a completed extraction. Objects parallels Statements.
type Result struct {
	Schema     string
	Statements []string
	Objects    []Object
	Views      int
	Indexes    int
	Duration   time.Duration
}

// DDL returns the statements joined with a blank line. It is empty when the
// schema has no materialized views.
func (r *Result) DDL() string {
	return ddl.Join(r.Statements)
}

func (r *Result) add(o Object) {
	r.Statements = append(r.Statements, o.Statement)
	r.Objects = append(r.Objects, o)
}

// SchemaDDL extracts schemaName and returns the DDL text.
func SchemaDDL(ctx context.Context, conn adapter.Connection, schemaName string) (string, error) {
	res, err := Run(ctx, conn, schemaName)
	if err != nil {
		return "", err
	}
	return res.DDL(), nil
}

// Run extracts schemaName with default options.
func Run(ctx context.Context, conn adapter.Connection, schemaName string) (*Result, error) {
	return RunWithOptions(ctx, conn, schemaName, Options{})
}

// RunWithOptions extracts schemaName. The session it acquires is released
// on every return path.
func RunWithOptions(ctx context.Context, conn adapter.Connection, schemaName string, opts Options) (*Result, error) {
	if err := ValidateSchemaName(schemaName); err != nil {
		return nil, err
	}

	start := time.Now()
	sess, err := conn.Session(ctx)
	if err != nil {
		return nil, &ConnectionError{Phase: PhaseSession, Err: err}
	}
	defer sess.Release()

	views, err := catalog.ListMaterializedViews(ctx, sess, schemaName)
	if err != nil {
		return nil, phaseError(PhaseListViews, "", err)
	}
	views = filterViews(views, opts.ViewFilter)

	res := &Result{Schema: schemaName}
	for _, v := range views {
		res.add(Object{Kind: KindMaterializedView, Name: v.Name, View: v.Name, Statement: ddl.FormatView(schemaName, v)})
		res.Views++

		indexes, err := catalog.ListIndexes(ctx, sess, schemaName, v.Name)
		if err != nil {
			return nil, phaseError(PhaseListIndexes, v.Name, err)
		}
		for _, ix := range indexes {
			res.add(Object{Kind: KindIndex, Name: ix.Name, View: v.Name, Statement: ddl.FormatIndex(schemaName, ix)})
			res.Indexes++
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

// ValidateSchemaName rejects empty and whitespace-only names.
func ValidateSchemaName(schemaName string) error {
	if strings.TrimSpace(schemaName) == "" {
		return &ValidationError{Field: "schema name", Reason: "must not be empty"}
	}
	return nil
}

func filterViews(views []schema.MaterializedView, pattern string) []schema.MaterializedView {
	if pattern == "" || len(views) == 0 {
		return views
	}
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	keep := make(map[int]bool)
	for _, m := range fuzzy.Find(pattern, names) {
		keep[m.Index] = true
	}
	filtered := views[:0:0]
	for i, v := range views {
		if keep[i] {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
