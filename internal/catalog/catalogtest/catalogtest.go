// Package catalogtest provides an in-memory catalog that implements
// adapter.Connection for tests that must not touch a real database.
package catalogtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/schema"
)

// IndexColumn is one row of the index key-column result set.
type IndexColumn struct {
	Index   string
	Schema  string
	Table   string
	Unique  bool
	Ordinal int64
	Column  string
}

// Query is a recorded catalog query.
type Query struct {
	SQL  string
	Args []any
}

// Catalog is a fake catalog. The zero value is not usable; call New.
type Catalog struct {
	mu sync.Mutex

	views   map[string][]schema.MaterializedView
	columns map[string][]IndexColumn

	// SessionErr is returned from Session when set.
	SessionErr error
	// ViewsErr is returned from the materialized view query when set.
	ViewsErr error
	// IndexErr maps a view name to the error its index query returns.
	IndexErr map[string]error

	queries  []Query
	acquired int
	released int
	closed   bool
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		views:    make(map[string][]schema.MaterializedView),
		columns:  make(map[string][]IndexColumn),
		IndexErr: make(map[string]error),
	}
}

// AddView adds a materialized view to schemaName.
func (c *Catalog) AddView(schemaName, name, definition string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[schemaName] = append(c.views[schemaName], schema.MaterializedView{Name: name, Definition: definition})
}

// AddIndex adds an index on schemaName.view whose key is columns, in order.
func (c *Catalog) AddIndex(schemaName, view, index string, unique bool, columns ...string) {
	for i, col := range columns {
		c.AddIndexColumn(IndexColumn{
			Index:   index,
			Schema:  schemaName,
			Table:   view,
			Unique:  unique,
			Ordinal: int64(i + 1),
			Column:  col,
		})
	}
}

// AddIndexColumn appends a raw key-column row. Rows are returned in the
// order they were added, which lets tests feed out-of-order ordinals.
func (c *Catalog) AddIndexColumn(col IndexColumn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := col.Schema + "." + col.Table
	c.columns[key] = append(c.columns[key], col)
}

// Queries returns the queries issued so far.
func (c *Catalog) Queries() []Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Query(nil), c.queries...)
}

// Sessions reports how many sessions were acquired and released.
func (c *Catalog) Sessions() (acquired, released int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired, c.released
}

// Closed reports whether Close was called.
func (c *Catalog) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Catalog) DatabaseName() string { return "fakedb" }
func (c *Catalog) AdapterName() string  { return "fake" }

func (c *Catalog) Ping(_ context.Context) error { return nil }

func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Catalog) Session(ctx context.Context) (adapter.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SessionErr != nil {
		return nil, c.SessionErr
	}
	c.acquired++
	return &session{cat: c}, nil
}

type session struct {
	cat      *Catalog
	released bool
}

func (s *session) Release() {
	if s.released {
		return
	}
	s.released = true
	s.cat.mu.Lock()
	s.cat.released++
	s.cat.mu.Unlock()
}

func (s *session) Query(ctx context.Context, sql string, args ...any) (adapter.Rows, error) {
	if s.released {
		return nil, errors.New("catalogtest: query on released session")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.cat
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, Query{SQL: sql, Args: args})

	switch {
	case strings.Contains(sql, "pg_index"):
		if len(args) != 2 {
			return nil, fmt.Errorf("catalogtest: index query wants 2 args, got %d", len(args))
		}
		schemaName, _ := args[0].(string)
		view, _ := args[1].(string)
		if err := c.IndexErr[view]; err != nil {
			return nil, err
		}
		var data [][]any
		for _, col := range c.columns[schemaName+"."+view] {
			data = append(data, []any{col.Index, col.Schema, col.Table, col.Unique, col.Ordinal, col.Column})
		}
		return &rows{data: data}, nil

	case strings.Contains(sql, "pg_get_viewdef"):
		if len(args) != 1 {
			return nil, fmt.Errorf("catalogtest: view query wants 1 arg, got %d", len(args))
		}
		if c.ViewsErr != nil {
			return nil, c.ViewsErr
		}
		schemaName, _ := args[0].(string)
		views := append([]schema.MaterializedView(nil), c.views[schemaName]...)
		sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
		var data [][]any
		for _, v := range views {
			data = append(data, []any{v.Name, v.Definition})
		}
		return &rows{data: data}, nil
	}
	return nil, fmt.Errorf("catalogtest: unexpected query: %s", sql)
}

type rows struct {
	data [][]any
	pos  int
}

func (r *rows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *rows) Scan(dest ...any) error {
	if r.pos == 0 {
		return errors.New("catalogtest: Scan called before Next")
	}
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("catalogtest: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			v, ok := row[i].(string)
			if !ok {
				return fmt.Errorf("catalogtest: column %d is %T, not string", i, row[i])
			}
			*p = v
		case *bool:
			v, ok := row[i].(bool)
			if !ok {
				return fmt.Errorf("catalogtest: column %d is %T, not bool", i, row[i])
			}
			*p = v
		case *int64:
			v, ok := row[i].(int64)
			if !ok {
				return fmt.Errorf("catalogtest: column %d is %T, not int64", i, row[i])
			}
			*p = v
		default:
			return fmt.Errorf("catalogtest: unsupported destination %T", d)
		}
	}
	return nil
}

func (r *rows) Err() error { return nil }
func (r *rows) Close()     {}
