// Package catalog reads materialized view and index metadata from the
// PostgreSQL system catalogs.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/schema"
)

const viewsQuery = `SELECT c.relname,
        pg_get_viewdef(c.oid)
 FROM pg_class c
 JOIN pg_namespace n ON n.oid = c.relnamespace
 WHERE c.relkind = 'm'
   AND n.nspname = $1
 ORDER BY c.relname`

// indexColumnsQuery returns one row per index key column. The ordinal
// comes from unnest(indkey) WITH ORDINALITY, i.e. the position of the
// column in the index key, not its attribute number in the relation.
const indexColumnsQuery = `SELECT i.relname,
        n.nspname,
        t.relname,
        ix.indisunique,
        k.ord,
        a.attname
 FROM pg_class t
 JOIN pg_namespace n ON n.oid = t.relnamespace
 JOIN pg_index ix ON ix.indrelid = t.oid
 JOIN pg_class i ON i.oid = ix.indexrelid
 JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
 JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
 WHERE n.nspname = $1
   AND t.relname = $2
   AND t.relkind = 'm'
 ORDER BY i.relname, k.ord`

// ListMaterializedViews returns the materialized views of schemaName with
// their defining queries, ordered by name. An empty schema yields an empty
// slice and no error.
func ListMaterializedViews(ctx context.Context, q adapter.Querier, schemaName string) ([]schema.MaterializedView, error) {
	rows, err := q.Query(ctx, viewsQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("materialized views: %w", err)
	}
	defer rows.Close()

	var views []schema.MaterializedView
	for rows.Next() {
		var v schema.MaterializedView
		if err := rows.Scan(&v.Name, &v.Definition); err != nil {
			return nil, fmt.Errorf("materialized views scan: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("materialized views rows: %w", err)
	}
	return views, nil
}

type keyColumn struct {
	ordinal int64
	name    string
}

type indexBuilder struct {
	index schema.Index
	keys  []keyColumn
}

// ListIndexes returns the indexes defined on the materialized view
// schemaName.viewName. Each index's Columns are in key ordinal order.
// A view without indexes yields an empty slice and no error.
func ListIndexes(ctx context.Context, q adapter.Querier, schemaName, viewName string) ([]schema.Index, error) {
	rows, err := q.Query(ctx, indexColumnsQuery, schemaName, viewName)
	if err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	defer rows.Close()

	builders := make(map[string]*indexBuilder)
	var order []string
	for rows.Next() {
		var (
			name, nspName, relName, column string
			unique                         bool
			ordinal                        int64
		)
		if err := rows.Scan(&name, &nspName, &relName, &unique, &ordinal, &column); err != nil {
			return nil, fmt.Errorf("indexes scan: %w", err)
		}
		b, ok := builders[name]
		if !ok {
			b = &indexBuilder{index: schema.Index{
				Name:   name,
				Schema: nspName,
				Table:  relName,
				Unique: unique,
			}}
			builders[name] = b
			order = append(order, name)
		}
		b.keys = append(b.keys, keyColumn{ordinal: ordinal, name: column})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("indexes rows: %w", err)
	}

	slices.Sort(order)
	indexes := make([]schema.Index, 0, len(order))
	for _, name := range order {
		b := builders[name]
		slices.SortStableFunc(b.keys, func(x, y keyColumn) int {
			return cmp.Compare(x.ordinal, y.ordinal)
		})
		cols := make([]string, len(b.keys))
		for i, k := range b.keys {
			cols[i] = k.name
		}
		b.index.Columns = cols
		indexes = append(indexes, b.index)
	}
	return indexes, nil
}
