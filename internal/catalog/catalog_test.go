package catalog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sadopc/matviewddl/internal/adapter"
	"github.com/sadopc/matviewddl/internal/catalog/catalogtest"
)

func openSession(t *testing.T, cat *catalogtest.Catalog) adapter.Session {
	t.Helper()
	sess, err := cat.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	t.Cleanup(sess.Release)
	return sess
}

func TestListMaterializedViews_Ordered(t *testing.T) {
	cat := catalogtest.New()
	cat.AddView("analytics", "mv_zeta", "SELECT 2")
	cat.AddView("analytics", "mv_alpha", "SELECT 1")
	cat.AddView("other", "mv_other", "SELECT 3")
	sess := openSession(t, cat)

	views, err := ListMaterializedViews(context.Background(), sess, "analytics")
	if err != nil {
		t.Fatalf("ListMaterializedViews() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}
	if views[0].Name != "mv_alpha" || views[1].Name != "mv_zeta" {
		t.Errorf("views = %v, want mv_alpha then mv_zeta", views)
	}
	if views[0].Definition != "SELECT 1" {
		t.Errorf("Definition = %q, want %q", views[0].Definition, "SELECT 1")
	}
}

func TestListMaterializedViews_EmptySchema(t *testing.T) {
	cat := catalogtest.New()
	sess := openSession(t, cat)

	views, err := ListMaterializedViews(context.Background(), sess, "empty")
	if err != nil {
		t.Fatalf("ListMaterializedViews() error = %v", err)
	}
	if len(views) != 0 {
		t.Errorf("got %d views, want 0", len(views))
	}
}

func TestListMaterializedViews_BindsSchemaAsParameter(t *testing.T) {
	cat := catalogtest.New()
	sess := openSession(t, cat)

	name := `x'; DROP SCHEMA public; --`
	if _, err := ListMaterializedViews(context.Background(), sess, name); err != nil {
		t.Fatalf("ListMaterializedViews() error = %v", err)
	}

	queries := cat.Queries()
	if len(queries) != 1 {
		t.Fatalf("got %d queries, want 1", len(queries))
	}
	if strings.Contains(queries[0].SQL, name) {
		t.Error("schema name was interpolated into the SQL text")
	}
	if !reflect.DeepEqual(queries[0].Args, []any{name}) {
		t.Errorf("args = %v, want [%q]", queries[0].Args, name)
	}
}

func TestListMaterializedViews_QueryError(t *testing.T) {
	cat := catalogtest.New()
	boom := errors.New("permission denied for table pg_class")
	cat.ViewsErr = boom
	sess := openSession(t, cat)

	_, err := ListMaterializedViews(context.Background(), sess, "analytics")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapping %v", err, boom)
	}
}

func TestListIndexes(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*catalogtest.Catalog)
		want   [][]string
		unique []bool
		names  []string
	}{
		{
			name:  "no indexes",
			setup: func(*catalogtest.Catalog) {},
		},
		{
			name: "single unique index",
			setup: func(c *catalogtest.Catalog) {
				c.AddIndex("analytics", "mv_orders", "idx_orders_id", true, "id")
			},
			names:  []string{"idx_orders_id"},
			want:   [][]string{{"id"}},
			unique: []bool{true},
		},
		{
			name: "composite key keeps ordinal order",
			setup: func(c *catalogtest.Catalog) {
				c.AddIndex("analytics", "mv_orders", "idx_b_a", false, "col_b", "col_a")
			},
			names:  []string{"idx_b_a"},
			want:   [][]string{{"col_b", "col_a"}},
			unique: []bool{false},
		},
		{
			name: "rows out of ordinal order",
			setup: func(c *catalogtest.Catalog) {
				for _, row := range []struct {
					ord int64
					col string
				}{{3, "c"}, {1, "z"}, {2, "a"}} {
					c.AddIndexColumn(catalogtest.IndexColumn{
						Index: "idx_mixed", Schema: "analytics", Table: "mv_orders",
						Ordinal: row.ord, Column: row.col,
					})
				}
			},
			names:  []string{"idx_mixed"},
			want:   [][]string{{"z", "a", "c"}},
			unique: []bool{false},
		},
		{
			name: "several indexes sorted by name",
			setup: func(c *catalogtest.Catalog) {
				c.AddIndex("analytics", "mv_orders", "idx_z", false, "total")
				c.AddIndex("analytics", "mv_orders", "idx_a", true, "id", "region")
				c.AddIndex("analytics", "mv_other", "idx_elsewhere", false, "x")
			},
			names:  []string{"idx_a", "idx_z"},
			want:   [][]string{{"id", "region"}, {"total"}},
			unique: []bool{true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := catalogtest.New()
			tt.setup(cat)
			sess := openSession(t, cat)

			got, err := ListIndexes(context.Background(), sess, "analytics", "mv_orders")
			if err != nil {
				t.Fatalf("ListIndexes() error = %v", err)
			}
			if len(got) != len(tt.names) {
				t.Fatalf("got %d indexes, want %d", len(got), len(tt.names))
			}
			for i, ix := range got {
				if ix.Name != tt.names[i] {
					t.Errorf("index[%d].Name = %q, want %q", i, ix.Name, tt.names[i])
				}
				if !reflect.DeepEqual(ix.Columns, tt.want[i]) {
					t.Errorf("index[%d].Columns = %v, want %v", i, ix.Columns, tt.want[i])
				}
				if ix.Unique != tt.unique[i] {
					t.Errorf("index[%d].Unique = %v, want %v", i, ix.Unique, tt.unique[i])
				}
				if ix.Schema != "analytics" || ix.Table != "mv_orders" {
					t.Errorf("index[%d] owner = %s.%s, want analytics.mv_orders", i, ix.Schema, ix.Table)
				}
			}
		})
	}
}

func TestListIndexes_QueryError(t *testing.T) {
	cat := catalogtest.New()
	boom := errors.New("relation does not exist")
	cat.IndexErr["mv_orders"] = boom
	sess := openSession(t, cat)

	_, err := ListIndexes(context.Background(), sess, "analytics", "mv_orders")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapping %v", err, boom)
	}
}

func TestIndexQueryUsesOrdinality(t *testing.T) {
	if !strings.Contains(indexColumnsQuery, "WITH ORDINALITY") {
		t.Error("index query must reconstruct key order WITH ORDINALITY")
	}
	if !strings.Contains(indexColumnsQuery, "t.relkind = 'm'") {
		t.Error("index query must restrict owners to materialized views")
	}
	if !strings.Contains(viewsQuery, "ORDER BY c.relname") {
		t.Error("view query must order by relation name")
	}
}
