package schema

// MaterializedView is a materialized view read from the catalog together
// with its canonical defining query text.
type MaterializedView struct {
	Name       string
	Definition string
}

// Index is an index defined directly on a materialized view.
type Index struct {
	Name    string
	Schema  string // namespace of the owning relation
	Table   string // owning materialized view
	Unique  bool
	Columns []string // key columns in index ordinal order
}
