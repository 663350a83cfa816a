package adapter

import (
	"context"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrConnection marks failures caused by an unusable or unreachable
	// catalog session, as opposed to a query the server rejected.
	ErrConnection   = errors.New("catalog connection unusable")
	ErrNotConnected = errors.New("not connected to database")
)

// Adapter creates catalog connections.
type Adapter interface {
	Connect(ctx context.Context, dsn string) (Connection, error)
	Name() string
	DefaultPort() int
}

// Connection represents an open handle to a catalog. It may be backed by a
// pool; Session hands out one exclusively owned session at a time.
type Connection interface {
	// Session acquires a scoped session. The caller must Release it.
	Session(ctx context.Context) (Session, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Info
	DatabaseName() string
	AdapterName() string
}

// Querier issues parameterized read queries. Arguments are bound as
// positional $n parameters and are never interpolated into the SQL text.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Session is a single catalog session. It is not safe for concurrent use.
type Session interface {
	Querier
	Release()
}

// Rows is a forward-only result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}

// Names returns the registered adapter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsConnectionSQLState reports whether a server error code means the
// session can no longer be used: class 08 connection exceptions and the
// shutdown codes 57P01, 57P02 and 57P03.
func IsConnectionSQLState(code string) bool {
	if strings.HasPrefix(code, "08") {
		return true
	}
	switch code {
	case "57P01", "57P02", "57P03":
		return true
	}
	return false
}
