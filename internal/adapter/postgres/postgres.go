package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/matviewddl/internal/adapter"
)

func init() {
	adapter.Register(&postgresAdapter{})
}

// postgresAdapter implements adapter.Adapter for PostgreSQL using pgx.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string     { return "postgres" }
func (a *postgresAdapter) DefaultPort() int { return 5432 }

func (a *postgresAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", classify(err))
	}

	return &pgConn{
		pool:   pool,
		dbName: extractDBName(dsn),
	}, nil
}

// extractDBName parses the database name from the DSN.
func extractDBName(dsn string) string {
	if dsn == "" {
		return ""
	}
	// Try URL format first (postgres://... or postgresql://...)
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	// Fallback: keyword=value format (e.g. "host=localhost dbname=myapp")
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}
	return ""
}

// pgConn implements adapter.Connection on top of a pgx pool.
type pgConn struct {
	pool   *pgxpool.Pool
	dbName string
}

func (c *pgConn) DatabaseName() string { return c.dbName }
func (c *pgConn) AdapterName() string  { return "postgres" }

func (c *pgConn) Ping(ctx context.Context) error {
	return classify(c.pool.Ping(ctx))
}

func (c *pgConn) Close() error {
	c.pool.Close()
	return nil
}

// Session acquires one connection from the pool for exclusive use.
func (c *pgConn) Session(ctx context.Context) (adapter.Session, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: acquire: %w", adapter.ErrConnection, err)
	}
	return &pgSession{conn: conn}, nil
}

// pgSession wraps a pooled connection. Release returns it to the pool.
type pgSession struct {
	conn *pgxpool.Conn
}

func (s *pgSession) Query(ctx context.Context, sql string, args ...any) (adapter.Rows, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	return &pgRows{rows: rows}, nil
}

func (s *pgSession) Release() {
	s.conn.Release()
}

// pgRows adapts pgx.Rows so that late errors are classified the same way
// as errors returned from Query.
type pgRows struct {
	rows pgx.Rows
}

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgRows) Err() error             { return classify(r.rows.Err()) }
func (r *pgRows) Close()                 { r.rows.Close() }

// classify tags errors that indicate a broken session with
// adapter.ErrConnection. Server-side errors pass through unchanged unless
// their SQLSTATE reports a lost session. Context errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if adapter.IsConnectionSQLState(pgErr.Code) {
			return fmt.Errorf("%w: %w", adapter.ErrConnection, err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isConnectionFailure(err) {
		return fmt.Errorf("%w: %w", adapter.ErrConnection, err)
	}
	return err
}

func isConnectionFailure(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		pgconn.SafeToRetry(err)
}
