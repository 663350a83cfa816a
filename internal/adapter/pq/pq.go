// Package pq registers a database/sql catalog adapter backed by lib/pq.
// It is useful where pgx cannot be used, for example behind connection
// poolers that reject the extended protocol features pgx relies on.
package pq

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/lib/pq"

	"github.com/sadopc/matviewddl/internal/adapter"
)

func init() {
	adapter.Register(&pqAdapter{})
}

type pqAdapter struct{}

func (a *pqAdapter) Name() string     { return "pq" }
func (a *pqAdapter) DefaultPort() int { return 5432 }

func (a *pqAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("pq connect: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pq ping: %w", classify(err))
	}

	var dbName string
	if err := db.QueryRowContext(ctx, `SELECT current_database()`).Scan(&dbName); err != nil {
		db.Close()
		return nil, fmt.Errorf("pq current database: %w", classify(err))
	}

	return &pqConn{db: db, dbName: dbName}, nil
}

// pqConn implements adapter.Connection over a *sql.DB.
type pqConn struct {
	db     *sql.DB
	dbName string
}

func (c *pqConn) DatabaseName() string { return c.dbName }
func (c *pqConn) AdapterName() string  { return "pq" }

func (c *pqConn) Ping(ctx context.Context) error {
	return classify(c.db.PingContext(ctx))
}

func (c *pqConn) Close() error {
	return c.db.Close()
}

// Session pins a single *sql.Conn so every catalog query of one extraction
// runs on the same backend.
func (c *pqConn) Session(ctx context.Context) (adapter.Session, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: acquire: %w", adapter.ErrConnection, err)
	}
	return &pqSession{conn: conn}, nil
}

type pqSession struct {
	conn *sql.Conn
}

func (s *pqSession) Query(ctx context.Context, query string, args ...any) (adapter.Rows, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlRows{rows: rows}, nil
}

func (s *pqSession) Release() {
	_ = s.conn.Close()
}

// sqlRows adapts *sql.Rows to adapter.Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool             { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *sqlRows) Err() error             { return classify(r.rows.Err()) }
func (r *sqlRows) Close()                 { _ = r.rows.Close() }

func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if adapter.IsConnectionSQLState(string(pqErr.Code)) {
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
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}
