package pq

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/sadopc/matviewddl/internal/adapter"
)

func TestPQAdapter_Registration(t *testing.T) {
	a, ok := adapter.Registry["pq"]
	if !ok {
		t.Fatal("pq adapter not found in registry")
	}
	if a.Name() != "pq" {
		t.Errorf("Name() = %q, want %q", a.Name(), "pq")
	}
	if a.DefaultPort() != 5432 {
		t.Errorf("DefaultPort() = %d, want %d", a.DefaultPort(), 5432)
	}
}

func TestPQAdapter_ConnectInvalidDSN(t *testing.T) {
	a := &pqAdapter{}
	_, err := a.Connect(context.Background(), "postgres://%zz")
	if err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantConn bool
	}{
		{"server error", &pq.Error{Code: "42501", Message: "permission denied"}, false},
		{"connection exception", &pq.Error{Code: "08003", Message: "connection does not exist"}, true},
		{"crash shutdown", fmt.Errorf("query: %w", &pq.Error{Code: "57P02"}), true},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", fmt.Errorf("query: %w", sql.ErrConnDone), true},
		{"context canceled", context.Canceled, false},
		{"plain error", errors.New("converting NULL to string is unsupported"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if errors.Is(got, adapter.ErrConnection) != tt.wantConn {
				t.Errorf("classify(%v) connection = %v, want %v", tt.err, !tt.wantConn, tt.wantConn)
			}
		})
	}
}
