package adapter

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// mockAdapter is a minimal adapter for testing the registry.
type mockAdapter struct {
	name string
	port int
}

func (m *mockAdapter) Name() string     { return m.name }
func (m *mockAdapter) DefaultPort() int { return m.port }
func (m *mockAdapter) Connect(_ context.Context, _ string) (Connection, error) {
	return nil, errors.New("mock: not implemented")
}

func saveRegistry(t *testing.T) {
	t.Helper()
	orig := make(map[string]Adapter)
	for k, v := range Registry {
		orig[k] = v
	}
	t.Cleanup(func() { Registry = orig })
	Registry = map[string]Adapter{}
}

func TestRegister(t *testing.T) {
	saveRegistry(t)

	mock := &mockAdapter{name: "testdb", port: 9999}
	Register(mock)

	got, ok := Registry["testdb"]
	if !ok {
		t.Fatal("expected adapter 'testdb' to be registered")
	}
	if got.Name() != "testdb" {
		t.Errorf("Name() = %q, want %q", got.Name(), "testdb")
	}
	if got.DefaultPort() != 9999 {
		t.Errorf("DefaultPort() = %d, want %d", got.DefaultPort(), 9999)
	}
}

func TestNames(t *testing.T) {
	saveRegistry(t)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		Register(&mockAdapter{name: name})
	}

	got := Names()
	want := []string{"alpha", "bravo", "charlie"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestErrors(t *testing.T) {
	if errors.Is(ErrConnection, ErrNotConnected) {
		t.Error("ErrConnection and ErrNotConnected should be distinct")
	}
	wrapped := fmt.Errorf("%w: acquire: %w", ErrConnection, errors.New("dial tcp: refused"))
	if !errors.Is(wrapped, ErrConnection) {
		t.Error("wrapped error should match ErrConnection")
	}
}

func TestIsConnectionSQLState(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"08000", true},
		{"08006", true},
		{"08P01", true},
		{"57P01", true},
		{"57P02", true},
		{"57P03", true},
		{"57014", false},
		{"42P01", false},
		{"XX000", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsConnectionSQLState(tt.code); got != tt.want {
			t.Errorf("IsConnectionSQLState(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
