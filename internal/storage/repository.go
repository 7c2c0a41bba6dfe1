// Package storage holds the backend-agnostic export contract: a Repository
// that can bulk-copy rows and run DDL, a factory keyed by backend kind, and
// the batched loader that drives an export.
//
// Backends register themselves from init; import internal/storage/all to
// enable every built-in kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is a database sink.
type Repository interface {
	// CopyFrom inserts rows (aligned to columns) and returns how many were
	// written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind    string
	DSN     string
	Table   string
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// CreateTableFn renders a CREATE TABLE IF NOT EXISTS statement with one text
// column per name.
type CreateTableFn func(table string, columns []string) (string, error)

type backend struct {
	open   Factory
	create CreateTableFn
}

var (
	mu       sync.RWMutex
	backends = map[string]backend{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	b := backends[kind]
	b.open = f
	backends[kind] = b
}

// RegisterDDL installs the CREATE TABLE renderer for kind.
func RegisterDDL(kind string, fn CreateTableFn) {
	mu.Lock()
	defer mu.Unlock()
	b := backends[kind]
	b.create = fn
	backends[kind] = b
}

// Registered reports whether kind has a factory.
func Registered(kind string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return backends[kind].open != nil
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(backends))
	for k, b := range backends {
		if b.open != nil {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f := backends[cfg.Kind].open
	mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// EnsureTable creates the destination table for kind if it does not exist.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, columns []string) error {
	mu.RLock()
	fn := backends[kind].create
	mu.RUnlock()
	if fn == nil {
		return fmt.Errorf("no DDL registered for storage.kind=%q", kind)
	}
	stmt, err := fn(table, columns)
	if err != nil {
		return fmt.Errorf("build DDL: %w", err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}
