package postgres

import (
	"context"
	"os"
	"testing"

	"csvmerge/internal/storage"
)

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := CreateTableSQL("public.merged", []string{"id", `we"ird`})
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"merged\" (\n  \"id\" text,\n  \"we\"\"ird\" text\n);"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
	if _, err := CreateTableSQL(".", []string{"a"}); err == nil {
		t.Fatalf("expected error for empty table")
	}
	if _, err := CreateTableSQL("t", nil); err == nil {
		t.Fatalf("expected error for no columns")
	}
}

func TestSplitFQN(t *testing.T) {
	t.Parallel()

	tests := map[string]int{"merged": 1, "public.merged": 2, "": 0, "a..b": 2}
	for in, want := range tests {
		if got := len(splitFQN(in)); got != want {
			t.Errorf("splitFQN(%q) has %d parts, want %d", in, got, want)
		}
	}
}

type fakeRepo struct {
	copied int
	sqls   []string
}

func (f *fakeRepo) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	f.copied += len(rows)
	return int64(len(rows)), nil
}

func (f *fakeRepo) Exec(ctx context.Context, sql string) error {
	f.sqls = append(f.sqls, sql)
	return nil
}

// TestExportThroughFactory drives storage.Export over the adapter with a fake
// connection.
func TestExportThroughFactory(t *testing.T) {
	fake := &fakeRepo{}
	closed := false
	storage.Register("postgres-fake", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return &wrappedRepo{repository: fake, closeFn: func() { closed = true }}, nil
	})
	storage.RegisterDDL("postgres-fake", CreateTableSQL)

	res, err := storage.Export(context.Background(), storage.Config{
		Kind: "postgres-fake", Table: "public.merged", Columns: []string{"a", "b"},
	}, [][]string{{"1", "2"}, {"3", "4"}}, 10)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Rows != 2 || fake.copied != 2 {
		t.Fatalf("rows=%d copied=%d", res.Rows, fake.copied)
	}
	if len(fake.sqls) != 1 {
		t.Fatalf("expected one DDL statement, got %q", fake.sqls)
	}
	if !closed {
		t.Fatalf("repository not closed")
	}
}

// Not parallel: swaps the newRepository hook.
func TestRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got Config
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{}, func() {}, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://x", Table: "t"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()
	if got.DSN != "postgres://x" || got.Table != "t" {
		t.Fatalf("hook cfg=%+v", got)
	}
}

// TestCopyFrom_Live runs against a real database when TEST_PG_DSN is set.
func TestCopyFrom_Live(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("set TEST_PG_DSN to run")
	}
	ctx := context.Background()
	cfg := storage.Config{Kind: "postgres", DSN: dsn, Table: "public.__csvmerge_export_test", Columns: []string{"a", "b"}}

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: cfg.Table})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	_ = repo.Exec(ctx, `DROP TABLE IF EXISTS public.__csvmerge_export_test`)
	closeFn()

	res, err := storage.Export(ctx, cfg, [][]string{{"1", "x"}, {"2", "y"}}, 0)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.Rows != 2 {
		t.Fatalf("rows=%d, want 2", res.Rows)
	}
}
