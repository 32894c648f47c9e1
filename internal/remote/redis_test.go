package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) DocumentStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreFromClient(client)
}

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestPutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := testDoc{Name: "Ramesh", Count: 3}
	if err := store.Put(ctx, "users/u1/ledgers/l1", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out testDoc
	if err := store.Get(ctx, "users/u1/ledgers/l1", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Errorf("expected %+v, got %+v", in, out)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "users/u1/ledgers/l1", testDoc{Name: "First"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "users/u1/ledgers/l1", testDoc{Name: "Second"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out testDoc
	if err := store.Get(ctx, "users/u1/ledgers/l1", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "Second" {
		t.Errorf("expected overwritten document, got %q", out.Name)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	var out testDoc
	err := store.Get(context.Background(), "users/u1/ledgers/nope", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "users/u1/ledgers/l1", testDoc{Name: "Ramesh"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, "users/u1/ledgers/l1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var out testDoc
	if err := store.Get(ctx, "users/u1/ledgers/l1", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing document is not an error.
	if err := store.Delete(ctx, "users/u1/ledgers/l1"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := map[string]testDoc{
		"users/u1/ledgers/l1":                 {Name: "A"},
		"users/u1/ledgers/l1/transactions/t1": {Name: "B"},
		"users/u1/expenses/e1":                {Name: "C"},
		"users/u2/ledgers/l9":                 {Name: "D"},
	}
	for path, doc := range docs {
		if err := store.Put(ctx, path, doc); err != nil {
			t.Fatalf("put %s: %v", path, err)
		}
	}

	paths, err := store.List(ctx, LedgersPrefix("u1"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 paths under the ledgers prefix, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if p == "users/u2/ledgers/l9" || p == "users/u1/expenses/e1" {
			t.Errorf("unexpected path %q in listing", p)
		}
	}
}

func TestPathLayout(t *testing.T) {
	if got := LedgerPath("u1", "l1"); got != "users/u1/ledgers/l1" {
		t.Errorf("ledger path: %s", got)
	}
	if got := EntryPath("u1", "l1", "t1"); got != "users/u1/ledgers/l1/transactions/t1" {
		t.Errorf("entry path: %s", got)
	}
	if got := CategoriesPath("u1"); got != "users/u1/settings/categories" {
		t.Errorf("categories path: %s", got)
	}
}
