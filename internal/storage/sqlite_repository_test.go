package storage

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "memoara-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestDocumentPutGetDelete(t *testing.T) {
	repo := setupRepo(t)
	ctx := t.Context()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Put(ctx, "a", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := repo.Put(ctx, "a", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	doc, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(doc.Value) != `{"v":2}` || doc.UpdatedAt.IsZero() {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDocumentKeysSorted(t *testing.T) {
	for name, repo := range map[string]Repository{
		"sqlite": setupRepo(t),
		"memory": NewMemoryRepository(),
	} {
		ctx := t.Context()
		for _, key := range []string{"c", "a", "b"} {
			if err := repo.Put(ctx, key, []byte("1")); err != nil {
				t.Fatalf("%s put %s: %v", name, key, err)
			}
		}
		keys, err := repo.Keys(ctx)
		if err != nil {
			t.Fatalf("%s keys: %v", name, err)
		}
		if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
			t.Fatalf("%s: unexpected keys %v", name, keys)
		}
	}
}
