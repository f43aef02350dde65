package backup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{
		URI:      "file:///tmp/a.txt",
		Language: "plaintext",
		Version:  4,
		Content:  "hello\nworld",
		SavedAt:  time.Unix(0, 1724198400000000000),
	}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, rec.URI)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != rec {
		t.Errorf("Get = %+v, want %+v", got, rec)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, Record{URI: "untitled:1", Version: 1, Content: "a"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, Record{URI: "untitled:1", Version: 2, Content: "ab"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "untitled:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != 2 || got.Content != "ab" {
		t.Errorf("Get = %+v", got)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("List returned %d records, want 1", len(records))
	}
}

func TestPutStampsSavedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before := time.Now()
	if err := s.Put(ctx, Record{URI: "untitled:2", Content: "x"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "untitled:2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SavedAt.Before(before) || got.SavedAt.After(time.Now()) {
		t.Errorf("SavedAt = %v not stamped", got.SavedAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "file:///nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, Record{URI: "file:///tmp/b.txt", Content: "b"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "file:///tmp/b.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "file:///tmp/b.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "file:///tmp/b.txt"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestListOrdersByURI(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, uri := range []string{"file:///c", "file:///a", "file:///b"} {
		if err := s.Put(ctx, Record{URI: uri, Content: uri}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List returned %d records", len(records))
	}
	for i, want := range []string{"file:///a", "file:///b", "file:///c"} {
		if records[i].URI != want {
			t.Errorf("records[%d].URI = %q, want %q", i, records[i].URI, want)
		}
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(ctx, Record{URI: "file:///persist", Version: 9, Content: "kept"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "file:///persist")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Version != 9 || got.Content != "kept" {
		t.Errorf("Get = %+v", got)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "backup.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()
}
