package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/telemetryhub/relay/internal/domain"
	"github.com/telemetryhub/relay/internal/storage"
)

func newFileStore(t *testing.T, quota int) *storage.FileStore {
	t.Helper()
	fs, err := storage.NewFileStore(t.TempDir(), quota)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestFileStore_RoundTrip(t *testing.T) {
	fs := newFileStore(t, 0)
	ctx := context.Background()

	if err := fs.Write(ctx, "queue", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatal(err)
	}

	blob, err := fs.Read(ctx, "queue")
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != `[{"id":"1"}]` {
		t.Fatalf("unexpected blob: %s", blob)
	}
}

func TestFileStore_MissingKeyReturnsNil(t *testing.T) {
	fs := newFileStore(t, 0)

	blob, err := fs.Read(context.Background(), "never-written")
	if err != nil {
		t.Fatalf("expected no error for missing key, got %v", err)
	}
	if blob != nil {
		t.Fatalf("expected nil blob, got %s", blob)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	fs := newFileStore(t, 0)
	ctx := context.Background()

	_ = fs.Write(ctx, "queue", []byte("first"))
	if err := fs.Write(ctx, "queue", []byte("second")); err != nil {
		t.Fatal(err)
	}

	blob, _ := fs.Read(ctx, "queue")
	if string(blob) != "second" {
		t.Fatalf("expected overwrite, got %s", blob)
	}
}

func TestFileStore_QuotaExceeded(t *testing.T) {
	fs := newFileStore(t, 10)
	ctx := context.Background()

	err := fs.Write(ctx, "queue", []byte("this record is longer than ten bytes"))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// A failed quota write must not leave a record behind.
	blob, _ := fs.Read(ctx, "queue")
	if blob != nil {
		t.Fatalf("expected no record after quota failure, got %s", blob)
	}
}

func TestFileStore_Delete(t *testing.T) {
	fs := newFileStore(t, 0)
	ctx := context.Background()

	_ = fs.Write(ctx, "queue", []byte("x"))
	if err := fs.Delete(ctx, "queue"); err != nil {
		t.Fatal(err)
	}

	blob, _ := fs.Read(ctx, "queue")
	if blob != nil {
		t.Fatal("expected record gone after delete")
	}

	// Deleting a missing key is not an error.
	if err := fs.Delete(ctx, "queue"); err != nil {
		t.Fatalf("expected idempotent delete, got %v", err)
	}
}

// Keys are sanitised into file names, so separators must not escape the
// data directory.
func TestFileStore_KeySanitisation(t *testing.T) {
	fs := newFileStore(t, 0)
	ctx := context.Background()

	if err := fs.Write(ctx, "../escape/attempt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	blob, err := fs.Read(ctx, "../escape/attempt")
	if err != nil || string(blob) != "x" {
		t.Fatalf("expected sanitised round-trip, got %s, %v", blob, err)
	}
}
