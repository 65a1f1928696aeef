package audiocache

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/imranpollob/document-echo/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.CacheConfig{Path: filepath.Join(t.TempDir(), "audio.db")}
	store, err := OpenStore(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "fp-1", "af_heart", []byte("clip")); err != nil {
		t.Fatalf("put: %v", err)
	}
	payload, err := store.Get(ctx, "fp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(payload) != "clip" {
		t.Fatalf("unexpected payload %q", payload)
	}
}

func TestStoreMissingKey(t *testing.T) {
	store := openTestStore(t)
	payload, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if payload != nil {
		t.Fatalf("expected absent key, got %q", payload)
	}
}

func TestStoreEntriesImmutable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "fp-1", "af_heart", []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "fp-1", "af_heart", []byte("second")); err != nil {
		t.Fatalf("second put: %v", err)
	}
	payload, err := store.Get(ctx, "fp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(payload) != "first" {
		t.Fatalf("entry was overwritten: %q", payload)
	}
}

func TestStoreNilSafe(t *testing.T) {
	var store *Store
	if err := store.Put(context.Background(), "fp", "v", []byte("x")); err != nil {
		t.Fatalf("nil store put: %v", err)
	}
	payload, err := store.Get(context.Background(), "fp")
	if err != nil || payload != nil {
		t.Fatalf("nil store get: %v %q", err, payload)
	}
}
