package audiocache

import (
	"context"
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Hello world.", "af_heart", 1.0, "en-us")
	b := Fingerprint("Hello world.", "af_heart", 1.0, "en-us")
	if a != b {
		t.Fatalf("fingerprint not deterministic: %s vs %s", a, b)
	}
	if a == Fingerprint("Hello world.", "am_adam", 1.0, "en-us") {
		t.Fatal("different voice must change fingerprint")
	}
	if a == Fingerprint("Hello world.", "af_heart", 1.5, "en-us") {
		t.Fatal("different speed must change fingerprint")
	}
}

func TestCacheWriteThroughAndPromote(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := New(8, store, newLogger())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	first.Put(ctx, "fp-1", "af_heart", []byte("clip"))

	// A fresh memory tier over the same store must still hit, via promotion.
	second, err := New(8, store, newLogger())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	payload, ok := second.Get(ctx, "fp-1")
	if !ok || string(payload) != "clip" {
		t.Fatalf("expected durable hit, got ok=%v payload=%q", ok, payload)
	}
	if payload, ok := second.mem.Get("fp-1"); !ok || string(payload) != "clip" {
		t.Fatal("expected durable hit to be promoted to memory")
	}
}

func TestCacheMemoryOnly(t *testing.T) {
	cache, err := New(8, nil, newLogger())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()
	if _, ok := cache.Get(ctx, "fp"); ok {
		t.Fatal("expected miss before put")
	}
	cache.Put(ctx, "fp", "v", []byte("clip"))
	payload, ok := cache.Get(ctx, "fp")
	if !ok || string(payload) != "clip" {
		t.Fatalf("expected memory hit, got ok=%v payload=%q", ok, payload)
	}
}

func TestCacheStoreFailureIsMiss(t *testing.T) {
	store := openTestStore(t)
	_ = store.Close()

	cache, err := New(8, store, newLogger())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	if _, ok := cache.Get(context.Background(), "fp"); ok {
		t.Fatal("expected closed store to read as a miss")
	}
	// Writes against the failed store must not panic and keep the memory tier.
	cache.Put(context.Background(), "fp", "v", []byte("clip"))
	if payload, ok := cache.Get(context.Background(), "fp"); !ok || string(payload) != "clip" {
		t.Fatal("expected memory tier to survive store failure")
	}
}
