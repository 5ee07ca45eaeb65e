package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryStoreTiersAreIsolated(t *testing.T) {
	st := NewMemoryStore()
	st.Set(TierSession, "chatOpen", "true")
	st.Set(TierDurable, "chatAutoOpened", "true")

	if v, ok := st.Get(TierSession, "chatOpen"); !ok || v != "true" {
		t.Fatalf("session read: got %q, %v", v, ok)
	}
	if _, ok := st.Get(TierSession, "chatAutoOpened"); ok {
		t.Fatal("durable key must not be visible in the session tier")
	}

	st.ClearTier(TierSession)
	if _, ok := st.Get(TierSession, "chatOpen"); ok {
		t.Fatal("ClearTier should drop session keys")
	}
	if v, ok := st.Get(TierDurable, "chatAutoOpened"); !ok || v != "true" {
		t.Fatal("ClearTier must not touch the durable tier")
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	st := NewMemoryStore()
	st.Set(TierSession, "k", "v")
	st.Remove(TierSession, "k")
	if _, ok := st.Get(TierSession, "k"); ok {
		t.Fatal("removed key should be gone")
	}
	// removing from an unknown tier is a no-op
	st.Remove("nope", "k")
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	st, err := OpenSQLite(path, testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	st.Set(TierDurable, "chatAutoOpened", "true")
	st.Set(TierSession, "chatMessages", `[{"id":"1"}]`)
	st.Set(TierSession, "chatMessages", `[{"id":"1"},{"id":"2"}]`)
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// values survive a reopen; the second Set replaced the first
	st, err = OpenSQLite(path, testLogger())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()

	if v, ok := st.Get(TierDurable, "chatAutoOpened"); !ok || v != "true" {
		t.Fatalf("durable read after reopen: got %q, %v", v, ok)
	}
	if v, ok := st.Get(TierSession, "chatMessages"); !ok || v != `[{"id":"1"},{"id":"2"}]` {
		t.Fatalf("session read after reopen: got %q, %v", v, ok)
	}
}

func TestSQLiteStoreClearTier(t *testing.T) {
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"), testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer st.Close()

	st.Set(TierSession, "a", "1")
	st.Set(TierSession, "b", "2")
	st.Set(TierDurable, "a", "keep")
	st.ClearTier(TierSession)

	if _, ok := st.Get(TierSession, "a"); ok {
		t.Fatal("session keys should be cleared")
	}
	if v, ok := st.Get(TierDurable, "a"); !ok || v != "keep" {
		t.Fatal("durable keys must survive a session clear")
	}
}

func TestSQLiteStoreMissingKey(t *testing.T) {
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"), testLogger())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer st.Close()

	if v, ok := st.Get(TierSession, "absent"); ok || v != "" {
		t.Fatalf("missing key: got %q, %v", v, ok)
	}
	st.Remove(TierSession, "absent") // no-op, must not fail
}
