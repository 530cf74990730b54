package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_FileNotExist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if got := len(fs.Snapshot()); got != 0 {
		t.Errorf("expected empty store, got %d keys", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("store must not create a file before the first write, stat err = %v", err)
	}
}

func TestLoad_FileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	buf, _ := json.Marshal(map[string]string{"token": "abc", "role": "doctor"})
	if err := os.WriteFile(path, buf, 0600); err != nil {
		t.Fatal(err)
	}

	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if v, ok := fs.Get("token"); !ok || v != "abc" {
		t.Errorf("token = %q, %v; want %q, true", v, ok, "abc")
	}
	if v, ok := fs.Get("role"); !ok || v != "doctor" {
		t.Errorf("role = %q, %v; want %q, true", v, ok, "doctor")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not-json"), 0600); err != nil {
		t.Fatal(err)
	}

	fs, err := NewFileStore(path)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if fs == nil {
		t.Fatal("expected usable store alongside the error")
	}
	if err := fs.Set("token", "t1"); err != nil {
		t.Fatalf("Set after corrupt load: %v", err)
	}
	if v, _ := fs.Get("token"); v != "t1" {
		t.Errorf("token = %q; want %q", v, "t1")
	}
}

func TestSetRemove_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := fs.Set("user", `{"_id":"1"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Set("token", "tok"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Remove("token"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := fs.Remove("missing"); err != nil {
		t.Fatalf("Remove of missing key: %v", err)
	}

	// read back through a fresh store
	again, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if v, ok := again.Get("user"); !ok || v != `{"_id":"1"}` {
		t.Errorf("user = %q, %v", v, ok)
	}
	if _, ok := again.Get("token"); ok {
		t.Error("token must be absent after Remove")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o; want 600", perm)
	}
}

func TestSet_WriteFailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing-dir", "session.json")
	fs := &FileStore{path: path, items: map[string]string{"role": "admin"}}

	if err := fs.Set("role", "doctor"); err == nil {
		t.Fatal("expected write error for a missing directory")
	}
	if v, _ := fs.Get("role"); v != "admin" {
		t.Errorf("role = %q; want previous value %q", v, "admin")
	}
	if err := fs.Set("token", "x"); err == nil {
		t.Fatal("expected write error")
	}
	if _, ok := fs.Get("token"); ok {
		t.Error("failed Set must not leave the key behind")
	}
}

func TestMemoryStore(t *testing.T) {
	seed := map[string]string{"a": "1"}
	m := NewMemoryStore(seed)
	seed["a"] = "changed"

	if v, _ := m.Get("a"); v != "1" {
		t.Errorf("store must copy its seed, got %q", v)
	}
	_ = m.Set("b", "2")
	_ = m.Remove("a")
	if _, ok := m.Get("a"); ok {
		t.Error("a must be removed")
	}
	if v, ok := m.Get("b"); !ok || v != "2" {
		t.Errorf("b = %q, %v", v, ok)
	}

	empty := NewMemoryStore(nil)
	if err := empty.Set("k", "v"); err != nil {
		t.Fatalf("Set on nil-seeded store: %v", err)
	}
}
