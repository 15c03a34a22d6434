package nvstore

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestStore(t *testing.T) {
	t.Run("GetMissingKey", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		var out string
		found, err := store.Get(NamespaceConfig, "absent", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("Get() found = true for missing key")
		}
	})

	t.Run("PutThenGet", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		if err := store.Put(NamespaceConfig, "tx_interval", uint16(300)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var out uint16
		found, err := store.Get(NamespaceConfig, "tx_interval", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !found {
			t.Fatal("Get() found = false after Put")
		}
		if out != 300 {
			t.Errorf("Get() = %d, want 300", out)
		}
	})

	t.Run("NamespacesAreIsolated", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		if err := store.Put(NamespaceConfig, "key", 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var out int
		found, err := store.Get(NamespaceCredentials, "key", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("key from config namespace visible in credentials namespace")
		}
	})

	t.Run("BinaryRoundTrip", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		blob := []byte{0x00, 0x01, 0xFF, 0x7F, 0x80}
		if err := store.Put(NamespaceCredentials, "nonces", blob); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var out []byte
		found, err := store.Get(NamespaceCredentials, "nonces", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !found {
			t.Fatal("Get() found = false after Put")
		}
		if !bytes.Equal(out, blob) {
			t.Errorf("Get() = %x, want %x", out, blob)
		}
	})

	t.Run("OverwriteReplacesValue", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		if err := store.Put(NamespaceConfig, "sub_band", uint8(1)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := store.Put(NamespaceConfig, "sub_band", uint8(4)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var out uint8
		if _, err := store.Get(NamespaceConfig, "sub_band", &out); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if out != 4 {
			t.Errorf("Get() = %d, want 4", out)
		}
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "store.json")

		store := NewStore(path)
		if err := store.Put(NamespaceConfig, "diagnostics", true); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		reopened := NewStore(path)
		var out bool
		found, err := reopened.Get(NamespaceConfig, "diagnostics", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !found || !out {
			t.Errorf("Get() = (%v, %v), want (true, true)", out, found)
		}
	})

	t.Run("DeleteMissingIsNoop", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		if err := store.Delete(NamespaceConfig, "absent"); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(filepath.Join(dir, "store.json"))

		if err := store.Put(NamespaceConfig, "key", 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		var out int
		found, err := store.Get(NamespaceConfig, "key", &out)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("key still present after Clear")
		}
	})
}
