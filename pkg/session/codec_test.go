package session

import (
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/quadcell-project/quadcell-go/pkg/nvstore"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	return NewCodec(nvstore.NewStore(filepath.Join(t.TempDir(), "store.json")))
}

func TestCodec(t *testing.T) {
	t.Run("RestoreWithoutPersistIsZero", func(t *testing.T) {
		codec := newTestCodec(t)

		n, err := codec.RestoreNonces()
		if err != nil {
			t.Fatalf("RestoreNonces() error = %v", err)
		}
		if !n.IsZero() {
			t.Errorf("RestoreNonces() = %x, want zero buffer", n)
		}
		if HasNonceHistory(n) {
			t.Error("HasNonceHistory() = true for zero buffer")
		}
	})

	t.Run("RandomRoundTrip", func(t *testing.T) {
		codec := newTestCodec(t)

		var n NonceState
		if _, err := rand.Read(n[:]); err != nil {
			t.Fatalf("rand.Read() error = %v", err)
		}

		if err := codec.PersistNonces(n); err != nil {
			t.Fatalf("PersistNonces() error = %v", err)
		}
		got, err := codec.RestoreNonces()
		if err != nil {
			t.Fatalf("RestoreNonces() error = %v", err)
		}
		if got != n {
			t.Errorf("RestoreNonces() = %x, want %x", got, n)
		}
	})

	t.Run("PersistOverwrites", func(t *testing.T) {
		codec := newTestCodec(t)

		first := NonceState{0x00, 0x01}
		second := NonceState{0x00, 0x02}

		if err := codec.PersistNonces(first); err != nil {
			t.Fatalf("PersistNonces() error = %v", err)
		}
		if err := codec.PersistNonces(second); err != nil {
			t.Fatalf("PersistNonces() error = %v", err)
		}

		got, err := codec.RestoreNonces()
		if err != nil {
			t.Fatalf("RestoreNonces() error = %v", err)
		}
		if got != second {
			t.Errorf("RestoreNonces() = %x, want %x", got, second)
		}
	})
}

func TestHasNonceHistory(t *testing.T) {
	var zero NonceState
	if HasNonceHistory(zero) {
		t.Error("HasNonceHistory(zero) = true")
	}

	one := NonceState{15: 0x01}
	if !HasNonceHistory(one) {
		t.Error("HasNonceHistory(non-zero) = false")
	}
}
