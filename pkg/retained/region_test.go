package retained

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/quadcell-project/quadcell-go/pkg/session"
)

func TestLoad(t *testing.T) {
	t.Run("MissingFileIsColdBoot", func(t *testing.T) {
		r := Load(filepath.Join(t.TempDir(), "absent.cbor"))

		if r.BootCount != 0 {
			t.Errorf("BootCount = %d, want 0", r.BootCount)
		}
		if r.SessionValid {
			t.Error("SessionValid = true on cold boot")
		}
		if !r.Nonces.IsZero() {
			t.Error("Nonces not zero on cold boot")
		}
		if !r.Session.IsZero() {
			t.Error("Session not zero on cold boot")
		}
	})

	t.Run("CorruptFileIsColdBoot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "retained.cbor")
		if err := os.WriteFile(path, []byte("not cbor at all"), 0644); err != nil {
			t.Fatal(err)
		}

		r := Load(path)
		if r.BootCount != 0 || r.SessionValid {
			t.Errorf("corrupt file: got BootCount=%d SessionValid=%v, want zero region", r.BootCount, r.SessionValid)
		}
	})

	t.Run("TruncatedFileIsColdBoot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "retained.cbor")

		r := &Region{BootCount: 7, SessionValid: true}
		if err := r.Save(path); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, raw[:len(raw)/2], 0644); err != nil {
			t.Fatal(err)
		}

		got := Load(path)
		if got.BootCount != 0 || got.SessionValid {
			t.Errorf("truncated file: got BootCount=%d SessionValid=%v, want zero region", got.BootCount, got.SessionValid)
		}
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retained.cbor")

	r := &Region{
		BootCount:        42,
		LastStatusMinute: 1440,
		TxCount:          199,
		SessionValid:     true,
	}
	if _, err := rand.Read(r.Nonces[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := rand.Read(r.Session[:]); err != nil {
		t.Fatal(err)
	}

	if err := r.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := Load(path)
	if got.BootCount != r.BootCount {
		t.Errorf("BootCount = %d, want %d", got.BootCount, r.BootCount)
	}
	if got.LastStatusMinute != r.LastStatusMinute {
		t.Errorf("LastStatusMinute = %d, want %d", got.LastStatusMinute, r.LastStatusMinute)
	}
	if got.TxCount != r.TxCount {
		t.Errorf("TxCount = %d, want %d", got.TxCount, r.TxCount)
	}
	if !got.SessionValid {
		t.Error("SessionValid = false after round trip")
	}
	if got.Nonces != r.Nonces {
		t.Error("Nonces differ after round trip")
	}
	if got.Session != r.Session {
		t.Error("Session differs after round trip")
	}
}

func TestInvalidate(t *testing.T) {
	r := &Region{SessionValid: true, Nonces: session.NonceState{0x01}}

	r.Invalidate()

	if r.SessionValid {
		t.Error("SessionValid = true after Invalidate")
	}
	if r.Nonces.IsZero() {
		t.Error("Invalidate must not clear the nonce buffer")
	}
}
