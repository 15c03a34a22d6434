package session

import (
	"fmt"

	"github.com/quadcell-project/quadcell-go/pkg/nvstore"
)

// nonceKey is the credential-namespace key holding the nonce buffer.
const nonceKey = "nonce_state"

// Codec moves credential buffers through the slow persistent store.
// It performs no rate limiting; callers bound the write frequency.
type Codec struct {
	store *nvstore.Store
}

// NewCodec creates a codec over the given store.
func NewCodec(store *nvstore.Store) *Codec {
	return &Codec{store: store}
}

// PersistNonces writes the nonce buffer to persistent storage.
func (c *Codec) PersistNonces(n NonceState) error {
	if err := c.store.Put(nvstore.NamespaceCredentials, nonceKey, n[:]); err != nil {
		return fmt.Errorf("persisting nonce state: %w", err)
	}
	return nil
}

// RestoreNonces reads the nonce buffer back from persistent storage.
// A missing entry yields a zero-filled buffer and no error; a present entry
// of the wrong size is an error (the store holds foreign data).
func (c *Codec) RestoreNonces() (NonceState, error) {
	var n NonceState

	var raw []byte
	found, err := c.store.Get(nvstore.NamespaceCredentials, nonceKey, &raw)
	if err != nil {
		return n, fmt.Errorf("restoring nonce state: %w", err)
	}
	if !found {
		return n, nil
	}
	if len(raw) != NonceStateSize {
		return n, fmt.Errorf("restoring nonce state: stored buffer is %d bytes, want %d", len(raw), NonceStateSize)
	}
	copy(n[:], raw)
	return n, nil
}

// HasNonceHistory reports whether the buffer carries real nonce history,
// distinguishing "never joined" from "has consumed nonce values".
func HasNonceHistory(n NonceState) bool {
	return !n.IsZero()
}
