package session

// Buffer sizes. Fixed so the retained region layout never changes shape
// between firmware revisions that share a format version.
const (
	// NonceStateSize is the size of the nonce-state buffer in bytes.
	NonceStateSize = 16

	// SessionStateSize is the size of the session-state buffer in bytes.
	SessionStateSize = 256
)

// NonceState is the opaque replay-protection counter state of the network
// stack. The node treats it as a black box; only the stack interprets it.
type NonceState [NonceStateSize]byte

// IsZero reports whether the buffer is all zeroes (no nonce history).
func (n NonceState) IsZero() bool {
	for _, b := range n {
		if b != 0 {
			return false
		}
	}
	return true
}

// SessionState is the opaque negotiated-session snapshot of the network
// stack: address, keys and frame counters in the stack's own layout.
type SessionState [SessionStateSize]byte

// IsZero reports whether the buffer is all zeroes (no captured session).
func (s SessionState) IsZero() bool {
	for _, b := range s {
		if b != 0 {
			return false
		}
	}
	return true
}
