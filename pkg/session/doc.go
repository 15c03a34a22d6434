// Package session defines the opaque credential buffers a node carries for
// its network session and the codec that moves them through persistent
// storage.
//
// Two fixed-size buffers make up the credential state:
//
//   - Nonce state: the replay-protection counters consumed by join
//     handshakes. Must be persisted monotonically — a nonce value used once
//     may never be offered to the network again, even across a cold boot.
//   - Session state: the negotiated session (device address, keys, frame
//     counters) as captured from the network stack. Only meaningful relative
//     to a specific nonce history and a set validity flag.
//
// The codec writes only the small nonce buffer to the slow persistent store;
// the full session state lives in the retained region, which has no write
// wear but does not survive a cold boot. Rate limiting of persistent writes
// is the caller's responsibility.
package session
