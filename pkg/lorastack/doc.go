// Package lorastack defines the synchronous contract the node core expects
// from a LoRaWAN-class network stack.
//
// The stack owns everything wire-level: the security handshake, MAC framing,
// channel hopping and the regional channel tables. The core sees only a
// request/response surface — join, resume, send — plus accessors for the two
// opaque credential buffers it persists on the stack's behalf. Stacks that
// are natively event-driven must adapt to these synchronous semantics at
// this boundary.
//
// All calls block until the operation (including any receive window)
// completes. Nothing here is safe for concurrent use; the node owns the
// stack from a single thread of control by construction.
package lorastack
