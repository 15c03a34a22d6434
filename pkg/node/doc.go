// Package node implements the wake-cycle core: the join/resume controller,
// the transmission scheduler and the power-state transition.
//
// A wake cycle is strictly sequential — boot, establish a session, acquire,
// transmit, process any downlink, persist, sleep. The only suspension
// points are fixed backoff/settle delays and the blocking waits inside the
// network stack; the node does no other work while waiting and nothing here
// is safe for concurrent use. State the cycle must not lose lives in the
// retained region (survives sleep) and the persistent store (survives cold
// boot); the controller is responsible for keeping the two coherent, nonce
// state first.
package node
