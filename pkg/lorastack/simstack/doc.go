// Package simstack provides a simulated network stack implementing the
// lorastack.Stack contract.
//
// The simulation models the pieces of network behavior the node core
// depends on, without any radio: nonce counters that advance on every join
// attempt (failed attempts included), session key material derived from a
// root key and the join nonces, frame counters, and a downlink queue for
// exercising the command path. Failure injection knobs drive the retry and
// fallback logic in tests and let the interactive mode rehearse error
// handling.
package simstack
