// Package downlink decodes inbound command frames and applies them to the
// runtime configuration.
//
// A frame is one opcode byte followed by an operand whose width the opcode
// dictates. The processor is deliberately forgiving toward the network
// peer: unknown opcodes, short frames and out-of-range operands are silent
// no-ops — nothing is surfaced upstream, and no state is mutated. Accepted
// configuration changes are persisted before the processor returns.
package downlink
