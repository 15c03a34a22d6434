package node

import "time"

// Join retry policy. Every retry bound is fixed and small; no unbounded
// retry loop exists anywhere in the cycle.
const (
	// JoinMaxAttempts is the join attempt budget per wake cycle.
	JoinMaxAttempts = 3

	// JoinRetryBackoff is the fixed delay between join attempts.
	JoinRetryBackoff = 10 * time.Second
)

// Pre-transmission settle delays. A fresh join is followed by a materially
// longer pause than a warm resume, pacing airtime after the handshake's
// own transmissions.
const (
	// JoinSettleDelay follows a fresh join.
	JoinSettleDelay = 20 * time.Second

	// ResumeSettleDelay follows a warm resume.
	ResumeSettleDelay = 2 * time.Second
)

// Persistence pacing.
const (
	// NonceFlushInterval is the transmission-count cadence for flushing
	// nonce state to the persistent store during steady-state operation.
	// Join events (and every failed join attempt) flush immediately
	// regardless; this interval only bounds wear from routine traffic.
	NonceFlushInterval = 100
)

// Status reporting.
const (
	// StatusIntervalMinutes is the periodic status-report cadence in
	// logical minutes (12 hours).
	StatusIntervalMinutes = 720
)
