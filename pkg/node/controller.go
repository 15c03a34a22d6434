package node

import (
	"github.com/quadcell-project/quadcell-go/pkg/radiolog"
	"github.com/quadcell-project/quadcell-go/pkg/session"
)

// EstablishSession runs the join/resume state machine for the current wake
// cycle. It always terminates in PhaseResumeOK, PhaseJoinOK or
// PhaseJoinFailed; a failed resume falls through to a fresh join within the
// same cycle, consuming no extra wake.
func (n *Node) EstablishSession() Phase {
	if n.region.BootCount > 1 && n.region.SessionValid {
		n.event(radiolog.Event{Category: radiolog.CategoryState, Phase: PhaseAttemptResume.String()})

		err := n.resumeRetained()
		if err == nil {
			// Capture order matters: session state is only valid
			// relative to its nonce history.
			n.region.Nonces = n.stack.CaptureNonces()
			n.region.Session = n.stack.CaptureSession()
			n.region.SessionValid = true
			n.event(radiolog.Event{
				Category: radiolog.CategoryResume,
				DevAddr:  n.stack.DeviceAddr().String(),
			})
			n.logger.Info("session resumed", "dev_addr", n.stack.DeviceAddr())
			return PhaseResumeOK
		}

		// Any resume failure invalidates the session and falls through
		// to a fresh join in the same cycle.
		n.region.Invalidate()
		n.event(radiolog.Event{Category: radiolog.CategoryResume, Error: err.Error()})
		n.logger.Warn("session resumption failed, falling back to join", "error", err)
	}

	return n.attemptJoin()
}

// resumeRetained restores the retained buffers into the stack and requests
// activation. Restoration order is fixed: nonces, then session, then
// activate.
func (n *Node) resumeRetained() error {
	if err := n.stack.RestoreNonces(n.region.Nonces); err != nil {
		return err
	}
	if err := n.stack.RestoreSession(n.region.Session); err != nil {
		return err
	}
	return n.stack.Resume()
}

// attemptJoin drives the fresh-join handshake with its fixed retry budget.
func (n *Node) attemptJoin() Phase {
	n.event(radiolog.Event{Category: radiolog.CategoryState, Phase: PhaseAttemptJoin.String()})

	// A fresh join must never reuse a nonce value already consumed, so
	// persisted nonce history is installed before the first attempt. Every
	// join attempt flushes its increment to the slow store right away while
	// the retained image is only rewritten at sleep, so the persisted copy
	// is never behind whatever a preceding resume attempt installed.
	nonces, err := n.codec.RestoreNonces()
	if err != nil {
		n.logger.Warn("could not restore persisted nonces, joining with retained history", "error", err)
	} else if session.HasNonceHistory(nonces) {
		if err := n.stack.RestoreNonces(nonces); err != nil {
			n.logger.Warn("stack rejected persisted nonces", "error", err)
		}
	}

	for attempt := 1; attempt <= JoinMaxAttempts; attempt++ {
		err := n.stack.Join()

		// The handshake consumes a nonce whether or not it succeeds.
		// Capture immediately so the increment survives a power loss.
		n.region.Nonces = n.stack.CaptureNonces()

		if err != nil {
			// Failed attempts flush straight to the persistent store:
			// the retained region alone would lose the increment on a
			// cold power loss between attempts.
			if perr := n.codec.PersistNonces(n.region.Nonces); perr != nil {
				n.logger.Error("failed to persist nonces after join failure", "error", perr)
			}
			n.event(radiolog.Event{Category: radiolog.CategoryJoin, Attempt: attempt, Error: err.Error()})
			n.logger.Warn("join attempt failed", "attempt", attempt, "error", err)

			if attempt < JoinMaxAttempts {
				n.pause(JoinRetryBackoff)
			}
			continue
		}

		n.region.Session = n.stack.CaptureSession()
		n.region.SessionValid = true
		if perr := n.codec.PersistNonces(n.region.Nonces); perr != nil {
			n.logger.Error("failed to persist nonces after join", "error", perr)
		}
		n.event(radiolog.Event{
			Category: radiolog.CategoryJoin,
			Attempt:  attempt,
			DevAddr:  n.stack.DeviceAddr().String(),
		})
		n.logger.Info("joined", "attempt", attempt, "dev_addr", n.stack.DeviceAddr())
		return PhaseJoinOK
	}

	n.region.Invalidate()
	n.event(radiolog.Event{Category: radiolog.CategoryState, Phase: PhaseJoinFailed.String()})
	n.logger.Error("join retry budget exhausted, skipping transmission this cycle")
	return PhaseJoinFailed
}
