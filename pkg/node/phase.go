package node

// Phase is the join/resume controller state within a wake cycle.
// Every cycle ends in one of PhaseResumeOK, PhaseJoinOK or PhaseJoinFailed.
type Phase uint8

const (
	// PhaseColdStart is the initial phase before any session decision.
	PhaseColdStart Phase = iota

	// PhaseAttemptResume indicates resumption of the retained session is
	// in progress.
	PhaseAttemptResume

	// PhaseResumeOK indicates the retained session was reactivated.
	PhaseResumeOK

	// PhaseAttemptJoin indicates a fresh join handshake is in progress.
	PhaseAttemptJoin

	// PhaseJoinOK indicates a fresh session was negotiated.
	PhaseJoinOK

	// PhaseJoinFailed indicates the join retry budget was exhausted.
	// The cycle skips transmission and proceeds directly to sleep.
	PhaseJoinFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseColdStart:
		return "COLD_START"
	case PhaseAttemptResume:
		return "ATTEMPT_RESUME"
	case PhaseResumeOK:
		return "RESUME_OK"
	case PhaseAttemptJoin:
		return "ATTEMPT_JOIN"
	case PhaseJoinOK:
		return "JOIN_OK"
	case PhaseJoinFailed:
		return "JOIN_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Established reports whether the phase carries an active session.
func (p Phase) Established() bool {
	return p == PhaseResumeOK || p == PhaseJoinOK
}
