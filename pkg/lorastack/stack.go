package lorastack

import (
	"errors"
	"fmt"

	"github.com/quadcell-project/quadcell-go/pkg/region"
	"github.com/quadcell-project/quadcell-go/pkg/session"
)

// Stack errors.
var (
	// ErrInitFailed indicates the radio hardware failed to initialize.
	// Fatal for the cycle: the node skips straight to sleep and retries
	// from scratch on the next timed wake.
	ErrInitFailed = errors.New("radio init failed")

	// ErrJoinFailed indicates a join attempt was not accepted. The stack
	// has already consumed (incremented) a nonce value; callers must
	// capture and persist the nonce buffer before retrying.
	ErrJoinFailed = errors.New("join not accepted")

	// ErrResumeRejected indicates the restored session could not be
	// activated. The session must be invalidated and a fresh join
	// attempted in the same cycle.
	ErrResumeRejected = errors.New("session resumption rejected")

	// ErrNotJoined indicates a send was attempted without an active
	// session. Invalidates the session so the next wake re-joins instead
	// of re-attempting a doomed resume.
	ErrNotJoined = errors.New("not joined")
)

// DevAddr is the short device address assigned by the network on join.
type DevAddr [4]byte

// String returns the address in the conventional hex form.
func (a DevAddr) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X", a[0], a[1], a[2], a[3])
}

// SendResult classifies the outcome of an uplink.
type SendResult uint8

const (
	// SendFailed indicates the uplink was not delivered. The accompanying
	// error carries the cause.
	SendFailed SendResult = iota

	// SendOK indicates the uplink was delivered with no downlink reply.
	SendOK

	// SendOKWithReply indicates the uplink was delivered and a downlink
	// payload arrived in the receive window.
	SendOKWithReply
)

// String returns the result name.
func (r SendResult) String() string {
	switch r {
	case SendFailed:
		return "FAILED"
	case SendOK:
		return "OK"
	case SendOKWithReply:
		return "OK_WITH_REPLY"
	default:
		return "UNKNOWN"
	}
}

// Stack is the synchronous network-stack surface the node core drives.
type Stack interface {
	// Init brings up the radio for the given plan, sub-band and dwell
	// policy. Must be called once per wake cycle before any other call.
	// Returns ErrInitFailed when the hardware does not come up.
	Init(plan region.Plan, subBand uint8, dwellEnforced bool) error

	// RestoreNonces installs previously persisted nonce state. Must happen
	// before Join or RestoreSession: a join performed over zeroed nonce
	// state may reuse a value the network has already seen.
	RestoreNonces(n session.NonceState) error

	// RestoreSession installs a previously captured session snapshot in
	// preparation for Resume. Only meaningful after RestoreNonces.
	RestoreSession(s session.SessionState) error

	// Resume activates the restored session without a fresh handshake.
	// Returns ErrResumeRejected when the snapshot cannot be activated.
	Resume() error

	// Join performs the full handshake, negotiating a new session.
	// The nonce counter is incremented even when the attempt fails;
	// callers capture and persist the buffer after every attempt.
	Join() error

	// Send transmits payload on the given port and waits out the receive
	// windows. On SendOKWithReply the returned bytes are the downlink
	// payload. On SendFailed the error carries the cause; ErrNotJoined
	// means the session is gone.
	Send(port uint8, payload []byte) (SendResult, []byte, error)

	// CaptureNonces snapshots the current nonce state for persistence.
	CaptureNonces() session.NonceState

	// CaptureSession snapshots the current session state for persistence.
	CaptureSession() session.SessionState

	// Joined reports whether a session is currently active.
	Joined() bool

	// DeviceAddr returns the network-assigned device address, or the zero
	// address when no session is active.
	DeviceAddr() DevAddr
}
