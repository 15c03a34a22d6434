package simstack

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/hkdf"

	"github.com/quadcell-project/quadcell-go/pkg/lorastack"
	"github.com/quadcell-project/quadcell-go/pkg/region"
	"github.com/quadcell-project/quadcell-go/pkg/session"
)

// sessionMagic marks a session snapshot produced by this stack.
var sessionMagic = [4]byte{'Q', 'S', 'I', 'M'}

// Nonce-state layout (stack-private; the node treats the buffer as opaque):
// bytes 0-1 dev nonce (big endian), bytes 2-5 join nonce, rest reserved.
const (
	offDevNonce  = 0
	offJoinNonce = 2
)

// Session-state layout: magic, device address, uplink and downlink frame
// counters, dev nonce at key derivation, 32 bytes of session key material.
const (
	sessOffMagic    = 0
	sessOffAddr     = 4
	sessOffFCntUp   = 8
	sessOffFCntDown = 12
	sessOffDevNonce = 16
	sessOffKeys     = 18
	sessKeyLen      = 32
)

// Options configures a simulated stack.
type Options struct {
	// DevEUI is the device identity, used as the key-derivation salt.
	DevEUI [8]byte

	// RootKey is the pre-shared root key sessions derive from.
	RootKey [16]byte

	// InitFailures makes the next n Init calls fail.
	InitFailures int

	// JoinFailures makes the next n Join attempts fail. Failed attempts
	// still consume a dev nonce, as the real handshake does.
	JoinFailures int

	// ResumeFailures makes the next n Resume attempts fail.
	ResumeFailures int

	// SendFailures makes the next n Send calls fail with a transport
	// error (delivered session stays intact).
	SendFailures int
}

// Uplink records a transmitted frame for inspection by tests.
type Uplink struct {
	Port    uint8
	Payload []byte
	FCnt    uint32
}

// Stack is a simulated lorastack.Stack. Not safe for concurrent use; the
// node owns it from a single thread of control.
type Stack struct {
	opts Options

	inited          bool
	noncesRestored  bool
	sessionPending  session.SessionState
	sessionRestored bool

	devNonce  uint16
	joinNonce uint32

	joined   bool
	addr     lorastack.DevAddr
	fCntUp   uint32
	fCntDown uint32
	keys     [sessKeyLen]byte
	keyNonce uint16 // dev nonce the current keys were derived with

	downlinks [][]byte

	// Uplinks holds every delivered frame, oldest first.
	Uplinks []Uplink
}

// New creates a simulated stack.
func New(opts Options) *Stack {
	return &Stack{opts: opts}
}

// Init implements lorastack.Stack.
func (s *Stack) Init(plan region.Plan, subBand uint8, dwellEnforced bool) error {
	if !plan.Valid() {
		return fmt.Errorf("%w: unknown plan %d", lorastack.ErrInitFailed, plan)
	}
	if s.opts.InitFailures > 0 {
		s.opts.InitFailures--
		return lorastack.ErrInitFailed
	}
	s.inited = true
	return nil
}

// RestoreNonces implements lorastack.Stack.
func (s *Stack) RestoreNonces(n session.NonceState) error {
	s.devNonce = binary.BigEndian.Uint16(n[offDevNonce:])
	s.joinNonce = binary.BigEndian.Uint32(n[offJoinNonce:])
	s.noncesRestored = true
	return nil
}

// RestoreSession implements lorastack.Stack.
func (s *Stack) RestoreSession(snap session.SessionState) error {
	if !s.noncesRestored {
		return errors.New("nonce state must be restored before the session")
	}
	s.sessionPending = snap
	s.sessionRestored = true
	return nil
}

// Resume implements lorastack.Stack.
func (s *Stack) Resume() error {
	if !s.sessionRestored {
		return fmt.Errorf("%w: no session snapshot restored", lorastack.ErrResumeRejected)
	}
	if s.opts.ResumeFailures > 0 {
		s.opts.ResumeFailures--
		return lorastack.ErrResumeRejected
	}

	snap := s.sessionPending
	if [4]byte(snap[sessOffMagic:sessOffMagic+4]) != sessionMagic {
		return fmt.Errorf("%w: snapshot not recognized", lorastack.ErrResumeRejected)
	}
	keyNonce := binary.BigEndian.Uint16(snap[sessOffDevNonce:])
	if keyNonce == 0 || keyNonce > s.devNonce {
		// Session claims key material from a nonce the restored history
		// has never consumed: the snapshot and nonce state disagree.
		return fmt.Errorf("%w: session ahead of nonce history", lorastack.ErrResumeRejected)
	}

	copy(s.addr[:], snap[sessOffAddr:])
	s.fCntUp = binary.BigEndian.Uint32(snap[sessOffFCntUp:])
	s.fCntDown = binary.BigEndian.Uint32(snap[sessOffFCntDown:])
	s.keyNonce = keyNonce
	copy(s.keys[:], snap[sessOffKeys:])
	s.joined = true
	return nil
}

// Join implements lorastack.Stack. Every attempt consumes a dev nonce,
// exactly as the real handshake does, so callers must persist the captured
// nonce buffer after failures too.
func (s *Stack) Join() error {
	s.devNonce++

	if s.opts.JoinFailures > 0 {
		s.opts.JoinFailures--
		return lorastack.ErrJoinFailed
	}

	s.joinNonce++
	s.deriveKeys()
	s.keyNonce = s.devNonce
	s.addr = lorastack.DevAddr{s.keys[0], s.keys[1], s.keys[2], s.keys[3]}
	s.fCntUp = 0
	s.fCntDown = 0
	s.joined = true
	return nil
}

// deriveKeys derives fresh session key material from the root key and the
// current nonce pair.
func (s *Stack) deriveKeys() {
	info := make([]byte, 0, 6+len("session"))
	info = append(info, []byte("session")...)
	info = binary.BigEndian.AppendUint16(info, s.devNonce)
	info = binary.BigEndian.AppendUint32(info, s.joinNonce)

	kdf := hkdf.New(sha256.New, s.opts.RootKey[:], s.opts.DevEUI[:], info)
	if _, err := kdf.Read(s.keys[:]); err != nil {
		// HKDF cannot fail for these output lengths.
		panic(fmt.Sprintf("simstack key derivation: %v", err))
	}
}

// Send implements lorastack.Stack.
func (s *Stack) Send(port uint8, payload []byte) (lorastack.SendResult, []byte, error) {
	if !s.joined {
		return lorastack.SendFailed, nil, lorastack.ErrNotJoined
	}
	if s.opts.SendFailures > 0 {
		s.opts.SendFailures--
		return lorastack.SendFailed, nil, errors.New("no acknowledgment")
	}

	s.fCntUp++
	s.Uplinks = append(s.Uplinks, Uplink{
		Port:    port,
		Payload: append([]byte(nil), payload...),
		FCnt:    s.fCntUp,
	})

	if len(s.downlinks) > 0 {
		reply := s.downlinks[0]
		s.downlinks = s.downlinks[1:]
		s.fCntDown++
		return lorastack.SendOKWithReply, reply, nil
	}
	return lorastack.SendOK, nil, nil
}

// CaptureNonces implements lorastack.Stack.
func (s *Stack) CaptureNonces() session.NonceState {
	var n session.NonceState
	binary.BigEndian.PutUint16(n[offDevNonce:], s.devNonce)
	binary.BigEndian.PutUint32(n[offJoinNonce:], s.joinNonce)
	return n
}

// CaptureSession implements lorastack.Stack.
func (s *Stack) CaptureSession() session.SessionState {
	var snap session.SessionState
	if !s.joined {
		return snap
	}
	copy(snap[sessOffMagic:], sessionMagic[:])
	copy(snap[sessOffAddr:], s.addr[:])
	binary.BigEndian.PutUint32(snap[sessOffFCntUp:], s.fCntUp)
	binary.BigEndian.PutUint32(snap[sessOffFCntDown:], s.fCntDown)
	binary.BigEndian.PutUint16(snap[sessOffDevNonce:], s.keyNonce)
	copy(snap[sessOffKeys:], s.keys[:])
	return snap
}

// Joined implements lorastack.Stack.
func (s *Stack) Joined() bool {
	return s.joined
}

// DeviceAddr implements lorastack.Stack.
func (s *Stack) DeviceAddr() lorastack.DevAddr {
	if !s.joined {
		return lorastack.DevAddr{}
	}
	return s.addr
}

// QueueDownlink schedules a payload to be delivered in the receive window
// of the next successful uplink.
func (s *Stack) QueueDownlink(payload []byte) {
	s.downlinks = append(s.downlinks, append([]byte(nil), payload...))
}

// DevNonce exposes the current dev nonce counter for tests.
func (s *Stack) DevNonce() uint16 {
	return s.devNonce
}

// FCntUp exposes the current uplink frame counter for tests.
func (s *Stack) FCntUp() uint32 {
	return s.fCntUp
}

// Compile-time interface satisfaction check.
var _ lorastack.Stack = (*Stack)(nil)
