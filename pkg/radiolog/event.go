package radiolog

import "time"

// Event is one radio activity record. CBOR encoding uses integer keys for
// compactness; the retained region and event log share the same encoder
// configuration.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// CycleID identifies the wake cycle the event belongs to (UUID).
	CycleID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Direction indicates frame flow for uplink/downlink events.
	Direction Direction `cbor:"4,keyasint,omitempty"`

	// Port is the logical channel for uplink/downlink events.
	Port uint8 `cbor:"5,keyasint,omitempty"`

	// Size is the frame payload size in bytes.
	Size int `cbor:"6,keyasint,omitempty"`

	// Attempt numbers retries within a cycle (1-based).
	Attempt int `cbor:"7,keyasint,omitempty"`

	// Phase names the controller phase for state events.
	Phase string `cbor:"8,keyasint,omitempty"`

	// DevAddr is the active device address, when known.
	DevAddr string `cbor:"9,keyasint,omitempty"`

	// Error carries the failure text for failed operations.
	Error string `cbor:"10,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryJoin is a join handshake attempt.
	CategoryJoin Category = iota

	// CategoryResume is a session resumption attempt.
	CategoryResume

	// CategoryUplink is a transmitted data or status frame.
	CategoryUplink

	// CategoryDownlink is a received command frame.
	CategoryDownlink

	// CategoryState is a controller phase change.
	CategoryState

	// CategorySleep is the power-state transition.
	CategorySleep

	// CategoryError is a failure outside the above.
	CategoryError
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryJoin:
		return "JOIN"
	case CategoryResume:
		return "RESUME"
	case CategoryUplink:
		return "UPLINK"
	case CategoryDownlink:
		return "DOWNLINK"
	case CategoryState:
		return "STATE"
	case CategorySleep:
		return "SLEEP"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates a received frame.
	DirectionIn Direction = 0
	// DirectionOut indicates a transmitted frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}
