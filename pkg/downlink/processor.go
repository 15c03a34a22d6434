package downlink

import (
	"encoding/binary"
	"io"
	"log/slog"

	"github.com/quadcell-project/quadcell-go/pkg/nodecfg"
)

// Command opcodes.
const (
	OpSetTxInterval    = 0x20 // u16 BE seconds
	OpSetStabilization = 0x21 // u16 BE milliseconds
	OpSetPlan          = 0x22 // u8 plan selector
	OpSetSubBand       = 0x23 // u8 sub-band selector
	OpSetDwell         = 0x24 // u8 0/1
	OpSetSensorPower   = 0x25 // u8 0/1
	OpSetDiagnostics   = 0x26 // u8 0/1
	OpRequestStatus    = 0x30 // no operand
	OpRestart          = 0xFF // no operand
)

// Action is what the caller must do after a frame is processed, beyond the
// configuration mutations the processor applies itself.
type Action uint8

const (
	// ActionNone requires nothing further.
	ActionNone Action = iota

	// ActionStatusReport requests an immediate status report uplink.
	ActionStatusReport

	// ActionRestart requests an unconditional process restart. The caller
	// must not run the end-of-cycle persistence path first; restart
	// re-enters the normal boot path cleanly.
	ActionRestart
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionStatusReport:
		return "STATUS_REPORT"
	case ActionRestart:
		return "RESTART"
	default:
		return "UNKNOWN"
	}
}

// Processor applies downlink command frames to the runtime configuration.
type Processor struct {
	cfg    *nodecfg.Config
	store  *nodecfg.Store
	logger *slog.Logger
}

// NewProcessor creates a processor mutating cfg and persisting through
// store. A nil logger discards diagnostics.
func NewProcessor(cfg *nodecfg.Config, store *nodecfg.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{cfg: cfg, store: store, logger: logger}
}

// Process decodes and applies one command frame. Invalid input of any kind
// is a logged no-op returning ActionNone.
func (p *Processor) Process(frame []byte) Action {
	if len(frame) == 0 {
		return ActionNone
	}
	opcode := frame[0]
	operand := frame[1:]

	switch opcode {
	case OpSetTxInterval:
		p.mutate16(opcode, operand, (*nodecfg.Config).SetTxInterval)
	case OpSetStabilization:
		p.mutate16(opcode, operand, (*nodecfg.Config).SetStabilization)
	case OpSetPlan:
		p.mutate8(opcode, operand, (*nodecfg.Config).SetPlan)
	case OpSetSubBand:
		p.mutate8(opcode, operand, (*nodecfg.Config).SetSubBand)
	case OpSetDwell:
		p.mutate8(opcode, operand, (*nodecfg.Config).SetDwellEnforced)
	case OpSetSensorPower:
		p.mutate8(opcode, operand, (*nodecfg.Config).SetSensorPowerControl)
	case OpSetDiagnostics:
		p.mutate8(opcode, operand, (*nodecfg.Config).SetDiagnostics)

	case OpRequestStatus:
		p.logger.Debug("downlink: immediate status report requested")
		return ActionStatusReport

	case OpRestart:
		p.logger.Info("downlink: restart requested")
		return ActionRestart

	default:
		p.logger.Debug("downlink: unknown opcode ignored", "opcode", opcode)
	}
	return ActionNone
}

// mutate16 applies a setter taking a big-endian u16 operand.
func (p *Processor) mutate16(opcode byte, operand []byte, set func(*nodecfg.Config, uint16) error) {
	if len(operand) < 2 {
		p.logger.Debug("downlink: short operand ignored", "opcode", opcode, "len", len(operand))
		return
	}
	p.apply(opcode, func() error {
		return set(p.cfg, binary.BigEndian.Uint16(operand[:2]))
	})
}

// mutate8 applies a setter taking a single-byte operand.
func (p *Processor) mutate8(opcode byte, operand []byte, set func(*nodecfg.Config, uint8) error) {
	if len(operand) < 1 {
		p.logger.Debug("downlink: short operand ignored", "opcode", opcode, "len", len(operand))
		return
	}
	p.apply(opcode, func() error {
		return set(p.cfg, operand[0])
	})
}

// apply runs a validated mutation and persists on acceptance. Validation
// failures are silent toward the peer per the command contract.
func (p *Processor) apply(opcode byte, mutate func() error) {
	if err := mutate(); err != nil {
		p.logger.Debug("downlink: command rejected", "opcode", opcode, "error", err)
		return
	}
	if err := p.store.Save(*p.cfg); err != nil {
		// The in-memory mutation stands; the next accepted command or the
		// end-of-cycle path will retry the write.
		p.logger.Warn("downlink: failed to persist configuration", "opcode", opcode, "error", err)
		return
	}
	p.logger.Info("downlink: configuration updated", "opcode", opcode)
}
